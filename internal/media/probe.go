package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFProbe определяет длительность аудио через внешний бинарник ffprobe.
type FFProbe struct {
	path string
}

// NewFFProbe создаёт пробер; пустой путь означает ffprobe из PATH.
func NewFFProbe(path string) *FFProbe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFProbe{path: path}
}

// Duration возвращает длительность файла в секундах.
func (p *FFProbe) Duration(ctx context.Context, filePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, fmt.Errorf("ffprobe timed out: %w", ctxErr)
		}
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseProbeOutput(stdout.String())
}

func parseProbeOutput(out string) (float64, error) {
	value := strings.TrimSpace(out)
	if i := strings.IndexByte(value, '\n'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	if value == "" || value == "N/A" {
		return 0, fmt.Errorf("duration is not available")
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", value, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("negative duration %v", seconds)
	}
	return seconds, nil
}
