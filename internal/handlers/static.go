package handlers

import (
	"net/http"
	"strings"
)

// UploadsHandler раздаёт сохранённые файлы из dir под префиксом prefix; листинг каталогов запрещён
func UploadsHandler(dir, prefix string) http.Handler {
	prefix = "/" + strings.Trim(prefix, "/") + "/"
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if strings.HasSuffix(r.URL.Path, "/") {
			writeErrorResponse(w, http.StatusNotFound, "File not found")
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
