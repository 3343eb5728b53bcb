package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/IBM/sarama"
)

const serviceVersion = "1.2.0"

// KafkaChecker проверяет доступность брокеров
type KafkaChecker func(brokers []string) error

// HealthHandler представляет обработчик для проверки здоровья системы
type HealthHandler struct {
	db           DBHealth
	redisClient  RedisHealth
	kafkaBrokers []string
	kafkaCheck   KafkaChecker
}

// NewHealthHandler создает новый обработчик здоровья; nil checker означает реальное подключение к брокерам
func NewHealthHandler(db DBHealth, redisClient RedisHealth, kafkaBrokers []string, kafkaCheck KafkaChecker) *HealthHandler {
	if kafkaCheck == nil {
		kafkaCheck = checkKafkaHealth
	}
	return &HealthHandler{
		db:           db,
		redisClient:  redisClient,
		kafkaBrokers: kafkaBrokers,
		kafkaCheck:   kafkaCheck,
	}
}

// HealthResponse представляет ответ проверки здоровья
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
	Version  string            `json:"version"`
	Uptime   string            `json:"uptime"`
}

var startTime = time.Now()

// componentCheck - проверка одной зависимости
type componentCheck struct {
	name string
	run  func(ctx context.Context) error
}

func (h *HealthHandler) checks() []componentCheck {
	return []componentCheck{
		{name: "database", run: func(context.Context) error { return h.db.Health() }},
		{name: "redis", run: h.redisClient.Health},
		{name: "kafka", run: func(context.Context) error { return h.kafkaCheck(h.kafkaBrokers) }},
	}
}

// Health проверяет состояние всех компонентов системы
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	overallStatus := "healthy"
	for _, c := range h.checks() {
		if err := c.run(ctx); err != nil {
			services[c.name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
			continue
		}
		services[c.name] = "healthy"
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, statusCode, HealthResponse{
		Status:   overallStatus,
		Services: services,
		Version:  serviceVersion,
		Uptime:   time.Since(startTime).String(),
	})
}

// Readiness проверяет готовность приложения к обработке запросов
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, c := range h.checks() {
		if err := c.run(ctx); err != nil {
			writeErrorResponse(w, http.StatusServiceUnavailable, fmt.Sprintf("%s not ready", c.name))
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Liveness проверяет, что приложение живо
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "alive",
		"uptime": time.Since(startTime).String(),
	})
}

// CheckKafkaHealth проверяет доступность Kafka брокеров
func CheckKafkaHealth(brokers []string) error {
	return checkKafkaHealth(brokers)
}

func checkKafkaHealth(brokers []string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no brokers configured")
	}

	cfg := sarama.NewConfig()
	cfg.Net.DialTimeout = 3 * time.Second
	cfg.Net.ReadTimeout = 5 * time.Second
	cfg.Net.WriteTimeout = 5 * time.Second
	cfg.Metadata.Retry.Max = 1
	cfg.Metadata.Retry.Backoff = 500 * time.Millisecond

	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	return nil
}
