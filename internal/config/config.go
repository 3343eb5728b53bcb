package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	Kafka     KafkaConfig     `json:"kafka"`
	Logger    LoggerConfig    `json:"logger"`
	Auth      AuthConfig      `json:"auth"`
	Storage   StorageConfig   `json:"storage"`
	Media     MediaConfig     `json:"media"`
	Mail      MailConfig      `json:"mail"`
	Orders    OrdersConfig    `json:"orders"`
	Cache     CacheConfig     `json:"cache"`
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

// ServerConfig представляет конфигурацию HTTP сервера
type ServerConfig struct {
	Port         string `json:"port"`
	Host         string `json:"host"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	PublicURL    string `json:"public_url"`
}

// DatabaseConfig представляет конфигурацию базы данных
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// KafkaConfig представляет конфигурацию Kafka
type KafkaConfig struct {
	Brokers []string `json:"brokers"`
	GroupID string   `json:"group_id"`
	Topics  Topics   `json:"topics"`
}

// Topics представляет список топиков Kafka
type Topics struct {
	Orders string `json:"orders"`
}

// LoggerConfig представляет конфигурацию логгера
type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// AuthConfig описывает параметры выдачи сессионных токенов
type AuthConfig struct {
	JWTSecret     string   `json:"-"`
	TokenTTLHours int      `json:"token_ttl_hours"`
	CookieName    string   `json:"cookie_name"`
	CookieSecure  bool     `json:"cookie_secure"`
	AdminEmails   []string `json:"admin_emails"`
	BcryptCost    int      `json:"bcrypt_cost"`
}

// StorageConfig описывает локальное хранилище загруженных файлов
type StorageConfig struct {
	Dir            string `json:"dir"`
	PublicPrefix   string `json:"public_prefix"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
}

// MediaConfig хранит ограничения для голосовых заметок
type MediaConfig struct {
	MaxVoiceBytes       int64  `json:"max_voice_bytes"`
	MaxVoiceSeconds     int    `json:"max_voice_seconds"`
	FFProbePath         string `json:"ffprobe_path"`
	ProbeTimeoutSeconds int    `json:"probe_timeout_seconds"`
}

// MailConfig описывает SMTP отправителя. Пустой Host означает отправку только в лог.
type MailConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	Password     string `json:"-"`
	From         string `json:"from"`
	Concurrency  int    `json:"concurrency"`
	FrontendURL  string `json:"frontend_url"`
	BrandingName string `json:"branding_name"`
}

// OrdersConfig управляет политиками жизненного цикла заказа
type OrdersConfig struct {
	StatusPolicy     string `json:"status_policy"` // permissive | strict
	RevalidateCoupon bool   `json:"revalidate_coupon"`
}

// CacheConfig хранит TTL кеша заказов
type CacheConfig struct {
	OrderTTLMinutes int `json:"order_ttl_minutes"`
}

// CORSConfig описывает разрешённые источники фронтенда
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

// RateLimitConfig описывает настройки rate limiting
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Requests      int    `json:"requests"`
	WindowSeconds int    `json:"window_seconds"`
	KeyPrefix     string `json:"key_prefix"`
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() *Config {
	// .env опционален: в контейнерах переменные приходят из окружения
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "5050"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			PublicURL:    getEnv("SERVER_PUBLIC_URL", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "designcraft"),
			Password: getEnv("DB_PASSWORD", "designcraft"),
			DBName:   getEnv("DB_NAME", "designcraft"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID: getEnv("KAFKA_GROUP_ID", "designcraft-api"),
			Topics: Topics{
				Orders: getEnv("KAFKA_TOPIC_ORDERS", "orders"),
			},
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			TokenTTLHours: getEnvAsInt("JWT_TTL_HOURS", 7*24),
			CookieName:    getEnv("AUTH_COOKIE_NAME", "token"),
			CookieSecure:  getEnvAsBool("AUTH_COOKIE_SECURE", false),
			AdminEmails:   getEnvAsList("AUTH_ADMIN_EMAILS", []string{"admin@designcraft.com"}),
			BcryptCost:    getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Storage: StorageConfig{
			Dir:            getEnv("UPLOAD_DIR", "uploads"),
			PublicPrefix:   getEnv("UPLOAD_PUBLIC_PREFIX", "/uploads"),
			MaxUploadBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 12<<20)),
		},
		Media: MediaConfig{
			MaxVoiceBytes:       int64(getEnvAsInt("VOICE_MAX_BYTES", 5<<20)),
			MaxVoiceSeconds:     getEnvAsInt("VOICE_MAX_SECONDS", 180),
			FFProbePath:         getEnv("FFPROBE_PATH", "ffprobe"),
			ProbeTimeoutSeconds: getEnvAsInt("VOICE_PROBE_TIMEOUT_SECONDS", 5),
		},
		Mail: MailConfig{
			Host:         getEnv("SMTP_HOST", ""),
			Port:         getEnvAsInt("SMTP_PORT", 587),
			Username:     getEnv("SMTP_USER", ""),
			Password:     getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("MAIL_FROM", "DesignCraft <no-reply@designcraft.com>"),
			Concurrency:  getEnvAsInt("MAIL_CONCURRENCY", 4),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
			BrandingName: getEnv("MAIL_BRANDING_NAME", "DesignCraft"),
		},
		Orders: OrdersConfig{
			StatusPolicy:     getEnv("ORDERS_STATUS_POLICY", "permissive"),
			RevalidateCoupon: getEnvAsBool("ORDERS_REVALIDATE_COUPON", false),
		},
		Cache: CacheConfig{
			OrderTTLMinutes: getEnvAsInt("CACHE_ORDER_TTL_MINUTES", 15),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:3002"}),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvAsBool("RATE_LIMIT_ENABLED", true),
			Requests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			WindowSeconds: getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 900),
			KeyPrefix:     getEnv("RATE_LIMIT_KEY_PREFIX", "ratelimit"),
		},
	}
}

// getEnv получает значение переменной окружения с значением по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int с значением по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat получает значение переменной окружения как float64 с значением по умолчанию
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool с значением по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(getEnv(key, ""))
	if valueStr == "true" || valueStr == "1" || valueStr == "yes" {
		return true
	}
	if valueStr == "false" || valueStr == "0" || valueStr == "no" {
		return false
	}
	return defaultValue
}

// getEnvAsList разбирает список через запятую, пустые элементы отбрасываются
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
