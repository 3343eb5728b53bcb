package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"designcraft/internal/config"
	"designcraft/internal/logger"

	_ "github.com/lib/pq"
)

// DB представляет подключение к PostgreSQL
type DB struct {
	*sql.DB
}

// Connect открывает пул соединений и проверяет доступность базы данных
func Connect(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"host": cfg.Host,
		"db":   cfg.DBName,
	}).Info("Successfully connected to PostgreSQL")

	return &DB{DB: sqlDB}, nil
}

// Health проверяет состояние подключения
func (db *DB) Health() error {
	if db == nil || db.DB == nil {
		return errors.New("database is not initialized")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Close закрывает пул соединений
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}
