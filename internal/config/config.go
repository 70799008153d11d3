// Пакет config — загрузка и валидация конфигурации сервиса приёма резюме
// из переменных окружения и необязательного .env файла.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bigkaa/resume-collector/internal/storage/filestore"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// AppName — название сервиса в health-ответах и логах.
const AppName = "Mini Resume Collector API"

// Config содержит все параметры конфигурации сервиса.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Директория хранения вложений (файлов резюме)
	UploadDir string
	// Максимальный размер вложения в байтах
	MaxFileSize int64
	// Допустимые расширения вложений (нижний регистр, с точкой)
	AllowedExtensions []string
	// Источники, которым разрешены cross-origin запросы ("*" — любые)
	AllowedOrigins []string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Интервал фоновой сверки вложений (0 — только ручной запуск)
	ReconcileInterval time.Duration
	// Время, в течение которого свежее вложение не считается осиротевшим
	OrphanGracePeriod time.Duration
	// Ёмкость кэша вложений, ещё не привязанных к записи
	PendingCacheSize int

	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// значения и возвращает Config или ошибку.
// Перед чтением окружения подгружается файл RC_ENV_FILE (по умолчанию .env),
// если он существует. Уже заданные переменные окружения не перезаписываются.
func Load() (*Config, error) {
	envFile := getEnvDefault("RC_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("RC_ENV_FILE: ошибка чтения %s: %w", envFile, err)
	}

	cfg := &Config{}

	// RC_PORT — порт HTTP-сервера (по умолчанию 8000)
	port, err := getEnvInt("RC_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("RC_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("RC_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// RC_UPLOAD_DIR — директория вложений (по умолчанию uploads)
	cfg.UploadDir = getEnvDefault("RC_UPLOAD_DIR", "uploads")

	// RC_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 10 MB)
	cfg.MaxFileSize, err = getEnvInt64("RC_MAX_FILE_SIZE", 10485760)
	if err != nil {
		return nil, fmt.Errorf("RC_MAX_FILE_SIZE: %w", err)
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("RC_MAX_FILE_SIZE: значение должно быть положительным")
	}
	if cfg.MaxFileSize > filestore.MaxFileSizeLimit {
		return nil, fmt.Errorf("RC_MAX_FILE_SIZE: значение %d превышает максимум %d",
			cfg.MaxFileSize, filestore.MaxFileSizeLimit)
	}

	// RC_ALLOWED_EXTENSIONS — список через запятую (по умолчанию .pdf,.doc,.docx)
	cfg.AllowedExtensions = filestore.NormalizeExtensions(
		splitList(getEnvDefault("RC_ALLOWED_EXTENSIONS", ".pdf,.doc,.docx")))
	if len(cfg.AllowedExtensions) == 0 {
		return nil, fmt.Errorf("RC_ALLOWED_EXTENSIONS: список допустимых расширений пуст")
	}

	// RC_ALLOWED_ORIGINS — источники для CORS через запятую (по умолчанию *)
	cfg.AllowedOrigins = splitList(getEnvDefault("RC_ALLOWED_ORIGINS", "*"))
	if len(cfg.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("RC_ALLOWED_ORIGINS: список источников пуст")
	}

	// RC_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("RC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("RC_LOG_LEVEL: %w", err)
	}

	// RC_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("RC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RC_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// RC_RECONCILE_INTERVAL — интервал сверки вложений (по умолчанию 1h)
	cfg.ReconcileInterval, err = getEnvDuration("RC_RECONCILE_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RC_RECONCILE_INTERVAL: %w", err)
	}
	if cfg.ReconcileInterval < 0 {
		return nil, fmt.Errorf("RC_RECONCILE_INTERVAL: значение не может быть отрицательным")
	}

	// RC_ORPHAN_GRACE_PERIOD — защитный интервал для свежих вложений (по умолчанию 10m)
	cfg.OrphanGracePeriod, err = getEnvDuration("RC_ORPHAN_GRACE_PERIOD", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("RC_ORPHAN_GRACE_PERIOD: %w", err)
	}
	if cfg.OrphanGracePeriod <= 0 {
		return nil, fmt.Errorf("RC_ORPHAN_GRACE_PERIOD: значение должно быть положительным")
	}

	// RC_PENDING_CACHE_SIZE — ёмкость кэша незавершённых загрузок (по умолчанию 4096)
	cfg.PendingCacheSize, err = getEnvInt("RC_PENDING_CACHE_SIZE", 4096)
	if err != nil {
		return nil, fmt.Errorf("RC_PENDING_CACHE_SIZE: %w", err)
	}
	if cfg.PendingCacheSize <= 0 {
		return nil, fmt.Errorf("RC_PENDING_CACHE_SIZE: значение должно быть положительным")
	}

	// RC_HTTP_READ_TIMEOUT / RC_HTTP_WRITE_TIMEOUT / RC_HTTP_IDLE_TIMEOUT
	cfg.HTTPReadTimeout, err = getEnvDuration("RC_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RC_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("RC_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RC_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("RC_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RC_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// RC_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 10s)
	cfg.ShutdownTimeout, err = getEnvDuration("RC_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RC_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 10m, 1h)", val)
	}
	return d, nil
}

// splitList разбирает список через запятую, отбрасывая пустые элементы.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
