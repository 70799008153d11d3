package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// allRCKeys — все переменные окружения, читаемые Load.
var allRCKeys = []string{
	"RC_ENV_FILE", "RC_PORT", "RC_UPLOAD_DIR", "RC_MAX_FILE_SIZE",
	"RC_ALLOWED_EXTENSIONS", "RC_ALLOWED_ORIGINS", "RC_LOG_LEVEL", "RC_LOG_FORMAT",
	"RC_RECONCILE_INTERVAL", "RC_ORPHAN_GRACE_PERIOD", "RC_PENDING_CACHE_SIZE",
	"RC_HTTP_READ_TIMEOUT", "RC_HTTP_WRITE_TIMEOUT", "RC_HTTP_IDLE_TIMEOUT",
	"RC_SHUTDOWN_TIMEOUT",
}

// clearAllRCEnvVars очищает все переменные окружения RC_* для чистого теста.
// RC_ENV_FILE указывает на несуществующий файл, чтобы .env из рабочей
// директории не влиял на результат.
func clearAllRCEnvVars(t *testing.T) func() {
	t.Helper()
	originals := make(map[string]string)
	origSet := make(map[string]bool)
	for _, k := range allRCKeys {
		if v, ok := os.LookupEnv(k); ok {
			originals[k] = v
			origSet[k] = true
		}
		os.Unsetenv(k)
	}
	os.Setenv("RC_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	return func() {
		for _, k := range allRCKeys {
			if origSet[k] {
				os.Setenv(k, originals[k])
			} else {
				os.Unsetenv(k)
			}
		}
	}
}

// setEnvVars устанавливает переменные окружения для теста.
// Очистка выполняется через clearAllRCEnvVars.
func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		os.Setenv(k, v)
	}
}

// TestLoad_Defaults проверяет значения по умолчанию.
func TestLoad_Defaults(t *testing.T) {
	defer clearAllRCEnvVars(t)()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8000 {
		t.Errorf("Port: ожидалось 8000, получено %d", cfg.Port)
	}
	if cfg.UploadDir != "uploads" {
		t.Errorf("UploadDir: ожидалось uploads, получено %q", cfg.UploadDir)
	}
	if cfg.MaxFileSize != 10485760 {
		t.Errorf("MaxFileSize: ожидалось 10485760, получено %d", cfg.MaxFileSize)
	}
	want := []string{".pdf", ".doc", ".docx"}
	if len(cfg.AllowedExtensions) != len(want) {
		t.Fatalf("AllowedExtensions: ожидалось %v, получено %v", want, cfg.AllowedExtensions)
	}
	for i := range want {
		if cfg.AllowedExtensions[i] != want[i] {
			t.Errorf("AllowedExtensions[%d]: ожидалось %q, получено %q", i, want[i], cfg.AllowedExtensions[i])
		}
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins: ожидалось [*], получено %v", cfg.AllowedOrigins)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel: ожидалось info, получено %v", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat: ожидалось json, получено %q", cfg.LogFormat)
	}
	if cfg.ReconcileInterval != time.Hour {
		t.Errorf("ReconcileInterval: ожидалось 1h, получено %v", cfg.ReconcileInterval)
	}
	if cfg.OrphanGracePeriod != 10*time.Minute {
		t.Errorf("OrphanGracePeriod: ожидалось 10m, получено %v", cfg.OrphanGracePeriod)
	}
	if cfg.PendingCacheSize != 4096 {
		t.Errorf("PendingCacheSize: ожидалось 4096, получено %d", cfg.PendingCacheSize)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout: ожидалось 10s, получено %v", cfg.ShutdownTimeout)
	}
}

// TestLoad_CustomValues проверяет чтение заданных значений.
func TestLoad_CustomValues(t *testing.T) {
	defer clearAllRCEnvVars(t)()
	setEnvVars(t, map[string]string{
		"RC_PORT":               "9090",
		"RC_UPLOAD_DIR":         "/var/lib/resumes",
		"RC_MAX_FILE_SIZE":      "2048",
		"RC_ALLOWED_EXTENSIONS": "PDF, rtf ,,.Txt,.pdf",
		"RC_ALLOWED_ORIGINS":    "https://hr.example.com, http://localhost:3000",
		"RC_LOG_LEVEL":          "debug",
		"RC_LOG_FORMAT":         "text",
		"RC_RECONCILE_INTERVAL": "0s",
		"RC_HTTP_READ_TIMEOUT":  "5s",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port: ожидалось 9090, получено %d", cfg.Port)
	}
	if cfg.UploadDir != "/var/lib/resumes" {
		t.Errorf("UploadDir: получено %q", cfg.UploadDir)
	}
	if cfg.MaxFileSize != 2048 {
		t.Errorf("MaxFileSize: ожидалось 2048, получено %d", cfg.MaxFileSize)
	}
	want := []string{".pdf", ".rtf", ".txt"}
	if len(cfg.AllowedExtensions) != len(want) {
		t.Fatalf("AllowedExtensions: ожидалось %v, получено %v", want, cfg.AllowedExtensions)
	}
	for i := range want {
		if cfg.AllowedExtensions[i] != want[i] {
			t.Errorf("AllowedExtensions[%d]: ожидалось %q, получено %q", i, want[i], cfg.AllowedExtensions[i])
		}
	}
	origins := []string{"https://hr.example.com", "http://localhost:3000"}
	if len(cfg.AllowedOrigins) != len(origins) {
		t.Fatalf("AllowedOrigins: ожидалось %v, получено %v", origins, cfg.AllowedOrigins)
	}
	for i := range origins {
		if cfg.AllowedOrigins[i] != origins[i] {
			t.Errorf("AllowedOrigins[%d]: ожидалось %q, получено %q", i, origins[i], cfg.AllowedOrigins[i])
		}
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel: ожидалось debug, получено %v", cfg.LogLevel)
	}
	if cfg.ReconcileInterval != 0 {
		t.Errorf("ReconcileInterval: ожидалось 0, получено %v", cfg.ReconcileInterval)
	}
	if cfg.HTTPReadTimeout != 5*time.Second {
		t.Errorf("HTTPReadTimeout: ожидалось 5s, получено %v", cfg.HTTPReadTimeout)
	}
}

// TestLoad_InvalidValues проверяет отказ на некорректных значениях.
func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"RC_PORT", "abc"},
		{"RC_PORT", "70000"},
		{"RC_MAX_FILE_SIZE", "0"},
		{"RC_MAX_FILE_SIZE", "ten"},
		{"RC_MAX_FILE_SIZE", "9223372036854775807"},
		{"RC_MAX_FILE_SIZE", "1099511627777"},
		{"RC_ALLOWED_EXTENSIONS", " , ,"},
		{"RC_ALLOWED_ORIGINS", " , "},
		{"RC_LOG_LEVEL", "verbose"},
		{"RC_LOG_FORMAT", "xml"},
		{"RC_RECONCILE_INTERVAL", "hourly"},
		{"RC_RECONCILE_INTERVAL", "-1m"},
		{"RC_ORPHAN_GRACE_PERIOD", "0s"},
		{"RC_PENDING_CACHE_SIZE", "-5"},
		{"RC_SHUTDOWN_TIMEOUT", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			defer clearAllRCEnvVars(t)()
			setEnvVars(t, map[string]string{tt.key: tt.value})

			if _, err := Load(); err == nil {
				t.Errorf("ожидалась ошибка для %s=%q", tt.key, tt.value)
			}
		})
	}
}

// TestLoad_EnvFile проверяет загрузку .env файла и приоритет окружения.
func TestLoad_EnvFile(t *testing.T) {
	defer clearAllRCEnvVars(t)()

	envFile := filepath.Join(t.TempDir(), "test.env")
	content := "RC_PORT=8123\nRC_UPLOAD_DIR=from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("ошибка записи .env: %v", err)
	}
	setEnvVars(t, map[string]string{
		"RC_ENV_FILE":   envFile,
		"RC_UPLOAD_DIR": "from-env",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if cfg.Port != 8123 {
		t.Errorf("Port: ожидалось 8123 из файла, получено %d", cfg.Port)
	}
	if cfg.UploadDir != "from-env" {
		t.Errorf("UploadDir: переменная окружения должна иметь приоритет, получено %q", cfg.UploadDir)
	}
}

// TestParseLogLevel проверяет разбор уровней логирования.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if err != nil {
			t.Errorf("%s: неожиданная ошибка %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: ожидалось %v, получено %v", tt.in, tt.want, got)
		}
	}
}
