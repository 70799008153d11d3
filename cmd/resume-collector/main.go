// Точка входа Mini Resume Collector API — сервиса приёма резюме кандидатов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bigkaa/resume-collector/internal/api/handlers"
	"github.com/bigkaa/resume-collector/internal/api/middleware"
	"github.com/bigkaa/resume-collector/internal/config"
	"github.com/bigkaa/resume-collector/internal/server"
	"github.com/bigkaa/resume-collector/internal/service"
	"github.com/bigkaa/resume-collector/internal/storage/filestore"
	"github.com/bigkaa/resume-collector/internal/storage/recordstore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info(config.AppName+" запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("upload_dir", cfg.UploadDir),
	)

	// --- Инициализация компонентов ---

	// 1. Хранилище вложений
	files, err := filestore.New(cfg.UploadDir, cfg.AllowedExtensions, cfg.MaxFileSize)
	if err != nil {
		logger.Error("Ошибка инициализации FileStore", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Хранилище вложений готово",
		slog.Int64("max_file_size", files.MaxFileSize()),
		slog.Any("allowed_extensions", files.AllowedExtensions()),
	)

	// 2. Хранилище записей (в памяти процесса)
	records := recordstore.New()
	middleware.CandidatesTotal.Set(0)

	// 3. Сервисы
	pending := service.NewPendingAttachments(cfg.PendingCacheSize, cfg.OrphanGracePeriod)
	candidateSvc := service.NewCandidateService(records, files, pending, service.NewValidator(), logger)

	// 4. Фоновые процессы
	ctx := context.Background()

	// Записи не переживают рестарт, поэтому файлы прошлого запуска
	// станут осиротевшими и будут удалены после grace period.
	reconcileSvc := service.NewReconcileService(
		records, files, pending,
		cfg.ReconcileInterval, cfg.OrphanGracePeriod,
		logger,
	)
	reconcileSvc.Start(ctx)

	// 5. Handlers
	apiHandler := handlers.NewAPIHandler(
		handlers.NewCandidatesHandler(candidateSvc, files.MaxFileSize(), files.Usage, logger),
		handlers.NewMaintenanceHandler(reconcileSvc),
		handlers.NewHealthHandler(cfg.UploadDir),
	)

	// 6. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler)

	if err := srv.Run(ctx); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		reconcileSvc.Stop()
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")
	reconcileSvc.Stop()

	logger.Info(config.AppName + " остановлен")
}
