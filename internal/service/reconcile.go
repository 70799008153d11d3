// reconcile.go — сервис фоновой сверки (Reconciliation) файлов резюме
// с записями кандидатов.
//
// Обнаруживает проблемы:
//   - orphaned_file: файл на диске, на который не ссылается ни одна запись
//     (такой файл удаляется);
//   - missing_file: запись ссылается на отсутствующий файл (только отчёт).
//
// Свежие файлы (в кэше ожидающих вложений или моложе grace period)
// не считаются осиротевшими: запись для них может быть ещё не создана.
//
// Запускается как горутина с периодическим тикером (RC_RECONCILE_INTERVAL)
// и вручную через POST /maintenance/reconcile.
package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/resume-collector/internal/domain/model"
)

// Prometheus метрики Reconciliation
var (
	// reconcileRunsTotal — количество запусков reconciliation.
	reconcileRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rc_reconcile_runs_total",
		Help: "Общее количество запусков reconciliation",
	})

	// reconcileIssuesTotal — количество обнаруженных проблем по типу.
	reconcileIssuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rc_reconcile_issues_total",
		Help: "Общее количество проблем, обнаруженных reconciliation",
	}, []string{"type"})

	// reconcileRemovedTotal — количество удалённых осиротевших файлов.
	reconcileRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rc_reconcile_removed_files_total",
		Help: "Общее количество осиротевших файлов, удалённых reconciliation",
	})

	// reconcileDurationSeconds — длительность выполнения reconciliation.
	reconcileDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rc_reconcile_duration_seconds",
		Help:    "Длительность выполнения reconciliation в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// ReconcileService — сервис фоновой сверки вложений.
type ReconcileService struct {
	records  RecordStore
	files    AttachmentStore
	pending  *PendingAttachments
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.Mutex // защита от параллельного запуска
	inProcess bool       // reconciliation в процессе выполнения
	cancel    context.CancelFunc
}

// NewReconcileService создаёт сервис reconciliation.
// interval = 0 отключает фоновый запуск, grace — защитный интервал для свежих файлов.
func NewReconcileService(
	records RecordStore,
	files AttachmentStore,
	pending *PendingAttachments,
	interval time.Duration,
	grace time.Duration,
	logger *slog.Logger,
) *ReconcileService {
	return &ReconcileService{
		records:  records,
		files:    files,
		pending:  pending,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "reconcile")),
	}
}

// Start запускает фоновую горутину reconciliation с периодическим тикером.
func (rs *ReconcileService) Start(ctx context.Context) {
	if rs.interval <= 0 {
		rs.logger.Info("Фоновая reconciliation отключена")
		return
	}

	rsCtx, cancel := context.WithCancel(ctx)
	rs.cancel = cancel

	go rs.run(rsCtx)

	rs.logger.Info("Reconciliation запущена",
		slog.String("interval", rs.interval.String()),
		slog.String("grace_period", rs.grace.String()),
	)
}

// Stop останавливает фоновой процесс reconciliation.
func (rs *ReconcileService) Stop() {
	if rs.cancel != nil {
		rs.cancel()
	}
	rs.logger.Info("Reconciliation остановлена")
}

// IsInProgress возвращает true, если reconciliation выполняется.
func (rs *ReconcileService) IsInProgress() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.inProcess
}

// run — основной цикл фоновой горутины.
func (rs *ReconcileService) run(ctx context.Context) {
	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rs.RunOnce()
		}
	}
}

// RunOnce выполняет один цикл reconciliation.
// Потокобезопасен: если reconciliation уже выполняется, возвращает nil, true.
func (rs *ReconcileService) RunOnce() (*model.ReconcileReport, bool) {
	rs.mu.Lock()
	if rs.inProcess {
		rs.mu.Unlock()
		rs.logger.Warn("Reconciliation уже выполняется, пропуск")
		return nil, true
	}
	rs.inProcess = true
	rs.mu.Unlock()

	defer func() {
		rs.mu.Lock()
		rs.inProcess = false
		rs.mu.Unlock()
	}()

	startedAt := time.Now().UTC()
	rs.logger.Info("Reconciliation начата")

	report := rs.reconcile()

	completedAt := time.Now().UTC()
	duration := completedAt.Sub(startedAt)
	report.StartedAt = startedAt
	report.CompletedAt = completedAt

	// Обновляем Prometheus метрики
	reconcileRunsTotal.Inc()
	reconcileDurationSeconds.Observe(duration.Seconds())
	for _, issue := range report.Issues {
		reconcileIssuesTotal.WithLabelValues(issue.Type).Inc()
	}
	reconcileRemovedTotal.Add(float64(report.Summary.RemovedFiles))

	rs.logger.Info("Reconciliation завершена",
		slog.Int("files_checked", report.FilesChecked),
		slog.Int("issues", len(report.Issues)),
		slog.Int("removed", report.Summary.RemovedFiles),
		slog.Int("skipped", report.Summary.SkippedFiles),
		slog.Int("ok", report.Summary.Ok),
		slog.Duration("duration", duration),
	)

	return report, false
}

// reconcile выполняет сверку. Блокировка хранилища записей не удерживается
// во время файловых операций: ссылки берутся снимком.
func (rs *ReconcileService) reconcile() *model.ReconcileReport {
	report := &model.ReconcileReport{Issues: []model.ReconcileIssue{}}

	// Сначала файлы, затем ссылки: файл, сохранённый до листинга и
	// привязанный до снимка, попадёт в снимок.
	names, err := rs.files.List()
	if err != nil {
		rs.logger.Error("Ошибка чтения директории вложений",
			slog.String("error", err.Error()),
		)
		return report
	}
	slices.Sort(names)
	report.FilesChecked = len(names)

	refs := rs.records.AttachmentRefs()

	// 1. Файлы без записи
	var candidates []string
	for _, name := range names {
		if _, ok := refs[name]; ok {
			report.Summary.Ok++
			continue
		}
		if rs.isFresh(name) {
			report.Summary.SkippedFiles++
			continue
		}
		candidates = append(candidates, name)
	}

	if len(candidates) > 0 {
		// Повторный снимок: запись могла появиться после первого
		fresh := rs.records.AttachmentRefs()
		for _, name := range candidates {
			if _, ok := fresh[name]; ok {
				report.Summary.Ok++
				continue
			}
			report.Issues = append(report.Issues, rs.removeOrphan(name))
			report.Summary.OrphanedFiles++
			if report.Issues[len(report.Issues)-1].Removed {
				report.Summary.RemovedFiles++
			}
		}
	}

	// 2. Записи без файла
	ids := make([]int64, 0, len(refs))
	byID := make(map[int64]string, len(refs))
	for name, id := range refs {
		ids = append(ids, id)
		byID[id] = name
	}
	slices.Sort(ids)

	for _, id := range ids {
		name := byID[id]
		if rs.files.Exists(name) {
			continue
		}
		// Запись могла быть удалена вместе с файлом после снимка
		if !rs.records.Exists(id) {
			continue
		}
		candidateID := id
		report.Issues = append(report.Issues, model.ReconcileIssue{
			Type:        model.IssueMissingFile,
			StoredName:  name,
			CandidateID: &candidateID,
			Description: "Запись кандидата ссылается на отсутствующий файл",
		})
		report.Summary.MissingFiles++
		rs.logger.Warn("Файл резюме отсутствует",
			slog.Int64("id", id),
			slog.String("stored_name", name),
		)
	}

	return report
}

// isFresh — файл ожидает привязки к записи или изменён в пределах grace period.
func (rs *ReconcileService) isFresh(name string) bool {
	if rs.pending != nil && rs.pending.Contains(name) {
		return true
	}
	modTime, err := rs.files.ModTime(name)
	if err != nil {
		// Файл исчез между листингом и проверкой
		return true
	}
	return rs.now().Sub(modTime) < rs.grace
}

// removeOrphan удаляет осиротевший файл и формирует запись об issue.
func (rs *ReconcileService) removeOrphan(name string) model.ReconcileIssue {
	issue := model.ReconcileIssue{
		Type:        model.IssueOrphanedFile,
		StoredName:  name,
		Description: "Файл на диске без записи кандидата",
	}

	removed, err := rs.files.Delete(name)
	if err != nil {
		rs.logger.Error("Ошибка удаления осиротевшего файла",
			slog.String("stored_name", name),
			slog.String("error", err.Error()),
		)
		return issue
	}
	issue.Removed = removed

	rs.logger.Warn("Осиротевший файл удалён",
		slog.String("stored_name", name),
		slog.Bool("removed", removed),
	)
	return issue
}
