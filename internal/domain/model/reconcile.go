package model

import "time"

// Типы проблем, обнаруживаемых сверкой вложений.
const (
	// IssueOrphanedFile — файл на диске, на который не ссылается ни одна запись.
	IssueOrphanedFile = "orphaned_file"
	// IssueMissingFile — запись ссылается на отсутствующий файл.
	IssueMissingFile = "missing_file"
)

// ReconcileIssue — одна обнаруженная проблема.
type ReconcileIssue struct {
	Type        string `json:"type"`
	StoredName  string `json:"stored_name"`
	CandidateID *int64 `json:"candidate_id,omitempty"`
	// Removed — осиротевший файл удалён в ходе сверки
	Removed     bool   `json:"removed"`
	Description string `json:"description"`
}

// ReconcileSummary — сводка по результатам сверки.
type ReconcileSummary struct {
	Ok            int `json:"ok"`
	OrphanedFiles int `json:"orphaned_files"`
	RemovedFiles  int `json:"removed_files"`
	MissingFiles  int `json:"missing_files"`
	// SkippedFiles — свежие файлы, ещё не привязанные к записи
	SkippedFiles int `json:"skipped_files"`
}

// ReconcileReport — результат одного прохода сверки.
type ReconcileReport struct {
	StartedAt    time.Time        `json:"started_at"`
	CompletedAt  time.Time        `json:"completed_at"`
	FilesChecked int              `json:"files_checked"`
	Issues       []ReconcileIssue `json:"issues"`
	Summary      ReconcileSummary `json:"summary"`
}
