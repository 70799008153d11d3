// Пакет service — бизнес-логика сервиса приёма резюме.
// candidate.go — создание, чтение и удаление кандидатов с согласованием
// записи и файла резюме.
package service

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bigkaa/resume-collector/internal/api/middleware"
	"github.com/bigkaa/resume-collector/internal/domain/model"
)

// RecordStore — хранилище записей кандидатов.
type RecordStore interface {
	Create(fields model.CandidateFields) (model.Candidate, error)
	Get(id int64) (model.Candidate, error)
	Filter(f model.CandidateFilter) []model.Candidate
	Delete(id int64) (model.Candidate, error)
	Count() int
	Exists(id int64) bool
	AttachmentRefs() map[string]int64
}

// AttachmentStore — хранилище файлов резюме.
type AttachmentStore interface {
	Save(originalName string, size int64, reader io.Reader) (*model.Attachment, error)
	Delete(storedName string) (bool, error)
	Exists(storedName string) bool
	Open(storedName string) (*os.File, error)
	List() ([]string, error)
	ModTime(storedName string) (time.Time, error)
}

// CreateParams — параметры создания кандидата.
type CreateParams struct {
	Input CandidateInput
	// OriginalFilename — имя файла резюме от клиента
	OriginalFilename string
	// Size — заявленный размер файла (из multipart заголовка)
	Size int64
	// Reader — поток содержимого файла
	Reader io.Reader
}

// Resume — открытый файл резюме кандидата. Вызывающий код закрывает File.
type Resume struct {
	Candidate model.Candidate
	File      *os.File
	ModTime   time.Time
}

// CandidateService — сервис операций над кандидатами.
type CandidateService struct {
	records   RecordStore
	files     AttachmentStore
	pending   *PendingAttachments
	validator *Validator
	logger    *slog.Logger
}

// NewCandidateService создаёт сервис кандидатов.
func NewCandidateService(
	records RecordStore,
	files AttachmentStore,
	pending *PendingAttachments,
	validator *Validator,
	logger *slog.Logger,
) *CandidateService {
	return &CandidateService{
		records:   records,
		files:     files,
		pending:   pending,
		validator: validator,
		logger:    logger.With(slog.String("component", "candidate_service")),
	}
}

// Create создаёт кандидата с файлом резюме.
//
// Поток:
//  1. Валидация и нормализация полей
//  2. Сохранение файла (проверка типа, затем размера)
//  3. Отметка файла в кэше ожидающих вложений
//  4. Создание записи со ссылкой на файл
//
// Если запись создать не удалось, файл удаляется (best effort).
func (s *CandidateService) Create(params CreateParams) (model.Candidate, error) {
	fields, err := s.validator.ValidateCandidate(params.Input)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("create", resultLabel(err)).Inc()
		return model.Candidate{}, err
	}

	att, err := s.files.Save(params.OriginalFilename, params.Size, params.Reader)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("create", resultLabel(err)).Inc()
		if errors.Is(err, model.ErrStorageIO) {
			s.logger.Error("Ошибка сохранения файла резюме",
				slog.String("filename", params.OriginalFilename),
				slog.String("error", err.Error()),
			)
		}
		return model.Candidate{}, err
	}

	s.pending.Add(att.StoredName)
	defer s.pending.Remove(att.StoredName)

	fields.AttachmentRef = att.StoredName
	fields.AttachmentContentType = att.ContentType
	fields.AttachmentChecksum = att.Checksum

	candidate, err := s.records.Create(fields)
	if err != nil {
		s.logger.Error("Ошибка создания записи кандидата",
			slog.String("stored_name", att.StoredName),
			slog.String("error", err.Error()),
		)
		s.cleanupAttachment(att.StoredName)
		middleware.OperationsTotal.WithLabelValues("create", resultLabel(err)).Inc()
		return model.Candidate{}, err
	}

	middleware.OperationsTotal.WithLabelValues("create", "success").Inc()
	middleware.UploadedBytesTotal.Add(float64(att.Size))
	middleware.CandidatesTotal.Set(float64(s.records.Count()))

	s.logger.Info("Кандидат создан",
		slog.Int64("id", candidate.ID),
		slog.String("stored_name", att.StoredName),
		slog.String("original_name", att.OriginalName),
		slog.Int64("size", att.Size),
		slog.String("content_type", att.ContentType),
	)

	return candidate, nil
}

// cleanupAttachment удаляет файл, не привязанный к записи.
// Ошибка только логируется.
func (s *CandidateService) cleanupAttachment(storedName string) {
	if _, err := s.files.Delete(storedName); err != nil {
		middleware.CleanupFailuresTotal.Inc()
		s.logger.Warn("Не удалось удалить файл после ошибки создания записи",
			slog.String("stored_name", storedName),
			slog.String("error", err.Error()),
		)
	}
}

// Get возвращает кандидата по ID.
func (s *CandidateService) Get(id int64) (model.Candidate, error) {
	return s.records.Get(id)
}

// List возвращает кандидатов, удовлетворяющих фильтру.
// Пустой фильтр возвращает всех кандидатов.
func (s *CandidateService) List(in FilterInput) ([]model.Candidate, error) {
	filter, err := s.validator.ValidateFilter(in)
	if err != nil {
		return nil, err
	}
	return s.records.Filter(filter), nil
}

// Count возвращает количество кандидатов.
func (s *CandidateService) Count() int {
	return s.records.Count()
}

// Delete удаляет кандидата, затем его файл резюме.
// Отсутствие файла или ошибка его удаления не делают операцию неуспешной:
// запись уже удалена, оставшийся файл уберёт сверка.
func (s *CandidateService) Delete(id int64) (model.Candidate, error) {
	candidate, err := s.records.Delete(id)
	if err != nil {
		middleware.OperationsTotal.WithLabelValues("delete", resultLabel(err)).Inc()
		return model.Candidate{}, err
	}
	middleware.CandidatesTotal.Set(float64(s.records.Count()))

	removed, err := s.files.Delete(candidate.AttachmentRef)
	switch {
	case err != nil:
		s.logger.Error("Ошибка удаления файла резюме",
			slog.Int64("id", id),
			slog.String("stored_name", candidate.AttachmentRef),
			slog.String("error", err.Error()),
		)
	case !removed:
		s.logger.Warn("Файл резюме уже отсутствовал",
			slog.Int64("id", id),
			slog.String("stored_name", candidate.AttachmentRef),
		)
	}

	middleware.OperationsTotal.WithLabelValues("delete", "success").Inc()
	s.logger.Info("Кандидат удалён",
		slog.Int64("id", id),
		slog.String("stored_name", candidate.AttachmentRef),
	)

	return candidate, nil
}

// OpenResume открывает файл резюме кандидата.
// Возвращает *model.NotFoundError, если записи нет, и
// *model.AttachmentMissingError, если файл удалён вне сервиса.
func (s *CandidateService) OpenResume(id int64) (*Resume, error) {
	candidate, err := s.records.Get(id)
	if err != nil {
		return nil, err
	}

	f, err := s.files.Open(candidate.AttachmentRef)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Файл резюме отсутствует на диске",
				slog.Int64("id", id),
				slog.String("stored_name", candidate.AttachmentRef),
			)
			return nil, &model.AttachmentMissingError{CandidateID: id, StoredName: candidate.AttachmentRef}
		}
		return nil, &model.StorageError{Op: "открытия файла", Name: candidate.AttachmentRef, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &model.StorageError{Op: "чтения атрибутов файла", Name: candidate.AttachmentRef, Err: err}
	}

	return &Resume{Candidate: candidate, File: f, ModTime: info.ModTime()}, nil
}

// resultLabel возвращает значение лейбла result для метрик по ошибке.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, model.ErrValidation):
		return "validation_error"
	case errors.Is(err, model.ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, model.ErrTooLarge):
		return "too_large"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrStorageIO):
		return "storage_error"
	default:
		return "internal_error"
	}
}
