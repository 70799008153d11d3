// candidates.go — HTTP handlers операций над кандидатами.
// Create (multipart), List (фильтры), Get, Delete, Resume download, Stats.
package handlers

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/resume-collector/internal/api/errors"
	"github.com/bigkaa/resume-collector/internal/domain/model"
	"github.com/bigkaa/resume-collector/internal/service"
	"github.com/bigkaa/resume-collector/internal/storage/filestore"
)

const (
	// multipartOverhead — запас к лимиту файла на остальные поля формы.
	multipartOverhead = 1 << 20
	// multipartMemory — объём формы, хранимый в памяти; остальное во временных файлах.
	multipartMemory = 8 << 20
)

// requestBodyLimit — лимит тела multipart-запроса: файл плюс запас на поля.
// При переполнении int64 насыщается до math.MaxInt64.
func requestBodyLimit(maxFileSize int64) int64 {
	if maxFileSize > math.MaxInt64-multipartOverhead {
		return math.MaxInt64
	}
	return maxFileSize + multipartOverhead
}

// StorageUsageFunc возвращает заполненность хранилища вложений.
type StorageUsageFunc func() (filestore.Usage, error)

// CandidatesHandler — обработчик endpoints кандидатов.
type CandidatesHandler struct {
	svc         *service.CandidateService
	maxFileSize int64
	usage       StorageUsageFunc
	logger      *slog.Logger
}

// NewCandidatesHandler создаёт обработчик endpoints кандидатов.
// usage может быть nil — тогда статистика хранилища не выводится.
func NewCandidatesHandler(
	svc *service.CandidateService,
	maxFileSize int64,
	usage StorageUsageFunc,
	logger *slog.Logger,
) *CandidatesHandler {
	return &CandidatesHandler{
		svc:         svc,
		maxFileSize: maxFileSize,
		usage:       usage,
		logger:      logger.With(slog.String("component", "candidates_handler")),
	}
}

// deleteResponse — ответ на удаление кандидата.
type deleteResponse struct {
	Message          string           `json:"message"`
	DeletedCandidate deletedCandidate `json:"deleted_candidate"`
}

type deletedCandidate struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// statsResponse — ответ GET /candidates/stats.
type statsResponse struct {
	TotalCandidates int           `json:"total_candidates"`
	Storage         *storageStats `json:"storage,omitempty"`
}

type storageStats struct {
	TotalBytes      int64 `json:"total_bytes"`
	UsedBytes       int64 `json:"used_bytes"`
	AvailableBytes  int64 `json:"available_bytes"`
	ResumeFiles     int   `json:"resume_files"`
	ResumeFileBytes int64 `json:"resume_file_bytes"`
}

// CreateCandidate обрабатывает POST /candidates.
// Multipart form: поля кандидата, skill_set через запятую, resume (файл).
func (h *CandidatesHandler) CreateCandidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, requestBodyLimit(h.maxFileSize))

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			errors.FileTooLarge(w, fmt.Sprintf("Размер запроса превышает лимит %d байт", maxErr.Limit))
			return
		}
		errors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("resume")
	if err != nil {
		errors.ValidationError(w, "Поле 'resume' обязательно")
		return
	}
	defer file.Close()

	gradYear, err := strconv.Atoi(strings.TrimSpace(r.FormValue("graduation_year")))
	if err != nil {
		errors.WriteDomainError(w, &model.ValidationError{Field: "graduation_year", Message: "ожидается целое число"})
		return
	}
	experience, err := parseFloat(r.FormValue("years_of_experience"))
	if err != nil {
		errors.WriteDomainError(w, &model.ValidationError{Field: "years_of_experience", Message: "ожидается число"})
		return
	}

	candidate, err := h.svc.Create(service.CreateParams{
		Input: service.CandidateInput{
			FullName:          r.FormValue("full_name"),
			DateOfBirth:       r.FormValue("dob"),
			ContactNumber:     r.FormValue("contact_number"),
			ContactAddress:    r.FormValue("contact_address"),
			Education:         r.FormValue("education_qualification"),
			GraduationYear:    gradYear,
			YearsOfExperience: experience,
			Skills:            service.SplitSkills(r.FormValue("skill_set")),
		},
		OriginalFilename: header.Filename,
		Size:             header.Size,
		Reader:           file,
	})
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, candidate)
}

// ListCandidates обрабатывает GET /candidates.
// Query: skill, min_experience, max_experience, graduation_year.
func (h *CandidatesHandler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := service.FilterInput{Skill: q.Get("skill")}

	if raw := q.Get("min_experience"); raw != "" {
		v, err := parseFloat(raw)
		if err != nil {
			errors.WriteDomainError(w, &model.ValidationError{Field: "min_experience", Message: "ожидается число"})
			return
		}
		in.MinExperience = &v
	}
	if raw := q.Get("max_experience"); raw != "" {
		v, err := parseFloat(raw)
		if err != nil {
			errors.WriteDomainError(w, &model.ValidationError{Field: "max_experience", Message: "ожидается число"})
			return
		}
		in.MaxExperience = &v
	}
	if raw := q.Get("graduation_year"); raw != "" {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			errors.WriteDomainError(w, &model.ValidationError{Field: "graduation_year", Message: "ожидается целое число"})
			return
		}
		in.GraduationYear = &v
	}

	candidates, err := h.svc.List(in)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidates)
}

// GetCandidate обрабатывает GET /candidates/{id}.
func (h *CandidatesHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	candidate, err := h.svc.Get(id)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidate)
}

// DeleteCandidate обрабатывает DELETE /candidates/{id}.
func (h *CandidatesHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	candidate, err := h.svc.Delete(id)
	if err != nil {
		errors.WriteDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Message: fmt.Sprintf("Candidate %d deleted successfully", candidate.ID),
		DeletedCandidate: deletedCandidate{
			ID:       candidate.ID,
			FullName: candidate.FullName,
		},
	})
}

// DownloadResume обрабатывает GET /candidates/{id}/resume.
// Поддерживает Range requests (206) и ETag (If-None-Match → 304) через http.ServeContent.
func (h *CandidatesHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	resume, err := h.svc.OpenResume(id)
	if err != nil {
		if stderrors.Is(err, model.ErrAttachmentMissing) {
			errors.NotFound(w, fmt.Sprintf("Файл резюме кандидата %d не найден", id))
			return
		}
		errors.WriteDomainError(w, err)
		return
	}
	defer resume.File.Close()

	c := resume.Candidate
	if c.AttachmentContentType != "" {
		w.Header().Set("Content-Type", c.AttachmentContentType)
	}
	if c.AttachmentChecksum != "" {
		w.Header().Set("ETag", `"`+c.AttachmentChecksum+`"`)
	}
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": c.AttachmentRef}))

	http.ServeContent(w, r, c.AttachmentRef, resume.ModTime, resume.File)
}

// GetStats обрабатывает GET /candidates/stats.
func (h *CandidatesHandler) GetStats(w http.ResponseWriter, _ *http.Request) {
	resp := statsResponse{TotalCandidates: h.svc.Count()}

	if h.usage != nil {
		u, err := h.usage()
		if err != nil {
			h.logger.Warn("Ошибка получения заполненности хранилища", slog.String("error", err.Error()))
		} else {
			resp.Storage = &storageStats{
				TotalBytes:      u.TotalBytes,
				UsedBytes:       u.UsedBytes,
				AvailableBytes:  u.AvailableBytes,
				ResumeFiles:     u.Attachments,
				ResumeFileBytes: u.AttachmentBytes,
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseID извлекает {id} из пути. При ошибке пишет 400 и возвращает false.
func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		errors.WriteDomainError(w, &model.ValidationError{
			Field:   "id",
			Message: fmt.Sprintf("ожидается целое число, получено %q", raw),
		})
		return 0, false
	}
	return id, true
}

// parseFloat разбирает конечное число с плавающей точкой.
func parseFloat(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("недопустимое значение %q", raw)
	}
	return v, nil
}
