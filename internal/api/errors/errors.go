// Пакет errors — конструкторы стандартных ошибок API.
// Единый формат: {"error": {"code": "...", "message": "...", "detail": ...}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // TODO: переименовать пакет errors, конфликт со stdlib

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/bigkaa/resume-collector/internal/domain/model"
)

// Коды ошибок API.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInvalidFileType     = "INVALID_FILE_TYPE"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeNotFound            = "NOT_FOUND"
	CodeStorageError        = "STORAGE_ERROR"
	CodeReconcileInProgress = "RECONCILE_IN_PROGRESS"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteErrorDetail(w, statusCode, code, message, nil)
}

// WriteErrorDetail — WriteError с дополнительными сведениями об ошибке.
func WriteErrorDetail(w http.ResponseWriter, statusCode int, code, message string, detail any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
			Detail:  detail,
		},
	})
}

// WriteDomainError преобразует доменную ошибку в HTTP-ответ.
// Внутренние ошибки не раскрывают подробностей клиенту.
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *model.ValidationError
		invalidType   *model.InvalidTypeError
		tooLarge      *model.TooLargeError
	)

	switch {
	case stderrors.As(err, &validationErr):
		var detail any
		if validationErr.Field != "" {
			detail = map[string]string{"field": validationErr.Field}
		}
		WriteErrorDetail(w, http.StatusBadRequest, CodeValidationError, validationErr.Error(), detail)
	case stderrors.As(err, &invalidType):
		WriteErrorDetail(w, http.StatusBadRequest, CodeInvalidFileType, invalidType.Error(),
			map[string]any{"allowed_extensions": invalidType.Allowed})
	case stderrors.As(err, &tooLarge):
		WriteErrorDetail(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, tooLarge.Error(),
			map[string]int64{"max_bytes": tooLarge.Max})
	case stderrors.Is(err, model.ErrNotFound):
		NotFound(w, err.Error())
	case stderrors.Is(err, model.ErrStorageIO):
		WriteError(w, http.StatusInternalServerError, CodeStorageError, "Ошибка файлового хранилища")
	default:
		InternalError(w, "Внутренняя ошибка сервиса")
	}
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// FileTooLarge — 413 файл превышает лимит.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, message)
}

// ReconcileInProgress — 409 сверка уже выполняется.
func ReconcileInProgress(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeReconcileInProgress, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
