// errors.go — таксономия ошибок ядра.
package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound — запись с указанным id отсутствует.
	ErrNotFound = errors.New("запись не найдена")
	// ErrInvalidType — расширение файла не входит в список допустимых.
	ErrInvalidType = errors.New("недопустимый тип файла")
	// ErrTooLarge — размер файла превышает лимит.
	ErrTooLarge = errors.New("размер файла превышает лимит")
	// ErrStorageIO — ошибка записи или удаления на диске.
	ErrStorageIO = errors.New("ошибка хранилища файлов")
	// ErrInternal — непредвиденная внутренняя ошибка.
	ErrInternal = errors.New("внутренняя ошибка")
	// ErrValidation — некорректные входные данные.
	ErrValidation = errors.New("ошибка валидации")
)

// NotFoundError — запись кандидата не найдена.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("кандидат с ID %d не найден", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidTypeError — расширение файла не разрешено.
type InvalidTypeError struct {
	OriginalName string
	Allowed      []string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("недопустимый тип файла %q, допустимые: %s", e.OriginalName, strings.Join(e.Allowed, ", "))
}

func (e *InvalidTypeError) Is(target error) bool { return target == ErrInvalidType }

// TooLargeError — размер файла больше лимита.
type TooLargeError struct {
	OriginalName string
	Size         int64
	Max          int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("размер файла %q (%.2f MB) превышает максимум %.2f MB",
		e.OriginalName, float64(e.Size)/(1<<20), float64(e.Max)/(1<<20))
}

func (e *TooLargeError) Is(target error) bool { return target == ErrTooLarge }

// StorageError — ошибка файловой операции.
type StorageError struct {
	Op   string
	Name string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ошибка %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageIO }

// ValidationError — ошибка валидации поля запроса.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ErrAttachmentMissing — запись есть, но файл резюме отсутствует на диске.
var ErrAttachmentMissing = errors.New("файл резюме отсутствует")

// AttachmentMissingError — файл записи удалён вне сервиса.
// Для вызывающего это разновидность NotFound.
type AttachmentMissingError struct {
	CandidateID int64
	StoredName  string
}

func (e *AttachmentMissingError) Error() string {
	return fmt.Sprintf("файл резюме %s кандидата %d отсутствует", e.StoredName, e.CandidateID)
}

func (e *AttachmentMissingError) Is(target error) bool {
	return target == ErrAttachmentMissing || target == ErrNotFound
}
