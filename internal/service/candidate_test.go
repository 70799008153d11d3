package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/resume-collector/internal/domain/model"
	"github.com/bigkaa/resume-collector/internal/storage/filestore"
	"github.com/bigkaa/resume-collector/internal/storage/recordstore"
)

const testMaxFileSize = 1024

// testLogger возвращает логгер, пропускающий всё ниже ERROR.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEnv — окружение для тестов сервисов.
type testEnv struct {
	dir     string
	records *recordstore.Store
	files   *filestore.FileStore
	pending *PendingAttachments
	svc     *CandidateService
}

// setupTestEnv создаёт хранилища во временной директории и сервис кандидатов.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	files, err := filestore.New(dir, []string{".pdf", ".doc", ".docx"}, testMaxFileSize)
	if err != nil {
		t.Fatalf("Ошибка создания FileStore: %v", err)
	}
	records := recordstore.New()
	pending := NewPendingAttachments(100, time.Minute)

	return &testEnv{
		dir:     dir,
		records: records,
		files:   files,
		pending: pending,
		svc:     NewCandidateService(records, files, pending, fixedValidator(), testLogger()),
	}
}

// createParams возвращает параметры создания с файлом заданного содержимого.
func createParams(filename, content string) CreateParams {
	return CreateParams{
		Input:            validInput(),
		OriginalFilename: filename,
		Size:             int64(len(content)),
		Reader:           strings.NewReader(content),
	}
}

// failingRecords — хранилище записей, в котором Create всегда падает.
type failingRecords struct {
	*recordstore.Store
}

func (failingRecords) Create(model.CandidateFields) (model.Candidate, error) {
	return model.Candidate{}, fmt.Errorf("счётчик исчерпан: %w", model.ErrInternal)
}

func TestCreate_Success(t *testing.T) {
	env := setupTestEnv(t)

	c, err := env.svc.Create(createParams("resume.PDF", "%PDF-1.4 test resume"))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if c.ID != 1 {
		t.Errorf("ID: ожидалось 1, получено %d", c.ID)
	}
	if c.ContactNumber != "+79123456789" {
		t.Errorf("ContactNumber: ожидался очищенный номер, получено %q", c.ContactNumber)
	}
	if !strings.HasSuffix(c.AttachmentRef, ".pdf") {
		t.Errorf("AttachmentRef: ожидалось расширение .pdf, получено %q", c.AttachmentRef)
	}
	if !env.files.Exists(c.AttachmentRef) {
		t.Error("файл резюме должен существовать")
	}
	if c.AttachmentChecksum == "" || c.AttachmentContentType == "" {
		t.Errorf("checksum и content type должны быть заполнены: %+v", c)
	}
	if env.pending.Contains(c.AttachmentRef) {
		t.Error("отметка ожидания должна быть снята после создания записи")
	}

	got, err := env.svc.Get(c.ID)
	if err != nil {
		t.Fatalf("Get: неожиданная ошибка: %v", err)
	}
	if got.AttachmentRef != c.AttachmentRef || got.FullName != c.FullName {
		t.Errorf("Get вернул другую запись: %+v", got)
	}
}

func TestCreate_ValidationErrorSavesNothing(t *testing.T) {
	env := setupTestEnv(t)

	params := createParams("resume.pdf", "data")
	params.Input.FullName = "X"

	_, err := env.svc.Create(params)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("ожидалась ошибка валидации, получено %v", err)
	}

	names, _ := env.files.List()
	if len(names) != 0 {
		t.Errorf("файлы не должны сохраняться: %v", names)
	}
	if env.svc.Count() != 0 {
		t.Errorf("Count: ожидалось 0, получено %d", env.svc.Count())
	}
}

func TestCreate_InvalidType(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.svc.Create(createParams("resume.exe", "MZ"))
	if !errors.Is(err, model.ErrInvalidType) {
		t.Fatalf("ожидалась ErrInvalidType, получено %v", err)
	}
	if env.svc.Count() != 0 {
		t.Errorf("запись не должна создаваться")
	}
}

func TestCreate_TooLarge(t *testing.T) {
	env := setupTestEnv(t)

	content := strings.Repeat("x", testMaxFileSize+1)
	params := createParams("resume.pdf", content)
	params.Size = 10 // заявленный размер занижен

	_, err := env.svc.Create(params)
	if !errors.Is(err, model.ErrTooLarge) {
		t.Fatalf("ожидалась ErrTooLarge, получено %v", err)
	}

	names, _ := env.files.List()
	if len(names) != 0 {
		t.Errorf("частично записанный файл не должен оставаться: %v", names)
	}
}

func TestCreate_RecordFailureRemovesAttachment(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewCandidateService(failingRecords{env.records}, env.files, env.pending, fixedValidator(), testLogger())

	_, err := svc.Create(createParams("resume.pdf", "content"))
	if !errors.Is(err, model.ErrInternal) {
		t.Fatalf("ожидалась ErrInternal, получено %v", err)
	}

	names, _ := env.files.List()
	if len(names) != 0 {
		t.Errorf("сохранённый файл должен быть удалён: %v", names)
	}
	if env.pending.Len() != 0 {
		t.Errorf("кэш ожидания должен быть пуст, получено %d", env.pending.Len())
	}
}

func TestDelete_RemovesRecordAndAttachment(t *testing.T) {
	env := setupTestEnv(t)

	c, err := env.svc.Create(createParams("resume.docx", "docx content"))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	deleted, err := env.svc.Delete(c.ID)
	if err != nil {
		t.Fatalf("Delete: неожиданная ошибка: %v", err)
	}
	if deleted.ID != c.ID || deleted.FullName != c.FullName {
		t.Errorf("Delete вернул другую запись: %+v", deleted)
	}

	if env.files.Exists(c.AttachmentRef) {
		t.Error("файл резюме должен быть удалён")
	}
	if _, err := env.svc.Get(c.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Get после удаления: ожидалась ErrNotFound, получено %v", err)
	}
}

func TestDelete_MissingAttachmentIsNotError(t *testing.T) {
	env := setupTestEnv(t)

	c, err := env.svc.Create(createParams("resume.pdf", "content"))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if err := os.Remove(filepath.Join(env.dir, c.AttachmentRef)); err != nil {
		t.Fatalf("Ошибка удаления файла: %v", err)
	}

	if _, err := env.svc.Delete(c.ID); err != nil {
		t.Errorf("Delete: отсутствие файла не должно быть ошибкой, получено %v", err)
	}
	if env.svc.Count() != 0 {
		t.Errorf("Count: ожидалось 0, получено %d", env.svc.Count())
	}
}

func TestDelete_NotFound(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.svc.Delete(42)
	var nf *model.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 42 {
		t.Errorf("ожидалась NotFoundError{42}, получено %v", err)
	}
}

func TestList_Filter(t *testing.T) {
	env := setupTestEnv(t)

	p1 := createParams("a.pdf", "a")
	p1.Input.Skills = []string{"Python", "Django"}
	p1.Input.YearsOfExperience = 2
	p2 := createParams("b.pdf", "b")
	p2.Input.Skills = []string{"Go"}
	p2.Input.YearsOfExperience = 8

	for _, p := range []CreateParams{p1, p2} {
		if _, err := env.svc.Create(p); err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
	}

	all, err := env.svc.List(FilterInput{})
	if err != nil || len(all) != 2 {
		t.Fatalf("List: ожидалось 2 записи, получено %d, %v", len(all), err)
	}

	got, err := env.svc.List(FilterInput{Skill: "PYTH"})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Errorf("фильтр по навыку: ожидался кандидат 1, получено %+v", got)
	}

	minExp := 5.0
	got, _ = env.svc.List(FilterInput{MinExperience: &minExp})
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("фильтр по опыту: ожидался кандидат 2, получено %+v", got)
	}

	maxExp := 1.0
	if _, err := env.svc.List(FilterInput{MinExperience: &minExp, MaxExperience: &maxExp}); !errors.Is(err, model.ErrValidation) {
		t.Errorf("ожидалась ошибка валидации фильтра, получено %v", err)
	}
}

func TestOpenResume(t *testing.T) {
	env := setupTestEnv(t)

	c, err := env.svc.Create(createParams("resume.pdf", "resume body"))
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	resume, err := env.svc.OpenResume(c.ID)
	if err != nil {
		t.Fatalf("OpenResume: неожиданная ошибка: %v", err)
	}
	data, err := io.ReadAll(resume.File)
	resume.File.Close()
	if err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if string(data) != "resume body" {
		t.Errorf("содержимое: получено %q", data)
	}
	if resume.ModTime.IsZero() {
		t.Error("ModTime должен быть заполнен")
	}

	if _, err := env.svc.OpenResume(999); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("несуществующий кандидат: ожидалась ErrNotFound, получено %v", err)
	}

	if err := os.Remove(filepath.Join(env.dir, c.AttachmentRef)); err != nil {
		t.Fatalf("Ошибка удаления файла: %v", err)
	}
	_, err = env.svc.OpenResume(c.ID)
	if !errors.Is(err, model.ErrAttachmentMissing) || !errors.Is(err, model.ErrNotFound) {
		t.Errorf("удалённый файл: ожидалась ErrAttachmentMissing, получено %v", err)
	}
}

func TestCreate_Concurrent(t *testing.T) {
	env := setupTestEnv(t)

	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Create(createParams(fmt.Sprintf("resume-%d.pdf", i), "content"))
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("неожиданная ошибка: %v", err)
	}
	if env.svc.Count() != n {
		t.Errorf("Count: ожидалось %d, получено %d", n, env.svc.Count())
	}
	names, _ := env.files.List()
	if len(names) != n {
		t.Errorf("файлов: ожидалось %d, получено %d", n, len(names))
	}
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{&model.ValidationError{Field: "x"}, "validation_error"},
		{&model.InvalidTypeError{OriginalName: "a.exe"}, "invalid_type"},
		{&model.TooLargeError{}, "too_large"},
		{&model.NotFoundError{ID: 1}, "not_found"},
		{&model.StorageError{Op: "записи", Err: io.ErrShortWrite}, "storage_error"},
		{errors.New("boom"), "internal_error"},
	}
	for _, tt := range tests {
		if got := resultLabel(tt.err); got != tt.want {
			t.Errorf("resultLabel(%v): ожидалось %q, получено %q", tt.err, tt.want, got)
		}
	}
}
