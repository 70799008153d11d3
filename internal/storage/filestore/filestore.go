// Пакет filestore — хранилище вложений (файлов резюме) на диске.
// Валидирует расширение и размер, генерирует имя файла независимо
// от имени клиента и записывает данные через temp файл с атомарным rename.
// Имя на диске: {uuid без дефисов}{расширение в нижнем регистре}.
package filestore

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/bigkaa/resume-collector/internal/domain/model"
)

// DefaultMaxFileSize — лимит размера вложения по умолчанию (10 MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// MaxFileSizeLimit — верхняя граница настраиваемого лимита (1 TiB).
// Лимит вместе с запасом на multipart-обёртку и лишним байтом
// контроля превышения должен помещаться в int64.
const MaxFileSizeLimit int64 = 1 << 40

// tmpSuffix — суффикс временных файлов, не видимых для поиска по имени.
const tmpSuffix = ".tmp"

// sniffLen — количество байт для определения MIME-типа по содержимому.
const sniffLen = 3072

// FileStore — управление файлами вложений на диске.
type FileStore struct {
	// dir — корневая директория вложений
	dir string
	// allowed — допустимые расширения (нижний регистр, с точкой)
	allowed []string
	// maxSize — максимальный размер файла в байтах
	maxSize int64
}

// New создаёт FileStore. Создаёт директорию, если она не существует.
// allowedExtensions нормализуются: нижний регистр, ведущая точка.
func New(dir string, allowedExtensions []string, maxSize int64) (*FileStore, error) {
	if maxSize <= 0 || maxSize > MaxFileSizeLimit {
		return nil, fmt.Errorf("максимальный размер файла должен быть в диапазоне 1-%d, получено %d",
			MaxFileSizeLimit, maxSize)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию вложений %s: %w", dir, err)
	}

	return &FileStore{
		dir:     dir,
		allowed: NormalizeExtensions(allowedExtensions),
		maxSize: maxSize,
	}, nil
}

// NormalizeExtensions приводит расширения к виду ".ext" в нижнем регистре,
// убирая пустые значения и дубликаты.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

// ValidateType проверяет расширение имени файла по списку допустимых.
// Сравнение без учёта регистра. Файл без расширения недопустим.
func (fs *FileStore) ValidateType(originalName string) error {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" || !slices.Contains(fs.allowed, ext) {
		return &model.InvalidTypeError{
			OriginalName: originalName,
			Allowed:      slices.Clone(fs.allowed),
		}
	}
	return nil
}

// ValidateSize проверяет размер файла по лимиту.
func (fs *FileStore) ValidateSize(originalName string, size int64) error {
	if size > fs.maxSize {
		return &model.TooLargeError{
			OriginalName: originalName,
			Size:         size,
			Max:          fs.maxSize,
		}
	}
	return nil
}

// Save валидирует и записывает вложение.
// Порядок проверок: сначала тип, затем размер. size — размер, известный
// вызывающему коду (-1, если неизвестен); окончательная проверка выполняется
// по фактически прочитанным байтам.
//
// Паттерн: temp файл → запись + SHA-256 → fsync → atomic rename.
// При любой ошибке temp файл удаляется, частично записанный файл
// никогда не становится видимым.
func (fs *FileStore) Save(originalName string, size int64, reader io.Reader) (*model.Attachment, error) {
	if err := fs.ValidateType(originalName); err != nil {
		return nil, err
	}
	if err := fs.ValidateSize(originalName, size); err != nil {
		return nil, err
	}

	storedName := generateStoredName(originalName)
	fullPath := filepath.Join(fs.dir, storedName)
	tmpPath := fullPath + tmpSuffix

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, &model.StorageError{Op: "создания временного файла", Name: storedName, Err: err}
	}

	cleanup := func() {
		f.Close()
		os.Remove(tmpPath)
	}

	// Определяем MIME-тип по первым байтам, не теряя их для записи
	buffered := bufio.NewReaderSize(reader, sniffLen)
	head, err := buffered.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		cleanup()
		return nil, &model.StorageError{Op: "чтения данных", Name: storedName, Err: err}
	}
	contentType := mimetype.Detect(head).String()

	// Читаем не больше maxSize+1 байт: лишний байт означает превышение лимита
	hasher := sha256.New()
	limited := io.LimitReader(buffered, fs.maxSize+1)
	written, err := io.Copy(f, io.TeeReader(limited, hasher))
	if err != nil {
		cleanup()
		return nil, &model.StorageError{Op: "записи данных", Name: storedName, Err: err}
	}
	if written > fs.maxSize {
		cleanup()
		actual := written
		if size > actual {
			actual = size
		}
		return nil, &model.TooLargeError{OriginalName: originalName, Size: actual, Max: fs.maxSize}
	}

	// fsync для гарантии записи на диск
	if err := f.Sync(); err != nil {
		cleanup()
		return nil, &model.StorageError{Op: "fsync", Name: storedName, Err: err}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, &model.StorageError{Op: "закрытия файла", Name: storedName, Err: err}
	}

	// Атомарный rename
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, &model.StorageError{Op: "атомарного переименования", Name: storedName, Err: err}
	}

	return &model.Attachment{
		StoredName:   storedName,
		OriginalName: originalName,
		Size:         written,
		ContentType:  contentType,
		Checksum:     hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Delete удаляет файл. Возвращает true, если файл был удалён,
// false — если его не было. Отсутствие файла не является ошибкой.
func (fs *FileStore) Delete(storedName string) (bool, error) {
	fullPath, ok := fs.resolve(storedName)
	if !ok {
		return false, nil
	}

	err := os.Remove(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &model.StorageError{Op: "удаления файла", Name: storedName, Err: err}
	}
	return true, nil
}

// Exists проверяет существование файла вложения.
func (fs *FileStore) Exists(storedName string) bool {
	_, ok := fs.PathOf(storedName)
	return ok
}

// PathOf возвращает абсолютный путь к существующему файлу вложения.
func (fs *FileStore) PathOf(storedName string) (string, bool) {
	fullPath, ok := fs.resolve(storedName)
	if !ok {
		return "", false
	}
	info, err := os.Stat(fullPath)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return fullPath, true
}

// ModTime возвращает время последнего изменения файла вложения.
func (fs *FileStore) ModTime(storedName string) (time.Time, error) {
	fullPath, ok := fs.resolve(storedName)
	if !ok {
		return time.Time{}, fmt.Errorf("недопустимое имя вложения %q: %w", storedName, os.ErrNotExist)
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Open открывает файл вложения для чтения. Вызывающий код обязан закрыть файл.
func (fs *FileStore) Open(storedName string) (*os.File, error) {
	fullPath, ok := fs.resolve(storedName)
	if !ok {
		return nil, fmt.Errorf("недопустимое имя вложения %q: %w", storedName, os.ErrNotExist)
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия вложения %s: %w", storedName, err)
	}
	return f, nil
}

// List возвращает имена всех опубликованных вложений.
// Служебные (с точкой в начале) и временные файлы пропускаются.
func (fs *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, &model.StorageError{Op: "чтения директории", Name: fs.dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Dir возвращает путь к директории вложений.
func (fs *FileStore) Dir() string {
	return fs.dir
}

// AllowedExtensions возвращает копию списка допустимых расширений.
func (fs *FileStore) AllowedExtensions() []string {
	return slices.Clone(fs.allowed)
}

// MaxFileSize возвращает лимит размера файла.
func (fs *FileStore) MaxFileSize() int64 {
	return fs.maxSize
}

// resolve превращает имя вложения в путь внутри dir.
// Имена с разделителями пути, "..", временные и служебные имена отклоняются.
func (fs *FileStore) resolve(storedName string) (string, bool) {
	if storedName == "" || storedName != filepath.Base(storedName) ||
		strings.ContainsAny(storedName, `/\`) ||
		strings.HasPrefix(storedName, ".") || strings.HasSuffix(storedName, tmpSuffix) {
		return "", false
	}
	return filepath.Join(fs.dir, storedName), true
}

// generateStoredName генерирует имя файла на диске.
// От оригинального имени берётся только расширение.
// Пример: 3f2a9c0e4b1d4e6f8a7b5c3d2e1f0a9b.pdf
func generateStoredName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}
