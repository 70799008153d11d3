// usage.go — заполненность хранилища вложений.
// Платформозависимый код для Unix-подобных систем (statfs).
package filestore

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/bigkaa/resume-collector/internal/domain/model"
)

// Usage — ёмкость тома директории вложений и объём самих вложений.
type Usage struct {
	TotalBytes int64
	UsedBytes  int64
	// AvailableBytes — доступно непривилегированному процессу
	AvailableBytes  int64
	Attachments     int
	AttachmentBytes int64
}

// Usage возвращает ёмкость тома и суммарный размер опубликованных вложений.
// Временные файлы незавершённых загрузок не учитываются.
func (fs *FileStore) Usage() (Usage, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(fs.dir, &stat); err != nil {
		return Usage{}, &model.StorageError{Op: "statfs", Name: fs.dir, Err: err}
	}

	bsize := int64(stat.Bsize)
	u := Usage{
		TotalBytes:     int64(stat.Blocks) * bsize,
		UsedBytes:      int64(stat.Blocks-stat.Bfree) * bsize,
		AvailableBytes: int64(stat.Bavail) * bsize,
	}

	names, err := fs.List()
	if err != nil {
		return Usage{}, err
	}
	for _, name := range names {
		info, err := os.Stat(filepath.Join(fs.dir, name))
		if err != nil {
			// удалён между List и Stat
			continue
		}
		u.Attachments++
		u.AttachmentBytes += info.Size()
	}
	return u, nil
}
