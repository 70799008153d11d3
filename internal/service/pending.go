// pending.go — кэш вложений, сохранённых на диск, но ещё не привязанных
// к записи кандидата. Сверка не трогает такие файлы.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PendingAttachments — множество имён вложений с ограниченным временем жизни.
// Запись вытесняется по TTL или при переполнении (LRU).
type PendingAttachments struct {
	cache *expirable.LRU[string, time.Time]
}

// NewPendingAttachments создаёт кэш ёмкостью size с временем жизни ttl.
func NewPendingAttachments(size int, ttl time.Duration) *PendingAttachments {
	return &PendingAttachments{
		cache: expirable.NewLRU[string, time.Time](size, nil, ttl),
	}
}

// Add отмечает вложение как ожидающее привязки.
func (p *PendingAttachments) Add(storedName string) {
	p.cache.Add(storedName, time.Now())
}

// Remove снимает отметку.
func (p *PendingAttachments) Remove(storedName string) {
	p.cache.Remove(storedName)
}

// Contains проверяет, ожидает ли вложение привязки.
// Peek учитывает TTL, не дожидаясь фоновой очистки кэша.
func (p *PendingAttachments) Contains(storedName string) bool {
	_, ok := p.cache.Peek(storedName)
	return ok
}

// Len возвращает количество отмеченных вложений.
func (p *PendingAttachments) Len() int {
	return p.cache.Len()
}
