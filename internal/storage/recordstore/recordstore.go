// Пакет recordstore — потокобезопасное in-memory хранилище записей кандидатов.
//
// Все операции, включая чтение, выполняются под одним sync.Mutex:
// читатель никогда не видит частично применённую запись.
// Под блокировкой не выполняется никакой ввод-вывод.
// Записи копируются на входе и на выходе, поэтому изменения
// возвращённых значений не влияют на хранилище и наоборот.
//
// Не персистентное: при рестарте процесса данные теряются.
package recordstore

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/bigkaa/resume-collector/internal/domain/model"
)

// Store — таблица записей кандидатов с монотонным счётчиком id.
type Store struct {
	mu      sync.Mutex
	records map[int64]model.Candidate // id → запись
	nextID  int64
	now     func() time.Time
}

// New создаёт пустое хранилище. Первый выданный id равен 1.
func New() *Store {
	return &Store{
		records: make(map[int64]model.Candidate),
		nextID:  1,
		now:     time.Now,
	}
}

// Create назначает следующий id, проставляет CreatedAt и сохраняет копию записи.
// Id генерируется под той же блокировкой, что и вставка.
func (s *Store) Create(fields model.CandidateFields) (model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextID == math.MaxInt64 {
		return model.Candidate{}, fmt.Errorf("%w: счётчик id исчерпан", model.ErrInternal)
	}

	id := s.nextID
	s.nextID++

	rec := model.NewCandidate(id, fields, s.now().UTC())
	s.records[id] = rec

	return rec.Clone(), nil
}

// Get возвращает копию записи по id.
func (s *Store) Get(id int64) (model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return model.Candidate{}, &model.NotFoundError{ID: id}
	}
	return rec.Clone(), nil
}

// List возвращает копии всех записей в порядке создания.
func (s *Store) List() []model.Candidate {
	return s.Filter(model.CandidateFilter{})
}

// Filter возвращает копии записей, удовлетворяющих всем заданным условиям.
// Пустой фильтр эквивалентен List. Отсутствие совпадений — пустой срез, не ошибка.
func (s *Store) Filter(f model.CandidateFilter) []model.Candidate {
	var skill string
	if f.Skill != "" {
		skill = cases.Fold().String(f.Skill)
	}

	all := f.IsEmpty()

	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Candidate, 0, len(s.records))
	for _, id := range s.sortedIDs() {
		rec := s.records[id]
		if !all && !matches(rec, f, skill) {
			continue
		}
		result = append(result, rec.Clone())
	}
	return result
}

// Delete атомарно удаляет запись и возвращает её, чтобы вызывающий код
// мог удалить связанное вложение.
func (s *Store) Delete(id int64) (model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return model.Candidate{}, &model.NotFoundError{ID: id}
	}
	delete(s.records, id)
	return rec, nil
}

// Exists проверяет наличие записи.
func (s *Store) Exists(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[id]
	return ok
}

// Count возвращает количество живых записей.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// AttachmentRefs возвращает снимок ссылок на вложения: AttachmentRef → id записи.
// Используется при сверке хранилища вложений.
func (s *Store) AttachmentRefs() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	refs := make(map[string]int64, len(s.records))
	for id, rec := range s.records {
		refs[rec.AttachmentRef] = id
	}
	return refs
}

// sortedIDs возвращает id по возрастанию. Вызывается под s.mu.
// Id выдаются монотонно, поэтому порядок совпадает с порядком вставки.
func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// matches проверяет запись на соответствие фильтру.
// foldedSkill — подстрока навыка, уже приведённая через cases.Fold.
func matches(rec model.Candidate, f model.CandidateFilter, foldedSkill string) bool {
	if foldedSkill != "" && !hasSkill(rec.Skills, foldedSkill) {
		return false
	}
	if f.MinExperience != nil && rec.YearsOfExperience < *f.MinExperience {
		return false
	}
	if f.MaxExperience != nil && rec.YearsOfExperience > *f.MaxExperience {
		return false
	}
	if f.GraduationYear != nil && rec.GraduationYear != *f.GraduationYear {
		return false
	}
	return true
}

// hasSkill — true, если хотя бы один навык содержит подстроку.
func hasSkill(skills []string, foldedSkill string) bool {
	folder := cases.Fold()
	for _, s := range skills {
		if strings.Contains(folder.String(s), foldedSkill) {
			return true
		}
	}
	return false
}
