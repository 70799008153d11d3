// Пакет model — доменные модели сервиса приёма резюме.
// Candidate — запись о кандидате, Attachment — загруженный файл резюме.
// Связь между ними только по значению: Candidate.AttachmentRef хранит
// StoredName вложения.
package model

import (
	"slices"
	"time"
)

// CandidateFields — данные кандидата, передаваемые при создании записи.
// ID и CreatedAt назначает хранилище.
type CandidateFields struct {
	FullName          string
	DateOfBirth       string // YYYY-MM-DD
	ContactNumber     string
	ContactAddress    string
	Education         string
	GraduationYear    int
	YearsOfExperience float64
	Skills            []string
	// AttachmentRef — StoredName файла резюме в хранилище вложений
	AttachmentRef string
	// AttachmentContentType и AttachmentChecksum копируются из Attachment
	AttachmentContentType string
	AttachmentChecksum    string
}

// Candidate — запись о кандидате.
type Candidate struct {
	ID int64 `json:"id"`

	FullName          string   `json:"full_name"`
	DateOfBirth       string   `json:"dob"`
	ContactNumber     string   `json:"contact_number"`
	ContactAddress    string   `json:"contact_address"`
	Education         string   `json:"education_qualification"`
	GraduationYear    int      `json:"graduation_year"`
	YearsOfExperience float64  `json:"years_of_experience"`
	Skills            []string `json:"skill_set"`
	AttachmentRef     string   `json:"resume_filename"`

	AttachmentContentType string `json:"resume_content_type,omitempty"`
	AttachmentChecksum    string `json:"resume_checksum,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewCandidate собирает запись из полей. Срез навыков копируется.
func NewCandidate(id int64, f CandidateFields, createdAt time.Time) Candidate {
	return Candidate{
		ID:                id,
		FullName:          f.FullName,
		DateOfBirth:       f.DateOfBirth,
		ContactNumber:     f.ContactNumber,
		ContactAddress:    f.ContactAddress,
		Education:         f.Education,
		GraduationYear:    f.GraduationYear,
		YearsOfExperience: f.YearsOfExperience,
		Skills:            slices.Clone(f.Skills),
		AttachmentRef:     f.AttachmentRef,
		CreatedAt:         createdAt,

		AttachmentContentType: f.AttachmentContentType,
		AttachmentChecksum:    f.AttachmentChecksum,
	}
}

// Clone возвращает глубокую копию записи.
func (c Candidate) Clone() Candidate {
	c.Skills = slices.Clone(c.Skills)
	return c
}

// CandidateFilter — конъюнкция необязательных условий фильтрации.
// Пустая строка Skill и nil-указатели означают отсутствие условия.
type CandidateFilter struct {
	// Skill — подстрока навыка, без учёта регистра
	Skill string
	// MinExperience — минимальный опыт, включительно
	MinExperience *float64
	// MaxExperience — максимальный опыт, включительно
	MaxExperience *float64
	// GraduationYear — точный год выпуска
	GraduationYear *int
}

// IsEmpty возвращает true, если не задано ни одного условия.
func (f CandidateFilter) IsEmpty() bool {
	return f.Skill == "" && f.MinExperience == nil && f.MaxExperience == nil && f.GraduationYear == nil
}

// Attachment — описание сохранённого файла.
type Attachment struct {
	// StoredName — сгенерированное имя файла на диске (uuid + расширение)
	StoredName string `json:"stored_name"`
	// OriginalName — имя файла от клиента, только для валидации и аудита
	OriginalName string `json:"original_name"`
	// Size — фактическое количество записанных байт
	Size int64 `json:"size"`
	// ContentType — MIME-тип, определённый по содержимому
	ContentType string `json:"content_type"`
	// Checksum — SHA-256 содержимого
	Checksum string `json:"checksum"`
}
