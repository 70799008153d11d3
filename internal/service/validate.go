// validate.go — валидация и нормализация входных данных кандидата
// и параметров фильтрации (go-playground/validator).
package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/bigkaa/resume-collector/internal/domain/model"
)

const (
	minBirthYear = 1900
	dateLayout   = "2006-01-02"
)

// phonePattern — номер без пробелов и дефисов: необязательный код страны и 10-12 цифр.
var phonePattern = regexp.MustCompile(`^(\+\d{1,3})?\d{10,12}$`)

// phoneCleaner удаляет из номера пробелы и дефисы.
var phoneCleaner = strings.NewReplacer(" ", "", "-", "")

// CandidateInput — поля кандидата в том виде, в каком они пришли от клиента.
type CandidateInput struct {
	FullName          string   `json:"full_name" validate:"min=2,max=100"`
	DateOfBirth       string   `json:"dob" validate:"required,dob"`
	ContactNumber     string   `json:"contact_number" validate:"required,phone"`
	ContactAddress    string   `json:"contact_address" validate:"min=10,max=500"`
	Education         string   `json:"education_qualification" validate:"min=2,max=100"`
	GraduationYear    int      `json:"graduation_year" validate:"min=1950,max=2030"`
	YearsOfExperience float64  `json:"years_of_experience" validate:"min=0,max=50"`
	Skills            []string `json:"skill_set" validate:"min=1"`
}

// FilterInput — параметры фильтрации списка кандидатов.
type FilterInput struct {
	Skill          string   `json:"skill"`
	MinExperience  *float64 `json:"min_experience" validate:"omitempty,min=0"`
	MaxExperience  *float64 `json:"max_experience" validate:"omitempty,min=0"`
	GraduationYear *int     `json:"graduation_year" validate:"omitempty,min=1950,max=2030"`
}

// Validator проверяет входные данные. Безопасен для конкурентного использования.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator создаёт валидатор с правилами dob и phone.
func NewValidator() *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}

	// Имена полей в ошибках — как в API
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("dob", func(fl validator.FieldLevel) bool {
		return v.validDateOfBirth(fl.Field().String())
	})

	return v
}

// ValidateCandidate нормализует входные данные и проверяет их.
// Строки обрезаются по краям, из номера удаляются пробелы и дефисы,
// навыки очищаются от пустых значений и дубликатов без учёта регистра.
// Возвращает поля для создания записи (без вложения) или *model.ValidationError.
func (v *Validator) ValidateCandidate(in CandidateInput) (model.CandidateFields, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	in.ContactNumber = phoneCleaner.Replace(strings.TrimSpace(in.ContactNumber))
	in.ContactAddress = strings.TrimSpace(in.ContactAddress)
	in.Education = strings.TrimSpace(in.Education)
	in.Skills = NormalizeSkills(in.Skills)

	if err := v.validate.Struct(in); err != nil {
		return model.CandidateFields{}, translateError(err)
	}

	return model.CandidateFields{
		FullName:          in.FullName,
		DateOfBirth:       in.DateOfBirth,
		ContactNumber:     in.ContactNumber,
		ContactAddress:    in.ContactAddress,
		Education:         in.Education,
		GraduationYear:    in.GraduationYear,
		YearsOfExperience: in.YearsOfExperience,
		Skills:            in.Skills,
	}, nil
}

// ValidateFilter проверяет параметры фильтрации и возвращает фильтр.
// Пустая строка навыка после обрезки означает отсутствие условия.
func (v *Validator) ValidateFilter(in FilterInput) (model.CandidateFilter, error) {
	in.Skill = strings.TrimSpace(in.Skill)

	if err := v.validate.Struct(in); err != nil {
		return model.CandidateFilter{}, translateError(err)
	}
	if in.MinExperience != nil && in.MaxExperience != nil && *in.MaxExperience < *in.MinExperience {
		return model.CandidateFilter{}, &model.ValidationError{
			Field:   "max_experience",
			Message: "должен быть не меньше min_experience",
		}
	}

	return model.CandidateFilter{
		Skill:          in.Skill,
		MinExperience:  in.MinExperience,
		MaxExperience:  in.MaxExperience,
		GraduationYear: in.GraduationYear,
	}, nil
}

// validDateOfBirth — дата в формате YYYY-MM-DD, не раньше 1900 года и строго в прошлом.
func (v *Validator) validDateOfBirth(s string) bool {
	dob, err := time.Parse(dateLayout, s)
	if err != nil {
		return false
	}
	if dob.Year() < minBirthYear {
		return false
	}
	now := v.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return dob.Before(today)
}

// NormalizeSkills обрезает навыки, убирает пустые и дубликаты
// (сравнение через Unicode case folding). Сохраняется первое написание.
func NormalizeSkills(skills []string) []string {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, raw := range skills {
		skill := strings.TrimSpace(raw)
		if skill == "" {
			continue
		}
		key := folder.String(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}

// SplitSkills разбирает список навыков через запятую.
func SplitSkills(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// translateError превращает первую ошибку validator в *model.ValidationError.
func translateError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &model.ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	return &model.ValidationError{
		Field:   fe.Field(),
		Message: messageFor(fe),
	}
}

// messageFor формирует текст ошибки по тегу правила.
func messageFor(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	isSlice := fe.Kind() == reflect.Slice

	switch fe.Tag() {
	case "required":
		return "обязательное поле"
	case "min":
		switch {
		case isString:
			return fmt.Sprintf("длина должна быть не меньше %s символов", fe.Param())
		case isSlice:
			return fmt.Sprintf("требуется не меньше %s значений", fe.Param())
		default:
			return fmt.Sprintf("значение должно быть не меньше %s", fe.Param())
		}
	case "max":
		if isString {
			return fmt.Sprintf("длина должна быть не больше %s символов", fe.Param())
		}
		return fmt.Sprintf("значение должно быть не больше %s", fe.Param())
	case "phone":
		return "некорректный номер телефона, ожидается 10-12 цифр с необязательным кодом страны"
	case "dob":
		return fmt.Sprintf("ожидается дата в формате YYYY-MM-DD не раньше %d года и в прошлом", minBirthYear)
	default:
		return fmt.Sprintf("не прошло проверку %s", fe.Tag())
	}
}
