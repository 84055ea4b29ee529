package validation

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinTestimonyTitleLength       = 5
	MaxTestimonyTitleLength       = 200
	MinTestimonyDescriptionLength = 20
	MaxTestimonyDescriptionLength = 5000
	MaxLocationLength             = 200
	MaxWitnessNameLength          = 100
	MaxFlagReasonLength           = 500
	MaxMediaRefs                  = 10
	MaxSearchQueryLength          = 200
	MaxRadiusKm                   = 20000.0
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateTestimonyTitle проверяет заголовок свидетельства.
func ValidateTestimonyTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("заголовок обязателен")
	}
	return ValidateLength("заголовок", title, MinTestimonyTitleLength, MaxTestimonyTitleLength)
}

// ValidateTestimonyDescription проверяет описание свидетельства.
func ValidateTestimonyDescription(description string) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return fmt.Errorf("описание обязательно")
	}
	return ValidateLength("описание", description, MinTestimonyDescriptionLength, MaxTestimonyDescriptionLength)
}

// ValidateLocation проверяет текстовую метку места.
func ValidateLocation(location string) error {
	if err := ValidateNonEmpty("место", location); err != nil {
		return err
	}
	return ValidateLength("место", location, 0, MaxLocationLength)
}

func ValidateWitnessName(name string) error {
	return ValidateLength("имя свидетеля", name, 0, MaxWitnessNameLength)
}

func ValidateFlagReason(reason string) error {
	if err := ValidateNonEmpty("причина жалобы", reason); err != nil {
		return err
	}
	return ValidateLength("причина жалобы", reason, 0, MaxFlagReasonLength)
}

// ValidateMediaRefs проверяет ссылки на вложения.
func ValidateMediaRefs(refs []string) error {
	if len(refs) > MaxMediaRefs {
		return fmt.Errorf("не более %d вложений", MaxMediaRefs)
	}
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			return fmt.Errorf("ссылка на вложение не может быть пустой")
		}
		if strings.Contains(ref, "..") || strings.ContainsAny(ref, `/\`) {
			return fmt.Errorf("некорректная ссылка на вложение: %s", ref)
		}
	}
	return nil
}

// ValidateRadius проверяет радиус поиска в километрах.
func ValidateRadius(radiusKm float64) error {
	if radiusKm <= 0 || radiusKm > MaxRadiusKm {
		return fmt.Errorf("радиус должен быть в диапазоне (0, %.0f] км", MaxRadiusKm)
	}
	return nil
}

// SanitizeText обрезает пробелы и экранирует HTML.
func SanitizeText(value string) string {
	return html.EscapeString(strings.TrimSpace(value))
}
