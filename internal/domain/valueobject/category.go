package valueobject

import "github.com/openwitness/witness-backend/internal/pkg/apperror"

// Category — закрытый набор типов свидетельств.
type Category string

const (
	CategoryMedical        Category = "medical"
	CategorySecurity       Category = "security"
	CategoryInfrastructure Category = "infrastructure"
	CategoryHumanitarian   Category = "humanitarian"
	CategoryDisplacement   Category = "displacement"
	CategoryGeneral        Category = "general"

	// Используется источниками автоматического импорта новостей.
	CategoryGeopolitical Category = "geopolitical"
)

var allCategories = []Category{
	CategoryMedical,
	CategorySecurity,
	CategoryInfrastructure,
	CategoryHumanitarian,
	CategoryDisplacement,
	CategoryGeneral,
	CategoryGeopolitical,
}

// AllCategories возвращает копию списка допустимых категорий.
func AllCategories() []Category {
	return append([]Category(nil), allCategories...)
}

func (c Category) IsValid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

func NewCategory(category string) (Category, error) {
	c := Category(category)
	if !c.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректная категория свидетельства")
	}
	return c, nil
}
