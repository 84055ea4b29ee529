package ingestion

import (
	"strings"

	"github.com/openwitness/witness-backend/internal/domain/valueobject"
)

// countryCentroids — запасные координаты для стран из сводок, если в записи нет точки.
var countryCentroids = []struct {
	Name   string
	Coords valueobject.Coordinates
}{
	{"Ukraine", valueobject.Coordinates{Lat: 48.3794, Lng: 31.1656}},
	{"Gaza Strip", valueobject.Coordinates{Lat: 31.3547, Lng: 34.3088}},
	{"Sudan", valueobject.Coordinates{Lat: 12.8628, Lng: 30.2176}},
	{"Yemen", valueobject.Coordinates{Lat: 15.5527, Lng: 48.5164}},
	{"Palestine", valueobject.Coordinates{Lat: 31.9522, Lng: 35.2332}},
	{"Syria", valueobject.Coordinates{Lat: 34.8021, Lng: 38.9968}},
	{"Ethiopia", valueobject.Coordinates{Lat: 9.145, Lng: 40.4897}},
	{"Myanmar", valueobject.Coordinates{Lat: 21.9162, Lng: 95.9560}},
	{"DRC", valueobject.Coordinates{Lat: -4.0383, Lng: 21.7587}},
	{"Afghanistan", valueobject.Coordinates{Lat: 33.9391, Lng: 67.7100}},
	{"Somalia", valueobject.Coordinates{Lat: 5.1521, Lng: 46.1996}},
	{"Russia", valueobject.Coordinates{Lat: 61.5240, Lng: 105.3188}},
	{"Israel", valueobject.Coordinates{Lat: 31.0461, Lng: 34.8516}},
	{"Lebanon", valueobject.Coordinates{Lat: 33.8547, Lng: 35.8623}},
	{"Haiti", valueobject.Coordinates{Lat: 18.9712, Lng: -72.2852}},
	{"Taiwan", valueobject.Coordinates{Lat: 23.6978, Lng: 120.9605}},
	{"Iran", valueobject.Coordinates{Lat: 32.4279, Lng: 53.6880}},
}

// countryAliases сводит альтернативные написания к названиям из таблицы.
var countryAliases = map[string]string{
	"gaza":                             "Gaza Strip",
	"occupied palestinian territory":   "Palestine",
	"democratic republic of the congo": "DRC",
	"dr congo":                         "DRC",
	"syrian arab republic":             "Syria",
	"russian federation":               "Russia",
	"iran (islamic republic of)":       "Iran",
}

// ResolveCountry ищет страну сначала среди тегов записи, затем в тексте заголовка.
func ResolveCountry(tags []string, title string) (string, valueobject.Coordinates, bool) {
	for _, tag := range tags {
		if name, coords, ok := lookupCountry(tag); ok {
			return name, coords, true
		}
	}

	lower := strings.ToLower(title)
	for alias, name := range countryAliases {
		if strings.Contains(lower, alias) {
			return lookupCountry(name)
		}
	}
	for _, c := range countryCentroids {
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			return c.Name, c.Coords, true
		}
	}
	return "", valueobject.Coordinates{}, false
}

func lookupCountry(name string) (string, valueobject.Coordinates, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := countryAliases[key]; ok {
		key = strings.ToLower(alias)
	}
	for _, c := range countryCentroids {
		if strings.ToLower(c.Name) == key {
			return c.Name, c.Coords, true
		}
	}
	return "", valueobject.Coordinates{}, false
}

var categoryKeywords = []struct {
	Category valueobject.Category
	Words    []string
}{
	{valueobject.CategorySecurity, []string{"bomb", "attack", "security", "combat"}},
	{valueobject.CategoryGeopolitical, []string{"intelligence", "strategic", "tensions"}},
	{valueobject.CategoryHumanitarian, []string{"food", "aid", "humanitarian"}},
	{valueobject.CategoryDisplacement, []string{"displaced", "refugee"}},
}

// InferCategory выбирает категорию по ключевым словам заголовка.
func InferCategory(title string) valueobject.Category {
	lower := strings.ToLower(title)
	for _, rule := range categoryKeywords {
		for _, w := range rule.Words {
			if strings.Contains(lower, w) {
				return rule.Category
			}
		}
	}
	return valueobject.CategoryGeneral
}
