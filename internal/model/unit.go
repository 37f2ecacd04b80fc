package model

import "strings"

// DefaultUnit is used when a unit is missing or unknown.
const DefaultUnit = "шт"

var unitAliases = map[string]string{
	"шт":        "шт",
	"штук":      "шт",
	"штука":     "шт",
	"piece":     "шт",
	"pieces":    "шт",
	"pcs":       "шт",
	"кг":        "кг",
	"килограмм": "кг",
	"kg":        "кг",
	"л":         "л",
	"литр":      "л",
	"liter":     "л",
	"l":         "л",
	"м":         "м",
	"метр":      "м",
	"meter":     "м",
	"m":         "м",
	"м2":        "м²",
	"м²":        "м²",
	"m2":        "м²",
	"м3":        "м³",
	"м³":        "м³",
	"m3":        "м³",
}

// NormalizeUnit maps free-form unit spellings to the canonical short form.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return DefaultUnit
}
