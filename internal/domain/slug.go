package domain

import (
	"regexp"
	"strings"
)

var (
	slugSpaces     = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	slugDisallowed = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_-]+`)
)

// Slugify выводит идентификатор категории из отображаемого имени:
// нижний регистр, пробельные последовательности -> "-", всё кроме букв, цифр, "_" и "-" удаляется.
// Буквы с диакритикой сохраняются: "Tecnología Avanzada" -> "tecnología-avanzada".
// Функция чистая: одно и то же имя всегда даёт один и тот же id.
func Slugify(name string) string {
	slug := strings.ToLower(name)
	slug = slugSpaces.ReplaceAllString(slug, "-")
	return slugDisallowed.ReplaceAllString(slug, "")
}
