package domain

import "strings"

var sectionAliases = map[string]string{
	"good-news":   "segue",
	"good_news":   "segue",
	"priorities":  "rock_review",
	"priority":    "rock_review",
	"rocks":       "rock_review",
	"rock":        "rock_review",
	"rock-review": "rock_review",
	"todo-list":   "todos",
	"todo_list":   "todos",
	"todo":        "todos",
	"to-dos":      "todos",
	"to_dos":      "todos",
	"issues":      "ids",
	"issue":       "ids",
	"problems":    "ids",
	"problem":     "ids",
}

// ResolveSectionID lower-cases and trims raw and maps known aliases to their
// canonical section ID. Unknown input is returned normalized.
func ResolveSectionID(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := sectionAliases[normalized]; ok {
		return canonical
	}
	return normalized
}
