package spec

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PascalCase title-cases every segment of s separated by '.' or '_' and joins
// them, e.g. "indices.put_mapping" -> "IndicesPutMapping". Characters after
// the first of each segment are lower-cased.
func PascalCase(s string) string {
	segments := strings.FieldsFunc(s, func(r rune) bool { return r == '.' || r == '_' })
	// cases.Caser is stateful; one per call keeps PascalCase safe for concurrent use.
	title := cases.Title(language.AmericanEnglish)
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(title.String(seg))
	}
	return b.String()
}

// MethodName derives the programming identifier of an endpoint from its key.
func MethodName(key string) string { return PascalCase(key) }
