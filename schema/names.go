package schema

import (
	"strconv"
	"strings"
)

// ToPascalCase converts a snake_case (or kebab-case) column name to
// PascalCase for step 3 of the name-resolution ladder in §4.4:
// "first_name" -> "FirstName".
func ToPascalCase(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		if len(p) > 1 {
			b.WriteString(p[1:])
		}
	}
	return b.String()
}

// GenerateColumnName produces the default synthetic column name
// "Column1".."ColumnN" (1-based) used when no header, schema, or
// caller generator is available.
func GenerateColumnName(index int) string {
	return "Column" + strconv.Itoa(index+1)
}
