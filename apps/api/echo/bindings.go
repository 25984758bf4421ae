package echoapi

import (
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/Abra313/socrease-lesson-note-management/core"
)

const orderingParam = "ordering"

// bindOrdering reads `?ordering=-createdAt,title` into column orderings.
// camelCase names are accepted and converted to their snake_case columns;
// blanks and repeated fields are ignored. Services drop unknown columns.
func bindOrdering(ctx echo.Context) []core.DBOrdering {
	raw := strings.TrimSpace(ctx.QueryParam(orderingParam))
	if raw == "" {
		return nil
	}

	seen := make(map[string]bool)
	var ords []core.DBOrdering
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		col := snakeCase(strings.TrimLeft(part, "-+"))
		if col == "" || seen[col] {
			continue
		}
		seen[col] = true
		ords = append(ords, core.DBOrdering{Field: col, Ascending: !desc})
	}
	return ords
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
