package core

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

// DBExecutor is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBExecutor interface {
	sqlx.ExtContext
}

// DBOrdering orders query results by one column.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field + " ASC"
	}
	return ord.Field + " DESC"
}

// KeepOrderings returns the orderings on allowed fields, or fallback when none remain.
func KeepOrderings(ordering []DBOrdering, allowed map[string]bool, fallback ...DBOrdering) []DBOrdering {
	kept := make([]DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if allowed[ord.Field] {
			kept = append(kept, ord)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return kept
}

// OrderingClause renders ordering as an SQL ORDER BY clause; empty when there is nothing to order by.
func OrderingClause(ordering []DBOrdering) string {
	if len(ordering) == 0 {
		return ""
	}
	parts := make([]string, len(ordering))
	for i, ord := range ordering {
		parts[i] = ord.String()
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// OrderedBefore reports whether a sorts before b under ordering, where cmp compares a and b on one field.
func OrderedBefore(ordering []DBOrdering, cmp func(field string) int) bool {
	for _, ord := range ordering {
		if c := cmp(ord.Field); c != 0 {
			return (c < 0) == ord.Ascending
		}
	}
	return false
}
