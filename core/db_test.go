package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeepOrderings(t *testing.T) {
	allowed := map[string]bool{"created_at": true, "subject": true}
	fallback := DBOrdering{Field: "created_at"}

	tests := []struct {
		name     string
		ordering []DBOrdering
		want     []DBOrdering
	}{
		{name: "none", want: []DBOrdering{fallback}},
		{name: "unknown only", ordering: []DBOrdering{{Field: "password"}}, want: []DBOrdering{fallback}},
		{
			name:     "mixed",
			ordering: []DBOrdering{{Field: "subject", Ascending: true}, {Field: "password"}, {Field: "created_at"}},
			want:     []DBOrdering{{Field: "subject", Ascending: true}, {Field: "created_at"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KeepOrderings(tc.ordering, allowed, fallback))
		})
	}
	assert.Empty(t, KeepOrderings([]DBOrdering{{Field: "x"}}, allowed))
}

func TestOrderingClause(t *testing.T) {
	assert.Equal(t, "", OrderingClause(nil))
	assert.Equal(t,
		" ORDER BY subject ASC, created_at DESC",
		OrderingClause([]DBOrdering{{Field: "subject", Ascending: true}, {Field: "created_at"}}),
	)
}

func TestOrderedBefore(t *testing.T) {
	type row struct{ subject, class string }
	a, b := row{"Maths", "JSS1"}, row{"Maths", "JSS2"}
	cmp := func(x, y row) func(string) int {
		return func(field string) int {
			var l, r string
			if field == "subject" {
				l, r = x.subject, y.subject
			} else {
				l, r = x.class, y.class
			}
			switch {
			case l < r:
				return -1
			case l > r:
				return 1
			}
			return 0
		}
	}

	byClass := []DBOrdering{{Field: "subject", Ascending: true}, {Field: "class", Ascending: true}}
	assert.True(t, OrderedBefore(byClass, cmp(a, b)))
	assert.False(t, OrderedBefore(byClass, cmp(b, a)))

	byClassDesc := []DBOrdering{{Field: "subject", Ascending: true}, {Field: "class"}}
	assert.True(t, OrderedBefore(byClassDesc, cmp(b, a)))
	assert.False(t, OrderedBefore(byClassDesc, cmp(a, a)))
}
