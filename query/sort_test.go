/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/suparena/entitykv/filter"
)

type sortRow struct {
	id  string
	rec filter.Record
}

func ids(rows []sortRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.id
	}
	return out
}

func TestSort(t *testing.T) {
	rows := func() []sortRow {
		return []sortRow{
			{"a", filter.Record{"score": filter.Int(3), "name": filter.Text("x")}},
			{"b", filter.Record{"score": filter.Int(1), "name": filter.Text("y")}},
			{"c", filter.Record{"name": filter.Text("x")}},
			{"d", filter.Record{"score": filter.Float(1), "name": filter.Text("x")}},
			{"e", filter.Record{"score": filter.Text("odd"), "name": filter.Text("z")}},
		}
	}
	rec := func(r sortRow) filter.Record { return r.rec }

	t.Run("ascending with missing first", func(t *testing.T) {
		got := rows()[:4]
		Sort(got, By("score"), rec)
		assert.Equal(t, "c", got[0].id)
		assert.Equal(t, []string{"b", "d"}, ids(got[1:3]), "equal numbers keep input order")
	})

	t.Run("descending", func(t *testing.T) {
		got := rows()[:4]
		Sort(got, By("-score"), rec)
		assert.Equal(t, "a", got[0].id)
		assert.Equal(t, "c", got[len(got)-1].id)
	})

	t.Run("multiple fields", func(t *testing.T) {
		got := rows()
		Sort(got, By("name", "-score"), rec)
		assert.Equal(t, []string{"a", "d", "c", "b", "e"}, ids(got))
	})

	t.Run("empty expression keeps order", func(t *testing.T) {
		got := rows()
		Sort(got, nil, rec)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(got))
	})
}

func TestSortExprString(t *testing.T) {
	assert.Equal(t, "name asc, score desc", By("name", "-score").String())
}
