package collection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/stockdesk/pkg/collection"
)

type row struct {
	Kind   string
	Amount int64
}

func TestDuplicateIndexes(t *testing.T) {
	keys := []string{"Color-Red", "Size-M", "Color-Red", "", "", "Size-M"}
	id := func(s string) string { return s }
	blank := func(s string) bool { return s == "" }

	assert.Equal(t, []int{2, 4, 5}, collection.DuplicateIndexes(keys, id))
	assert.Equal(t, []int{2, 5}, collection.DuplicateIndexes(keys, id, blank))
	assert.Nil(t, collection.DuplicateIndexes([]string{"a", "b"}, id))
}

func TestSumAndGroup(t *testing.T) {
	rows := []row{{"purchase", 10}, {"sale", 3}, {"purchase", 5}}

	byKind := collection.GroupBy(rows, func(r row) string { return r.Kind })
	assert.Len(t, byKind["purchase"], 2)
	assert.Equal(t, int64(15), collection.Sum(byKind["purchase"], func(r row) int64 { return r.Amount }))
	assert.Len(t, byKind["sale"], 1)
}

func TestSortByIsStableAndCopies(t *testing.T) {
	rows := []row{{"b", 1}, {"a", 1}, {"c", 0}}
	sorted := collection.SortBy(rows, func(x, y row) bool { return x.Amount < y.Amount })

	assert.Equal(t, []row{{"c", 0}, {"b", 1}, {"a", 1}}, sorted)
	assert.Equal(t, "b", rows[0].Kind)
}

func TestFirstAndFilter(t *testing.T) {
	nums := []int{1, 2, 3, 4}
	even := collection.Filter(nums, func(n int) bool { return n%2 == 0 })
	assert.Equal(t, []int{2, 4}, even)

	v, ok := collection.First(nums, func(n int) bool { return n > 2 })
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.False(t, collection.Contains(nums, func(n int) bool { return n > 9 }))
}
