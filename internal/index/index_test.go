package index

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

type rec struct {
	ID  string
	Day string
}

func newRecGroup() *Group[rec] {
	return NewGroup(func(r *rec) string { return r.Day }, func(r *rec) string { return r.ID })
}

func ids(rs []*rec) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestGroupPutPreservesOrder(t *testing.T) {
	g := newRecGroup()
	g.Put(&rec{ID: "a", Day: "mon"})
	g.Put(&rec{ID: "b", Day: "tue"})
	g.Put(&rec{ID: "c", Day: "mon"})

	assert.Equal(t, []string{"a", "c"}, ids(g.Get("mon")))
	assert.Equal(t, []string{"b"}, ids(g.Get("tue")))
	assert.Equal(t, 3, g.Len())
}

func TestGroupPutMovesOnKeyChange(t *testing.T) {
	g := newRecGroup()
	a := &rec{ID: "a", Day: "mon"}
	g.Put(a)
	g.Put(&rec{ID: "b", Day: "mon"})

	a.Day = "wed"
	g.Put(a)

	assert.Equal(t, []string{"b"}, ids(g.Get("mon")))
	assert.Equal(t, []string{"a"}, ids(g.Get("wed")))
	assert.Equal(t, 2, g.Len())
}

func TestGroupPutSameKeyIsNoop(t *testing.T) {
	g := newRecGroup()
	a := &rec{ID: "a", Day: "mon"}
	g.Put(a)
	g.Put(a)
	assert.Len(t, g.Get("mon"), 1)
}

func TestGroupRemove(t *testing.T) {
	g := newRecGroup()
	g.Put(&rec{ID: "a", Day: "mon"})
	g.Put(&rec{ID: "b", Day: "mon"})
	g.Put(&rec{ID: "c", Day: "tue"})

	g.Remove("a")
	g.Remove("missing")
	assert.Equal(t, []string{"b"}, ids(g.Get("mon")))

	g.Remove("c")
	assert.Nil(t, g.Get("tue"))
	assert.NotContains(t, g.Keys(), "tue")
}

func TestGroupRemoveKey(t *testing.T) {
	g := newRecGroup()
	g.Put(&rec{ID: "a", Day: "mon"})
	g.Put(&rec{ID: "b", Day: "mon"})
	g.Put(&rec{ID: "c", Day: "tue"})

	g.RemoveKey("mon")
	assert.Nil(t, g.Get("mon"))
	assert.Equal(t, 1, g.Len())
}

func TestGroupRebuild(t *testing.T) {
	g := newRecGroup()
	g.Put(&rec{ID: "stale", Day: "sun"})

	g.Rebuild([]*rec{
		{ID: "a", Day: "mon"},
		{ID: "b", Day: "tue"},
		{ID: "c", Day: "mon"},
	})

	keys := g.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"mon", "tue"}, keys)
	assert.Equal(t, []string{"a", "c"}, ids(g.Get("mon")))
	assert.Equal(t, 3, g.Len())
}
