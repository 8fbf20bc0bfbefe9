// Package index maintains derived lookup groups over canonical record slices.
// A Group never owns data: it holds pointers into the caller's slice and can
// be rebuilt from it at any time.
package index

// Group buckets records by a derived string key, preserving insertion order
// within each bucket.
type Group[T any] struct {
	key    func(*T) string
	id     func(*T) string
	groups map[string][]*T
	// keyOf records the bucket each id currently lives in.
	keyOf map[string]string
}

// NewGroup returns an empty Group. key derives the bucket, id identifies a record.
func NewGroup[T any](key, id func(*T) string) *Group[T] {
	return &Group[T]{
		key:    key,
		id:     id,
		groups: make(map[string][]*T),
		keyOf:  make(map[string]string),
	}
}

// Rebuild discards every bucket and re-indexes items from scratch.
func (g *Group[T]) Rebuild(items []*T) {
	g.groups = make(map[string][]*T)
	g.keyOf = make(map[string]string, len(items))
	for _, it := range items {
		k := g.key(it)
		g.groups[k] = append(g.groups[k], it)
		g.keyOf[g.id(it)] = k
	}
}

// Put indexes item, moving it to a new bucket if its key changed since it was
// last indexed. Records are held by pointer, so an update that keeps the key
// needs no work as long as the caller mutated the indexed record in place.
func (g *Group[T]) Put(item *T) {
	id := g.id(item)
	k := g.key(item)
	if old, ok := g.keyOf[id]; ok {
		if old == k {
			return
		}
		g.splice(old, id)
	}
	g.groups[k] = append(g.groups[k], item)
	g.keyOf[id] = k
}

// Remove drops the record with the given id from its bucket.
func (g *Group[T]) Remove(id string) {
	k, ok := g.keyOf[id]
	if !ok {
		return
	}
	g.splice(k, id)
	delete(g.keyOf, id)
}

// RemoveKey drops an entire bucket.
func (g *Group[T]) RemoveKey(k string) {
	for _, it := range g.groups[k] {
		delete(g.keyOf, g.id(it))
	}
	delete(g.groups, k)
}

// Get returns the bucket for k. The returned slice must not be modified.
func (g *Group[T]) Get(k string) []*T {
	return g.groups[k]
}

// Len returns the number of indexed records.
func (g *Group[T]) Len() int {
	return len(g.keyOf)
}

// Keys returns every non-empty bucket key, unordered.
func (g *Group[T]) Keys() []string {
	keys := make([]string, 0, len(g.groups))
	for k := range g.groups {
		keys = append(keys, k)
	}
	return keys
}

func (g *Group[T]) splice(k, id string) {
	bucket := g.groups[k]
	for i, it := range bucket {
		if g.id(it) == id {
			bucket = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(g.groups, k)
		return
	}
	g.groups[k] = bucket
}
