package store

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// idSource hands out ids whose time component never repeats within a process.
type idSource struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

var ids = &idSource{now: time.Now}

func (g *idSource) next(kind string) string {
	g.mu.Lock()
	n := g.now().UnixNano()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	g.mu.Unlock()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return kind + "_" + strconv.FormatInt(n, 36) + "_" + suffix
}

// NewID returns a collision-free id of the form <kind>_<time>_<random>.
func NewID(kind string) string {
	return ids.next(kind)
}
