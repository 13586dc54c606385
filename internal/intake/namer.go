package intake

import (
	"strconv"
	"sync"
	"time"

	"github.com/example/recognition-mock/internal/randsrc"
)

const (
	extension   = ".jpg"
	suffixRange = 1_000_000_000
)

// Namer generates storage names of the form <field>-<millis>-<random>.jpg.
// The millisecond component is strictly increasing for the Namer's lifetime,
// so two calls never produce the same name even when the clock stalls.
type Namer struct {
	mu   sync.Mutex
	now  func() time.Time
	src  randsrc.Source
	last int64
}

// NewNamer returns a Namer reading the wall clock.
func NewNamer(src randsrc.Source) *Namer {
	return &Namer{now: time.Now, src: src}
}

// Next returns a fresh name for a file received under field.
func (n *Namer) Next(field string) string {
	n.mu.Lock()
	ts := n.now().UnixMilli()
	if ts <= n.last {
		ts = n.last + 1
	}
	n.last = ts
	n.mu.Unlock()

	suffix := n.src.IntN(suffixRange)
	return field + "-" + strconv.FormatInt(ts, 10) + "-" + strconv.Itoa(suffix) + extension
}
