package cart

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator assigns line-item ids.
type IDGenerator interface {
	NewID(t time.Time) string
}

// ulidGenerator yields monotonic ULIDs, so ids sort in insertion order even
// within the same millisecond.
type ulidGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newULIDGenerator() *ulidGenerator {
	return &ulidGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ulidGenerator) NewID(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

// defaultIDs is shared by every store in the process.
var defaultIDs IDGenerator = newULIDGenerator()
