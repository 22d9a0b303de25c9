package throttle

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// nonceSource hands out random positive identifiers for in-flight
// messages. Uniqueness is probabilistic; the store's dedup index is the
// actual collision defense. The underlying rand source is not safe for
// concurrent use, so every draw is serialized.
type nonceSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newNonceSource() *nonceSource {
	return &nonceSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (n *nonceSource) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return 1 + n.rng.Int63n(math.MaxInt64-1)
}
