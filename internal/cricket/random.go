package cricket

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
	"sync"
	"time"
)

// Source supplies uniformly distributed integers in [low, high].
type Source interface {
	UniformInt(low, high int) int
}

type cryptoSource struct{}

// NewCryptoSource draws from crypto/rand.
func NewCryptoSource() Source { return cryptoSource{} }

func (cryptoSource) UniformInt(low, high int) int {
	if low >= high {
		return low
	}
	n, err := crand.Int(crand.Reader, big.NewInt(int64(high-low+1)))
	if err != nil {
		// fallback keeps the match playable if the entropy source fails
		return low + int(time.Now().UnixNano()%int64(high-low+1))
	}
	return low + int(n.Int64())
}

type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a reproducible source. A zero seed uses the current time.
func NewSeededSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *seededSource) UniformInt(low, high int) int {
	if low >= high {
		return low
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return low + s.rng.Intn(high-low+1)
}
