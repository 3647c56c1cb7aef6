package idgen

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

// Uint32 returns values 1,2,3... up to 2^32-1, then wraps around to 1.
// Zero is never generated, so callers can use 0 to mean "no id".
type Uint32 struct {
	next atomic.Uint32
}

func (u *Uint32) Next() uint32 {
	n := u.next.Add(1)
	if n == 0 {
		n = u.next.Add(1)
	}
	return n
}

// Random32 produces pseudo-random non-zero ids.
// A fixed seed gives a reproducible sequence, which is what we want for tests
// and for comparing two runs over the same input.
type Random32 struct {
	lock sync.Mutex
	rng  *rand.Rand
}

func NewRandom32(seed int64) *Random32 {
	return &Random32{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (r *Random32) Next() uint32 {
	r.lock.Lock()
	defer r.lock.Unlock()
	for {
		if v := r.rng.Uint32(); v != 0 {
			return v
		}
	}
}
