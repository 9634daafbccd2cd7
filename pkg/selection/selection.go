// Package selection draws the next sentence for an annotator: a uniform
// pick from the ids they have not labeled yet.
package selection

import (
	"math/rand"
	"sync"
	"time"
)

// Picker holds a seeded rng. A zero seed falls back to the clock so
// production runs differ; tests pass a fixed seed for repeatability.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(seed int64) *Picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Picker{rng: rand.New(rand.NewSource(seed))}
}

// Remaining returns the ids in all that are absent from done, preserving
// the order of all. Entries in done that are not part of all are ignored.
func Remaining(all []string, done map[string]struct{}) []string {
	out := make([]string, 0, len(all))
	for _, id := range all {
		if _, seen := done[id]; seen {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Pick draws one id uniformly from all minus done. The second return is
// false when every id has been seen, which callers surface as exhaustion.
func (p *Picker) Pick(all []string, done map[string]struct{}) (string, bool) {
	rem := Remaining(all, done)
	if len(rem) == 0 {
		return "", false
	}
	p.mu.Lock()
	i := p.rng.Intn(len(rem))
	p.mu.Unlock()
	return rem[i], true
}

// Coin returns true with probability one half. Used to flip the order
// the two labels are presented in.
func (p *Picker) Coin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(2) == 0
}
