// Package allocation computes proportional reward splits over usage
// counts. Amounts are arbitrary-precision integers end to end; the
// split is exact and the full pool is always distributed.
package allocation

import (
	"errors"
	"math/big"
	"sort"
)

// ErrNegativePool rejects pools below zero.
var ErrNegativePool = errors.New("reward pool must not be negative")

// Option applies a configuration option to the Allocator.
type Option func(*Allocator)

// WithRemainderOrder overrides how skills are ordered when handing out
// the integer-division remainder. The default orders by usage count
// descending, then skill ID ascending.
func WithRemainderOrder(less func(a, b Share) bool) Option {
	return func(al *Allocator) {
		if less != nil {
			al.remainderLess = less
		}
	}
}

// Share pairs a skill with its usage count for one period.
type Share struct {
	SkillID string
	Count   int64
}

// Allocator splits reward pools proportionally by usage.
type Allocator struct {
	remainderLess func(a, b Share) bool
}

// New creates an Allocator with the default remainder policy:
// highest-usage skill first, ties broken by lexicographically
// smallest skill ID.
func New(opts ...Option) *Allocator {
	al := &Allocator{
		remainderLess: func(a, b Share) bool {
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.SkillID < b.SkillID
		},
	}
	for _, opt := range opts {
		opt(al)
	}
	return al
}

// Split allocates pool across skills proportionally to their usage
// counts. Each skill receives floor(pool*count/total); the remainder is
// handed out one unit at a time in remainder order, so the returned
// amounts always sum to exactly pool. Skills with zero usage receive
// nothing. A zero total yields an empty map.
func (al *Allocator) Split(pool *big.Int, usage map[string]int64) (map[string]*big.Int, error) {
	if pool == nil || pool.Sign() < 0 {
		return nil, ErrNegativePool
	}

	shares := make([]Share, 0, len(usage))
	var total int64
	for skillID, count := range usage {
		if count <= 0 {
			continue
		}
		shares = append(shares, Share{SkillID: skillID, Count: count})
		total += count
	}
	if total == 0 {
		return map[string]*big.Int{}, nil
	}

	sort.Slice(shares, func(i, j int) bool { return al.remainderLess(shares[i], shares[j]) })

	bigTotal := big.NewInt(total)
	out := make(map[string]*big.Int, len(shares))
	distributed := new(big.Int)
	for _, s := range shares {
		amount := new(big.Int).Mul(pool, big.NewInt(s.Count))
		amount.Quo(amount, bigTotal)
		out[s.SkillID] = amount
		distributed.Add(distributed, amount)
	}

	// Hand out the rounding remainder one unit per skill in order.
	// remainder < len(shares), so a single pass suffices.
	remainder := new(big.Int).Sub(pool, distributed)
	one := big.NewInt(1)
	for i := 0; remainder.Sign() > 0 && i < len(shares); i++ {
		out[shares[i].SkillID].Add(out[shares[i].SkillID], one)
		remainder.Sub(remainder, one)
	}

	return out, nil
}
