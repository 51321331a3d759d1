package order

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// NumberGenerator produces order numbers: a 14-digit timestamp
// (yyyyMMddHHmmss) followed by a uniformly random 6-digit suffix in
// [100000, 999999]. Uniqueness is probabilistic: two orders created within
// the same second can collide with probability 1/900000. Accepted for now;
// a monotonic counter + machine id would close it.
type NumberGenerator struct {
	now  func() time.Time
	intN func(n int) int
}

// NewNumberGenerator returns a generator backed by the wall clock and the
// default random source.
func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{
		now:  time.Now,
		intN: rand.IntN,
	}
}

// Next generates one order number. Generated once per order at creation;
// the number is immutable afterwards.
func (g *NumberGenerator) Next() string {
	return g.now().Format("20060102150405") + strconv.Itoa(100000+g.intN(900000))
}
