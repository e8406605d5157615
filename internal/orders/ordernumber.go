package orders

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Order numbers are human-readable, not cryptographic: a millisecond
// timestamp plus a 4-digit suffix. Collisions are possible under load, so
// Create retries on the unique constraint instead of trusting the scheme.
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), 1000+rand.IntN(9000))
}
