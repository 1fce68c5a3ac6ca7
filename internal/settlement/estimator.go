package settlement

import (
	"math/rand"
	"sync"
)

// DistanceEstimator produces the delivery distance for an order. The real
// routing integration is pending; callers only depend on this interface.
type DistanceEstimator interface {
	EstimateKm(deliveryAddress string) float64
}

// RandomEstimator draws a distance uniformly from [0, maxKm). It stands in
// for a routing provider until one is wired up.
type RandomEstimator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	maxKm float64
}

// NewRandomEstimator builds an estimator with its own seeded source. Tests
// pass a fixed seed to make distances deterministic.
func NewRandomEstimator(seed int64, maxKm float64) *RandomEstimator {
	if maxKm <= 0 {
		maxKm = 10
	}
	return &RandomEstimator{rng: rand.New(rand.NewSource(seed)), maxKm: maxKm}
}

func (e *RandomEstimator) EstimateKm(_ string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64() * e.maxKm
}
