package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// group registers a fixed set of collectors on the default registry at most once.
type group struct {
	once       sync.Once
	collectors []prometheus.Collector
}

func newGroup(cs ...prometheus.Collector) *group {
	return &group{collectors: cs}
}

func (g *group) register() {
	g.once.Do(func() { prometheus.MustRegister(g.collectors...) })
}
