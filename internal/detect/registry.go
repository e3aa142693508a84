package detect

import (
	"fmt"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

// Registry holds the scorer strategies in registration order. It is composed
// and validated once at startup; there is no runtime discovery.
type Registry struct {
	scorers []Scorer
}

// NewRegistry validates and assembles a registry from the given scorers.
// A duplicate phenomenon type is a configuration error.
func NewRegistry(scorers ...Scorer) (*Registry, error) {
	seen := make(map[alert.Type]bool, len(scorers))
	for _, sc := range scorers {
		if seen[sc.Type()] {
			return nil, fmt.Errorf("detect: duplicate scorer for type %q", sc.Type())
		}
		seen[sc.Type()] = true
	}
	return &Registry{scorers: scorers}, nil
}

// Scorers returns the strategies in registration order.
func (r *Registry) Scorers() []Scorer {
	return r.scorers
}

// DefaultRegistry assembles the standard rule set.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(
		WindScorer{},
		RainScorer{},
		SnowScorer{},
		HeatScorer{},
		ColdScorer{},
		StormScorer{},
		ThunderstormScorer{},
		FloodScorer{},
	)
	if err != nil {
		// the standard set is statically unique
		panic(err)
	}
	return reg
}
