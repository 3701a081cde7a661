package rank

import "fmt"

// Weights are the linear coefficients of the composite score. Redundancy is
// a penalty: it is subtracted, so all four values are non-negative.
type Weights struct {
	Relevance  float64 `yaml:"relevance"`
	Popularity float64 `yaml:"popularity"`
	Recency    float64 `yaml:"recency"`
	Redundancy float64 `yaml:"redundancy"`
}

// Balanced is the documented default profile.
func Balanced() Weights {
	return Weights{Relevance: 0.60, Popularity: 0.25, Recency: 0.10, Redundancy: 0.05}
}

// Profiles maps a profile name to its weights. Only "balanced" is built in;
// alternate profiles (high-precision, popularity, exploration) must come
// from configuration.
type Profiles map[string]Weights

// Resolve returns the weights for name. Empty selects the balanced default.
func (p Profiles) Resolve(name string) (Weights, error) {
	if name == "" || name == "balanced" {
		return Balanced(), nil
	}
	w, ok := p[name]
	if !ok {
		names := make([]string, 0, len(p)+1)
		names = append(names, "balanced")
		for n := range p {
			names = append(names, n)
		}
		return Weights{}, fmt.Errorf("unknown ranking profile %q (configured: %v)", name, names)
	}
	return w, nil
}
