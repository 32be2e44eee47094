package shadow

import (
	"errors"
	"fmt"
	"math"

	"github.com/BurntSushi/toml"
)

// Tolerances overrides numeric tolerances per "entity.field" key.
type Tolerances map[string]float64

// Lookup returns the tolerance for entityKey.field, or def when none is set.
func (t Tolerances) Lookup(entityKey, field string, def float64) float64 {
	if v, ok := t[entityKey+"."+field]; ok {
		return v
	}
	return def
}

// LoadTolerances reads a TOML file with one table per entity:
//
//	[wigg-likes]
//	count = 0
//
//	[user-wiggs]
//	t2g_estimate_pct = 0.5
func LoadTolerances(path string) (Tolerances, error) {
	var raw map[string]map[string]float64
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidTolerances, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Join(ErrInvalidTolerances, fmt.Errorf("unexpected keys: %v", undecoded))
	}

	out := make(Tolerances)
	for entity, fields := range raw {
		for field, tol := range fields {
			if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
				return nil, errors.Join(ErrInvalidTolerances,
					fmt.Errorf("%s.%s: tolerance must be a finite non-negative number", entity, field))
			}
			out[entity+"."+field] = tol
		}
	}
	return out, nil
}
