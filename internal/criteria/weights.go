// Package criteria selects and adjusts the weighted evaluation criteria used
// by the AHP scorer for a target land use.
package criteria

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/Salah021-coder/start-up-sub000/internal/model"
)

// Category names recognized by the AHP sub-scorer.
const (
	CategoryTerrain        = "terrain"
	CategoryEnvironmental  = "environmental"
	CategoryInfrastructure = "infrastructure"
)

// ErrNonPositiveWeight is returned by Validate when a leaf weight is <= 0.
var ErrNonPositiveWeight = eris.New("criteria: weights must be strictly positive")

// Criterion is a single leaf weight.
type Criterion struct {
	Name   string
	Weight float64
}

// Category groups criteria under a name such as "terrain".
type Category struct {
	Name     string
	Criteria []Criterion
}

// Weights is an ordered category → criterion → weight mapping. Order is
// significant: it fixes the positional criterion_i keys in AHP.
type Weights []Category

// Clone returns a deep copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for i, c := range w {
		out[i] = Category{Name: c.Name, Criteria: append([]Criterion(nil), c.Criteria...)}
	}
	return out
}

// Has reports whether a category is present.
func (w Weights) Has(category string) bool {
	for _, c := range w {
		if c.Name == category {
			return true
		}
	}
	return false
}

// Sum returns the total of all leaf weights.
func (w Weights) Sum() float64 {
	var total float64
	for _, c := range w {
		for _, cr := range c.Criteria {
			total += cr.Weight
		}
	}
	return total
}

// Len returns the number of leaf criteria.
func (w Weights) Len() int {
	n := 0
	for _, c := range w {
		n += len(c.Criteria)
	}
	return n
}

// Flatten returns "{category}_{criterion}" → weight in table order.
func (w Weights) Flatten() model.OrderedValues {
	flat := make(model.OrderedValues, 0, w.Len())
	for _, c := range w {
		for _, cr := range c.Criteria {
			flat = append(flat, model.NamedValue{Name: c.Name + "_" + cr.Name, Value: cr.Weight})
		}
	}
	return flat
}

// Validate rejects empty tables and non-positive leaf weights.
func (w Weights) Validate() error {
	if w.Len() == 0 {
		return eris.New("criteria: no criteria defined")
	}
	for _, c := range w {
		for _, cr := range c.Criteria {
			if !(cr.Weight > 0) {
				return eris.Wrapf(ErrNonPositiveWeight, "%s_%s = %v", c.Name, cr.Name, cr.Weight)
			}
		}
	}
	return nil
}

// scale multiplies every weight of a category in place.
func (w Weights) scale(category string, factor float64) {
	for i := range w {
		if w[i].Name != category {
			continue
		}
		for j := range w[i].Criteria {
			w[i].Criteria[j].Weight *= factor
		}
	}
}

// normalize divides every leaf by the leaf total. A zero total is not
// guarded and produces NaN or Inf.
func (w Weights) normalize() {
	total := w.Sum()
	for i := range w {
		for j := range w[i].Criteria {
			w[i].Criteria[j].Weight /= total
		}
	}
}

// MarshalJSON writes the nested mapping as ordered objects.
func (w Weights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		leaves := make(model.OrderedValues, len(c.Criteria))
		for j, cr := range c.Criteria {
			leaves[j] = model.NamedValue{Name: cr.Name, Value: cr.Weight}
		}
		val, err := leaves.MarshalJSON()
		if err != nil {
			return nil, eris.Wrapf(err, "criteria: marshal %s", c.Name)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a nested mapping, keeping document order.
func (w *Weights) UnmarshalJSON(data []byte) error {
	out := Weights{}
	err := model.WalkObject(data, func(key string, raw json.RawMessage) error {
		var leaves model.OrderedValues
		if err := json.Unmarshal(raw, &leaves); err != nil {
			return eris.Wrapf(err, "criteria: category %q", key)
		}
		cat := Category{Name: key, Criteria: make([]Criterion, len(leaves))}
		for i, nv := range leaves {
			cat.Criteria[i] = Criterion{Name: nv.Name, Weight: nv.Value}
		}
		out = append(out, cat)
		return nil
	})
	if err != nil {
		return err
	}
	*w = out
	return nil
}
