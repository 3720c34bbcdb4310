package criteria

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Land uses with a canonical weight table.
const (
	UseResidential  = "residential"
	UseAgricultural = "agricultural"
	UseCommercial   = "commercial"
	UseIndustrial   = "industrial"
)

// Tables maps a land use to its canonical weights.
type Tables map[string]Weights

// DefaultTables returns fresh copies of the built-in tables. Each sums to 1.0.
func DefaultTables() Tables {
	return Tables{
		UseResidential: {
			{Name: CategoryTerrain, Criteria: []Criterion{{"slope", 0.20}, {"elevation", 0.10}, {"aspect", 0.05}}},
			{Name: CategoryEnvironmental, Criteria: []Criterion{{"flood_risk", 0.20}, {"vegetation", 0.10}}},
			{Name: CategoryInfrastructure, Criteria: []Criterion{{"road_access", 0.20}, {"utilities", 0.15}}},
		},
		UseAgricultural: {
			{Name: CategoryTerrain, Criteria: []Criterion{{"slope", 0.15}, {"elevation", 0.10}}},
			{Name: CategoryEnvironmental, Criteria: []Criterion{{"vegetation", 0.30}, {"water_availability", 0.15}, {"flood_risk", 0.10}}},
			{Name: CategoryInfrastructure, Criteria: []Criterion{{"road_access", 0.15}, {"utilities", 0.05}}},
		},
		UseCommercial: {
			{Name: CategoryTerrain, Criteria: []Criterion{{"slope", 0.15}, {"elevation", 0.05}}},
			{Name: CategoryEnvironmental, Criteria: []Criterion{{"flood_risk", 0.15}, {"vegetation", 0.05}}},
			{Name: CategoryInfrastructure, Criteria: []Criterion{{"road_access", 0.35}, {"utilities", 0.25}}},
		},
		UseIndustrial: {
			{Name: CategoryTerrain, Criteria: []Criterion{{"slope", 0.25}, {"elevation", 0.05}, {"load_bearing", 0.10}}},
			{Name: CategoryEnvironmental, Criteria: []Criterion{{"flood_risk", 0.15}}},
			{Name: CategoryInfrastructure, Criteria: []Criterion{{"road_access", 0.25}, {"utilities", 0.20}}},
		},
	}
}

// LoadTables reads table overrides from a YAML file and layers them over the
// built-in tables. The file has a top-level "criteria" key:
//
//	criteria:
//	  residential:
//	    terrain:
//	      slope: 0.2
//
// Key order in the file is kept. Every loaded table must validate.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "criteria: read tables %s", path)
	}

	var wrapper struct {
		Criteria yaml.Node `yaml:"criteria"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "criteria: parse tables")
	}

	tables := DefaultTables()
	if wrapper.Criteria.Kind == 0 {
		return tables, nil
	}
	uses, err := mappingPairs(&wrapper.Criteria)
	if err != nil {
		return nil, err
	}
	for _, use := range uses {
		w, err := decodeWeights(use.value)
		if err != nil {
			return nil, eris.Wrapf(err, "criteria: table %q", use.key)
		}
		if err := w.Validate(); err != nil {
			return nil, eris.Wrapf(err, "criteria: table %q", use.key)
		}
		tables[strings.ToLower(use.key)] = w
	}
	return tables, nil
}

type nodePair struct {
	key   string
	value *yaml.Node
}

func mappingPairs(n *yaml.Node) ([]nodePair, error) {
	if n.Kind != yaml.MappingNode {
		return nil, eris.Errorf("criteria: line %d: expected mapping", n.Line)
	}
	pairs := make([]nodePair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, nodePair{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return pairs, nil
}

func decodeWeights(n *yaml.Node) (Weights, error) {
	cats, err := mappingPairs(n)
	if err != nil {
		return nil, err
	}
	w := make(Weights, 0, len(cats))
	for _, cat := range cats {
		leaves, err := mappingPairs(cat.value)
		if err != nil {
			return nil, eris.Wrapf(err, "category %q", cat.key)
		}
		c := Category{Name: cat.key, Criteria: make([]Criterion, 0, len(leaves))}
		for _, leaf := range leaves {
			var v float64
			if err := leaf.value.Decode(&v); err != nil {
				return nil, eris.Wrapf(err, "criterion %s_%s", cat.key, leaf.key)
			}
			c.Criteria = append(c.Criteria, Criterion{Name: leaf.key, Weight: v})
		}
		w = append(w, c)
	}
	return w, nil
}
