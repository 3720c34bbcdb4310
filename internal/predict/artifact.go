package predict

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// FeatureNames are the artifact's input features, in vector order.
var FeatureNames = []string{
	"slope", "elevation", "ndvi", "flood_risk",
	"road_distance", "utilities", "buildability", "env_score",
}

// Node is one node of a regression tree. Leaf nodes carry Value; split nodes
// send x[Feature] <= Threshold to Left, otherwise to Right.
type Node struct {
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
}

// Tree is a flat-array regression tree rooted at node 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Artifact is a trained regression forest. It is read-only once decoded.
type Artifact struct {
	Version            string    `json:"version,omitempty"`
	Trees              []Tree    `json:"trees"`
	FeatureImportances []float64 `json:"feature_importances"`
}

// DecodeArtifact reads and validates an artifact from JSON.
func DecodeArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, eris.Wrap(err, "predict: decode artifact")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks tree structure so Predict cannot index out of range or loop.
func (a *Artifact) Validate() error {
	if len(a.Trees) == 0 {
		return eris.New("predict: artifact has no trees")
	}
	if len(a.FeatureImportances) != len(FeatureNames) {
		return eris.Errorf("predict: expected %d feature importances, got %d",
			len(FeatureNames), len(a.FeatureImportances))
	}
	for ti, t := range a.Trees {
		if len(t.Nodes) == 0 {
			return eris.Errorf("predict: tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(FeatureNames) {
				return eris.Errorf("predict: tree %d node %d: feature %d out of range", ti, ni, n.Feature)
			}
			// Children must point forward, which rules out cycles.
			if n.Left <= ni || n.Left >= len(t.Nodes) || n.Right <= ni || n.Right >= len(t.Nodes) {
				return eris.Errorf("predict: tree %d node %d: invalid children %d/%d", ti, ni, n.Left, n.Right)
			}
		}
	}
	return nil
}

// Predict returns the mean of the tree predictions for x.
func (a *Artifact) Predict(x [8]float64) float64 {
	var sum float64
	for _, t := range a.Trees {
		sum += t.predict(x)
	}
	return sum / float64(len(a.Trees))
}

func (t Tree) predict(x [8]float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Importances returns the feature importances keyed by feature name.
func (a *Artifact) Importances() map[string]float64 {
	out := make(map[string]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		out[name] = a.FeatureImportances[i]
	}
	return out
}
