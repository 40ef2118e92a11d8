package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"crop-analysis-service/models"

	"github.com/apex/log"
)

// node is one decision-tree node. Internal nodes route on a feature
// threshold; leaves carry a class-vote distribution.
type node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      int       `json:"l"`
	Right     int       `json:"r"`
	Votes     []float64 `json:"v,omitempty"`
}

func (n *node) leaf() bool {
	return n.Feature < 0
}

type tree struct {
	Nodes []node `json:"nodes"`
}

type scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

type artifact struct {
	Version int      `json:"version"`
	Classes []string `json:"classes"`
	Scaler  scaler   `json:"scaler"`
	Trees   []tree   `json:"trees"`
}

// Classifier is a pre-trained random forest over the six NDVI features.
// It is immutable after Load and safe for concurrent use.
type Classifier struct {
	classes []string
	scaler  scaler
	trees   []tree
}

// Load reads and validates the model artifact. Callers treat a failure
// here as fatal: without the model the service cannot classify at all.
func Load(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact %s: %w", path, err)
	}

	if err := validate(&a); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}

	log.Infof("Loaded crop classification model: %d trees, %d classes", len(a.Trees), len(a.Classes))

	return &Classifier{
		classes: a.Classes,
		scaler:  a.Scaler,
		trees:   a.Trees,
	}, nil
}

func validate(a *artifact) error {
	if len(a.Classes) != models.NumClasses {
		return fmt.Errorf("artifact has %d classes, expected %d", len(a.Classes), models.NumClasses)
	}
	if len(a.Scaler.Mean) != models.NumFeatures || len(a.Scaler.Std) != models.NumFeatures {
		return fmt.Errorf("scaler dimensions %d/%d do not match %d features",
			len(a.Scaler.Mean), len(a.Scaler.Std), models.NumFeatures)
	}
	for i, s := range a.Scaler.Std {
		if s <= 0 {
			return fmt.Errorf("scaler std for feature %d is non-positive", i)
		}
	}
	if len(a.Trees) == 0 {
		return fmt.Errorf("artifact contains no trees")
	}
	for ti, t := range a.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.leaf() {
				if len(n.Votes) != models.NumClasses {
					return fmt.Errorf("tree %d leaf %d has %d votes", ti, ni, len(n.Votes))
				}
				continue
			}
			if n.Feature >= models.NumFeatures {
				return fmt.Errorf("tree %d node %d splits on unknown feature %d", ti, ni, n.Feature)
			}
			if n.Left < 0 || n.Left >= len(t.Nodes) || n.Right < 0 || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d has out-of-range children", ti, ni)
			}
		}
	}
	return nil
}

// Classify maps a feature vector to probabilities over the four crop
// classes. The output is the vote average across all trees and sums
// to 1 by construction.
func (c *Classifier) Classify(features models.FeatureVector) (models.ClassProbabilities, error) {
	var scaled [models.NumFeatures]float64
	for i := range features {
		scaled[i] = (features[i] - c.scaler.Mean[i]) / c.scaler.Std[i]
	}

	var probs models.ClassProbabilities
	for ti := range c.trees {
		votes, err := c.trees[ti].eval(scaled)
		if err != nil {
			return models.ClassProbabilities{}, fmt.Errorf("tree %d: %w", ti, err)
		}
		for i := range probs {
			probs[i] += votes[i]
		}
	}
	for i := range probs {
		probs[i] /= float64(len(c.trees))
	}
	return probs, nil
}

func (t *tree) eval(scaled [models.NumFeatures]float64) ([]float64, error) {
	n := &t.Nodes[0]
	// Bounded by node count; validated trees cannot cycle longer.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if n.leaf() {
			return n.Votes, nil
		}
		if scaled[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return nil, fmt.Errorf("no leaf reached after %d steps", len(t.Nodes))
}

// Labels returns the class labels in classifier output order.
func (c *Classifier) Labels() []string {
	return c.classes
}
