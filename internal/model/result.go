package model

import (
	"sort"
	"strconv"
)

// BuildResponse maps a raw probability vector onto labeled, ranked results.
// Index i of the vector corresponds to classes[i]; surplus indices beyond
// the label set keep their numeric index as the label rather than being
// dropped. The top prediction is the first index reaching the maximum, and
// the stable sort keeps equal probabilities in ascending index order, so
// identical vectors always produce identical output.
func BuildResponse(probs []float32, classes []string) *PredictionResponse {
	ranked := make([]ClassProbability, len(probs))
	if len(probs) == 0 {
		return &PredictionResponse{AllProbabilities: ranked}
	}

	topIdx := 0
	for i, p := range probs {
		ranked[i] = ClassProbability{
			Label:       labelFor(i, classes),
			Probability: float64(p),
		}
		if p > probs[topIdx] {
			topIdx = i
		}
	}
	top := ranked[topIdx]

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Probability > ranked[j].Probability
	})

	return &PredictionResponse{
		PredictedClass:   top.Label,
		Confidence:       top.Probability,
		AllProbabilities: ranked,
	}
}

func labelFor(i int, classes []string) string {
	if i < len(classes) {
		return classes[i]
	}
	return strconv.Itoa(i)
}
