package model

// ClassProbability is one entry of the ranked prediction list.
type ClassProbability struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// PredictionResponse is the /predict success body. AllProbabilities is
// sorted by probability descending; PredictedClass and Confidence always
// mirror its first entry.
type PredictionResponse struct {
	PredictedClass   string             `json:"predicted_class"`
	Confidence       float64            `json:"confidence"`
	AllProbabilities []ClassProbability `json:"all_probabilities"`
}
