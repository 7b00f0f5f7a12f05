package models

import "sort"

// ConsensusResult represents the aggregated outcome across all scoring models
type ConsensusResult struct {
	Probability float64 `json:"probability"`
	Prediction  int     `json:"prediction"`
	RiskLevel   string  `json:"risk_level"`
	Agreement   string  `json:"agreement"`
	Confidence  string  `json:"confidence"`
}

// ModelResult represents the outcome of a single scoring model
type ModelResult struct {
	Name        string   `json:"name"`
	Algo        string   `json:"algo"`
	Probability float64  `json:"probability"`
	Prediction  int      `json:"prediction"`
	AUC         *float64 `json:"auc"`
	Threshold   float64  `json:"threshold"`
	Confidence  string   `json:"confidence"`
}

// PredictionResult represents the response of a successful predict call
type PredictionResult struct {
	Consensus            ConsensusResult    `json:"consensus"`
	Models               []ModelResult      `json:"models"`
	FeatureContributions map[string]float64 `json:"feature_contributions"`
	ProcessingTimeMS     float64            `json:"processing_time_ms"`
	Disclaimer           string             `json:"disclaimer"`
}

// Contribution is one entry of the feature contribution map.
type Contribution struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// SortedContributions returns the feature contributions ordered by weight,
// largest first. Ties are broken by feature name so output is stable.
func (r *PredictionResult) SortedContributions() []Contribution {
	if r == nil {
		return nil
	}
	out := make([]Contribution, 0, len(r.FeatureContributions))
	for k, v := range r.FeatureContributions {
		out = append(out, Contribution{Feature: k, Weight: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight == out[j].Weight {
			return out[i].Feature < out[j].Feature
		}
		return out[i].Weight > out[j].Weight
	})
	return out
}

// HealthStatus represents the prediction service health payload
type HealthStatus struct {
	Status       string   `json:"status"`
	ModelsLoaded int      `json:"models_loaded"`
	ModelNames   []string `json:"model_names"`
}

// ModelInfo describes one model loaded by the prediction service
type ModelInfo struct {
	ModelType             string             `json:"model_type"`
	AUCValidation         *float64           `json:"auc_validation"`
	BestF1                *float64           `json:"best_f1"`
	PRAUC                 *float64           `json:"pr_auc"`
	BrierScore            *float64           `json:"brier_score"`
	OptimalThreshold      float64            `json:"optimal_threshold"`
	NFeatures             *int               `json:"n_features"`
	BestIteration         *int               `json:"best_iteration"`
	TrainSize             *int               `json:"train_size"`
	Features              []string           `json:"features"`
	FeatureImportanceSHAP map[string]float64 `json:"feature_importance_shap"`
}

// ModelsInfo maps model names to their metadata
type ModelsInfo map[string]ModelInfo

// Names returns the model names in lexical order.
func (m ModelsInfo) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
