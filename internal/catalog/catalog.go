// Package catalog holds the static tables shown on the informational pages:
// headline statistics, training metrics, statistical test results and the
// figure gallery.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Stat is a headline number on the landing page.
type Stat struct {
	Label       string  `yaml:"label" json:"label"`
	Value       float64 `yaml:"value" json:"value"`
	Prefix      string  `yaml:"prefix" json:"prefix,omitempty"`
	Suffix      string  `yaml:"suffix" json:"suffix,omitempty"`
	Decimals    int     `yaml:"decimals" json:"decimals"`
	Description string  `yaml:"description" json:"description"`
}

// ModelMetrics are the validation scores of the production model.
type ModelMetrics struct {
	AUC              float64 `yaml:"auc" json:"auc"`
	AUCBlend         float64 `yaml:"auc_blend" json:"auc_blend"`
	PRAUC            float64 `yaml:"pr_auc" json:"pr_auc"`
	F1               float64 `yaml:"f1" json:"f1"`
	BrierScore       float64 `yaml:"brier_score" json:"brier_score"`
	KSStatistic      float64 `yaml:"ks_statistic" json:"ks_statistic"`
	OptimalThreshold float64 `yaml:"optimal_threshold" json:"optimal_threshold"`
	OptunaTrials     int     `yaml:"optuna_trials" json:"optuna_trials"`
	BestIteration    int     `yaml:"best_iteration" json:"best_iteration"`
	TrainSize        int     `yaml:"train_size" json:"train_size"`
	ValSize          int     `yaml:"val_size" json:"val_size"`
	TotalPatients    int     `yaml:"total_patients" json:"total_patients"`
	AdversarialAUC   float64 `yaml:"adversarial_auc" json:"adversarial_auc"`
}

// Param is one tuned hyperparameter.
type Param struct {
	Name  string  `yaml:"name" json:"name"`
	Value float64 `yaml:"value" json:"value"`
}

// Importance is the mean absolute SHAP value of a feature.
type Importance struct {
	Feature string  `yaml:"feature" json:"feature"`
	Value   float64 `yaml:"value" json:"value"`
}

// Chi2Result is the association of a categorical variable with the target.
type Chi2Result struct {
	Variable    string  `yaml:"variable" json:"variable"`
	CramersV    float64 `yaml:"cramers_v" json:"cramers_v"`
	Significant bool    `yaml:"significant" json:"significant"`
}

// WilcoxonResult is the effect size of a continuous variable.
type WilcoxonResult struct {
	Variable string  `yaml:"variable" json:"variable"`
	Effect   float64 `yaml:"effect" json:"effect"`
	Label    string  `yaml:"label" json:"label"`
}

// PipelineStep is one stage of the training pipeline timeline.
type PipelineStep struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
}

// Baseline is one bar of the landing page AUC comparison.
type Baseline struct {
	Label string  `yaml:"label" json:"label"`
	Value float64 `yaml:"value" json:"value"`
	Tone  string  `yaml:"tone" json:"tone"`
}

// ModelColumn is one column of the training page model table. Pending
// models carry no scores.
type ModelColumn struct {
	Name     string   `yaml:"name" json:"name"`
	Author   string   `yaml:"author" json:"author"`
	Algo     string   `yaml:"algo" json:"algo"`
	AUC      *float64 `yaml:"auc" json:"auc"`
	F1       *float64 `yaml:"f1" json:"f1"`
	Features *int     `yaml:"features" json:"features"`
	Trees    *int     `yaml:"trees" json:"trees"`
	Status   string   `yaml:"status" json:"status"`
}

// Active reports whether the model is deployed.
func (m ModelColumn) Active() bool {
	return m.Status == "active"
}

// Figure is one image of the gallery, served under /figures.
type Figure struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Path  string `yaml:"path" json:"path"`
}

// FigureGroup is a titled set of figures.
type FigureGroup struct {
	ID    string   `yaml:"id" json:"id"`
	Title string   `yaml:"title" json:"title"`
	Items []Figure `yaml:"items" json:"items"`
}

// Catalog is the full set of static tables.
type Catalog struct {
	Disclaimer    string           `yaml:"disclaimer" json:"disclaimer"`
	ProblemStats  []Stat           `yaml:"problem_stats" json:"problem_stats"`
	Metrics       ModelMetrics     `yaml:"model_metrics" json:"model_metrics"`
	BestParams    []Param          `yaml:"best_params" json:"best_params"`
	SHAP          []Importance     `yaml:"shap_importance" json:"shap_importance"`
	Chi2          []Chi2Result     `yaml:"chi2" json:"chi2"`
	Wilcoxon      []WilcoxonResult `yaml:"wilcoxon" json:"wilcoxon"`
	Pipeline      []PipelineStep   `yaml:"pipeline" json:"pipeline"`
	AUCComparison []Baseline       `yaml:"auc_comparison" json:"auc_comparison"`
	ModelColumns  []ModelColumn    `yaml:"model_columns" json:"model_columns"`
	Figures       []FigureGroup    `yaml:"figures" json:"figures"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes a catalog document. Unknown keys are rejected.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse catalog failed: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the invariants the pages rely on.
func (c *Catalog) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Disclaimer) == "" {
		errs = append(errs, errors.New("disclaimer is empty"))
	}
	if len(c.SHAP) == 0 {
		errs = append(errs, errors.New("shap_importance is empty"))
	}
	if !sort.SliceIsSorted(c.SHAP, func(i, j int) bool { return c.SHAP[i].Value > c.SHAP[j].Value }) {
		errs = append(errs, errors.New("shap_importance must be sorted by decreasing value"))
	}
	for _, r := range c.Chi2 {
		if r.CramersV < 0 || r.CramersV > 1 {
			errs = append(errs, fmt.Errorf("chi2 %s: cramers_v %g outside [0, 1]", r.Variable, r.CramersV))
		}
	}
	for _, r := range c.Wilcoxon {
		if r.Effect < 0 || r.Effect > 1 {
			errs = append(errs, fmt.Errorf("wilcoxon %s: effect %g outside [0, 1]", r.Variable, r.Effect))
		}
	}
	seen := make(map[string]bool)
	for _, g := range c.Figures {
		if seen[g.ID] {
			errs = append(errs, fmt.Errorf("duplicate figure group %q", g.ID))
		}
		seen[g.ID] = true
		for _, f := range g.Items {
			if !strings.HasPrefix(f.Path, "/figures/") {
				errs = append(errs, fmt.Errorf("figure %s/%s: path %q must start with /figures/", g.ID, f.ID, f.Path))
			}
		}
	}
	return errors.Join(errs...)
}

// Group returns the figure group with the given id.
func (c *Catalog) Group(id string) (FigureGroup, bool) {
	for _, g := range c.Figures {
		if g.ID == id {
			return g, true
		}
	}
	return FigureGroup{}, false
}

// TopSHAP returns the n most important features.
func (c *Catalog) TopSHAP(n int) []Importance {
	if n <= 0 || n >= len(c.SHAP) {
		return c.SHAP
	}
	return c.SHAP[:n]
}
