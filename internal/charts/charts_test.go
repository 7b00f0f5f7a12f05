package charts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/heartguard-ai-go/internal/catalog"
	"github.com/irfndi/heartguard-ai-go/internal/models"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	return NewRenderer(c)
}

func TestRender_CatalogCharts(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		name  string
		title string
		label string
	}{
		{SHAP, "SHAP feature importance", "risk_composite"},
		{Chi2, "Chi2 test", "thallium"},
		{Wilcoxon, "Wilcoxon test", "st_depression"},
		{Comparison, "ROC-AUC comparison", "Average physician"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.Render(&buf, tt.name, nil))
			html := buf.String()
			assert.Contains(t, html, "echarts")
			assert.Contains(t, html, tt.title)
			assert.Contains(t, html, tt.label)
		})
	}
}

func TestRender_Contributions(t *testing.T) {
	r := newTestRenderer(t)
	result := &models.PredictionResult{
		FeatureContributions: map[string]float64{
			"thallium":    0.42,
			"max_hr":      -0.31,
			"cholesterol": 0.02,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Contributions, result))
	html := buf.String()
	assert.Contains(t, html, "Feature contributions")
	assert.Contains(t, html, "thallium")
	assert.Contains(t, html, "max_hr")
	assert.Contains(t, html, colorNegative)
}

func TestRender_ContributionsCapped(t *testing.T) {
	r := newTestRenderer(t)
	contrib := make(map[string]float64)
	for i, f := range models.AllFields {
		contrib[string(f)] = float64(i + 1)
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, Contributions, &models.PredictionResult{FeatureContributions: contrib}))
	html := buf.String()
	assert.Contains(t, html, string(models.FieldThallium), "largest weight is kept")
	assert.NotContains(t, html, `"`+string(models.FieldAge)+`"`, "smallest weight is dropped")
}

func TestRender_ContributionsWithoutResult(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	assert.ErrorIs(t, r.Render(&buf, Contributions, nil), ErrNoResult)
	assert.ErrorIs(t, r.Render(&buf, Contributions, &models.PredictionResult{}), ErrNoResult)
	assert.Zero(t, buf.Len())
}

func TestRender_UnknownChart(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	err := r.Render(&buf, "pie", nil)
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"shap", "chi2", "wilcoxon", "comparison", "contributions"}, Names())
}
