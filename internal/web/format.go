package web

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/irfndi/heartguard-ai-go/internal/features"
	"github.com/irfndi/heartguard-ai-go/internal/form"
	"github.com/irfndi/heartguard-ai-go/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Casers carry state and are not shared between goroutines.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// Percent formats a probability in [0, 1] as a percentage.
func Percent(p float64, places int32) string {
	return decimal.NewFromFloat(p).Mul(hundred).StringFixed(places) + "%"
}

// Fixed formats v with exactly places decimals.
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Thousands formats an integer with thousands separators.
func Thousands(n int) string {
	return printer().Sprintf("%d", n)
}

// StatValue renders a headline statistic with its prefix, suffix and
// decimals.
func StatValue(prefix string, value float64, decimals int, suffix string) string {
	var body string
	if decimals > 0 {
		body = printer().Sprint(number.Decimal(value, number.Scale(decimals)))
	} else {
		body = printer().Sprintf("%d", int64(value))
	}
	return prefix + body + suffix
}

// RiskTier is the presentation of a consensus risk level.
type RiskTier struct {
	Class string
	Label string
}

var riskTiers = map[string]RiskTier{
	"faible":     {Class: "tier-low", Label: "Low"},
	"modere":     {Class: "tier-moderate", Label: "Moderate"},
	"eleve":      {Class: "tier-high", Label: "High"},
	"tres eleve": {Class: "tier-very-high", Label: "Very high"},
	"low":        {Class: "tier-low", Label: "Low"},
	"moderate":   {Class: "tier-moderate", Label: "Moderate"},
	"high":       {Class: "tier-high", Label: "High"},
	"very high":  {Class: "tier-very-high", Label: "Very high"},
}

// TierOf maps a risk level reported by the scoring service to its tier.
// Unknown levels are shown as high.
func TierOf(level string) RiskTier {
	if t, ok := riskTiers[strings.ToLower(strings.TrimSpace(level))]; ok {
		return t
	}
	return riskTiers["high"]
}

// FeatureLabel returns the display name of a raw or engineered feature.
func FeatureLabel(name string) string {
	if cfg, err := form.Lookup(models.Field(name)); err == nil {
		return cfg.Label
	}
	if d, ok := features.Lookup(name); ok {
		return d.Label
	}
	return titleCase(strings.ReplaceAll(name, "_", " "))
}

// Interpretation is a plain-language summary of a prediction naming its
// strongest factors.
func Interpretation(r *models.PredictionResult, threshold float64) string {
	if r == nil {
		return ""
	}
	prob := Percent(r.Consensus.Probability, 0)
	level := strings.ToLower(TierOf(r.Consensus.RiskLevel).Label)
	factors := topFactorLabels(r, 3)
	cutoff := Percent(threshold, 0)

	if r.Consensus.Prediction == 0 {
		return fmt.Sprintf("The model estimates a %s probability of heart disease, a %s risk. "+
			"The most influential clinical indicators in this assessment are %s. "+
			"The patient profile is below the decision threshold (%s).", prob, level, factors, cutoff)
	}
	return fmt.Sprintf("The model identifies a %s risk with a probability of %s. "+
		"The most decisive factors are %s. "+
		"The patient profile exceeds the clinical decision threshold (%s), which calls for particular attention.",
		level, prob, factors, cutoff)
}

func topFactorLabels(r *models.PredictionResult, n int) string {
	contribs := r.SortedContributions()
	if len(contribs) > n {
		contribs = contribs[:n]
	}
	labels := make([]string, 0, len(contribs))
	for _, c := range contribs {
		labels = append(labels, FeatureLabel(c.Feature))
	}
	switch len(labels) {
	case 0:
		return "not available"
	case 1:
		return labels[0]
	default:
		return strings.Join(labels[:len(labels)-1], ", ") + " and " + labels[len(labels)-1]
	}
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"percent":      Percent,
		"fixed":        Fixed,
		"thousands":    Thousands,
		"statValue":    StatValue,
		"tier":         TierOf,
		"featureLabel": FeatureLabel,
		"title":        titleCase,
		"add":          func(a, b int) int { return a + b },
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"derefInt": func(v *int) int {
			if v == nil {
				return 0
			}
			return *v
		},
	}
}
