package wizard_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/irfndi/heartguard-ai-go/internal/features"
	"github.com/irfndi/heartguard-ai-go/internal/models"
	"github.com/irfndi/heartguard-ai-go/internal/prediction"
	"github.com/irfndi/heartguard-ai-go/internal/session"
	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

// scriptedPredictor returns whatever the scenario configured.
type scriptedPredictor struct {
	result *models.PredictionResult
	err    error
}

func (p *scriptedPredictor) Predict(context.Context, models.PatientRecord) (*models.PredictionResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.result == nil {
		return nil, errors.New("no outcome configured")
	}
	return p.result, nil
}

type wizardScenario struct {
	predictor  *scriptedPredictor
	controller *wizard.Controller
	state      wizard.State
	lastErr    error
}

func (w *wizardScenario) freshSession() error {
	w.predictor = &scriptedPredictor{}
	store := session.NewMemoryStore(time.Hour, nil)
	w.controller = wizard.NewController(store, w.predictor, staticHealth(true), nil)
	s, err := w.controller.Snapshot(context.Background(), sid)
	w.state = s
	return err
}

func (w *wizardScenario) apply(s wizard.State, err error) error {
	w.lastErr = err
	if err == nil {
		w.state = s
	}
	return nil
}

func (w *wizardScenario) nextTimes(n int) error {
	for i := 0; i < n; i++ {
		s, err := w.controller.Next(context.Background(), sid)
		if err != nil {
			return err
		}
		w.state = s
	}
	return nil
}

func (w *wizardScenario) back() error {
	return w.apply(w.controller.Prev(context.Background(), sid))
}

func (w *wizardScenario) setField(name string, value float64) error {
	f, err := models.ParseField(name)
	if err != nil {
		return err
	}
	return w.apply(w.controller.SetField(context.Background(), sid, f, value))
}

func (w *wizardScenario) answersWith(risk string) error {
	w.predictor.result = resultFor(0.5, risk)
	w.predictor.err = nil
	return nil
}

func (w *wizardScenario) failsWith(msg string) error {
	w.predictor.err = &prediction.APIError{Message: msg, Status: 503, Kind: prediction.KindHTTP}
	return nil
}

func (w *wizardScenario) timesOut() error {
	w.predictor.err = &prediction.APIError{Message: prediction.MessageTimeout, Kind: prediction.KindTimeout, Err: context.DeadlineExceeded}
	return nil
}

func (w *wizardScenario) submit() error {
	s, err := w.controller.Submit(context.Background(), sid)
	if err != nil {
		return err
	}
	w.state = s
	return nil
}

func (w *wizardScenario) loadPreset(id string) error {
	s, err := w.controller.LoadPreset(context.Background(), sid, id)
	if err != nil {
		return err
	}
	w.state = s
	return nil
}

func (w *wizardScenario) modify() error {
	s, err := w.controller.Modify(context.Background(), sid)
	if err != nil {
		return err
	}
	w.state = s
	return nil
}

func (w *wizardScenario) onStep(n int) error {
	if w.state.Step != n {
		return fmt.Errorf("expected step %d, got %d", n, w.state.Step)
	}
	return nil
}

func (w *wizardScenario) fieldShouldBe(name string, want float64) error {
	f, err := models.ParseField(name)
	if err != nil {
		return err
	}
	got, _ := w.state.Record.Get(f)
	if got != want {
		return fmt.Errorf("expected %s = %g, got %g", name, want, got)
	}
	return nil
}

func (w *wizardScenario) rejected() error {
	if !errors.Is(w.lastErr, wizard.ErrInvalidField) {
		return fmt.Errorf("expected an invalid field error, got %v", w.lastErr)
	}
	return nil
}

func (w *wizardScenario) showsResult(risk string) error {
	if w.state.Phase() != wizard.PhaseShowingResult {
		return fmt.Errorf("expected a result, phase is %s", w.state.Phase())
	}
	if got := w.state.Result.Consensus.RiskLevel; got != risk {
		return fmt.Errorf("expected risk %q, got %q", risk, got)
	}
	return nil
}

func (w *wizardScenario) showsError(msg string) error {
	if w.state.Phase() != wizard.PhaseShowingError {
		return fmt.Errorf("expected an error, phase is %s", w.state.Phase())
	}
	if w.state.Error != msg {
		return fmt.Errorf("expected error %q, got %q", msg, w.state.Error)
	}
	return nil
}

func (w *wizardScenario) showsTimeout() error {
	return w.showsError(prediction.MessageTimeout)
}

func (w *wizardScenario) notLoading() error {
	if w.state.Loading {
		return errors.New("wizard is still loading")
	}
	return nil
}

func (w *wizardScenario) editing() error {
	if w.state.Phase() != wizard.PhaseEditing {
		return fmt.Errorf("expected editing, phase is %s", w.state.Phase())
	}
	return nil
}

func (w *wizardScenario) compositeShouldBe(n int) error {
	if got := features.RiskComposite(w.state.Record); got != n {
		return fmt.Errorf("expected composite %d, got %d", n, got)
	}
	return nil
}

func TestWizardFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeWizardScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func initializeWizardScenario(sc *godog.ScenarioContext) {
	w := &wizardScenario{}

	sc.Step(`^a fresh wizard session$`, w.freshSession)
	sc.Step(`^I go to the next step (\d+) times$`, w.nextTimes)
	sc.Step(`^I go back one step$`, w.back)
	sc.Step(`^I set "([^"]*)" to (-?\d+(?:\.\d+)?)$`, w.setField)
	sc.Step(`^the scoring service answers with risk "([^"]*)"$`, w.answersWith)
	sc.Step(`^the scoring service fails with "([^"]*)"$`, w.failsWith)
	sc.Step(`^the scoring service times out$`, w.timesOut)
	sc.Step(`^I submit the form$`, w.submit)
	sc.Step(`^I load the "([^"]*)" preset$`, w.loadPreset)
	sc.Step(`^I choose to modify the answers$`, w.modify)
	sc.Step(`^I should be on step (\d+)$`, w.onStep)
	sc.Step(`^the record field "([^"]*)" should be (-?\d+(?:\.\d+)?)$`, w.fieldShouldBe)
	sc.Step(`^the change should be rejected$`, w.rejected)
	sc.Step(`^the wizard should show a result with risk "([^"]*)"$`, w.showsResult)
	sc.Step(`^the wizard should show the error "([^"]*)"$`, w.showsError)
	sc.Step(`^the wizard should show the timeout error$`, w.showsTimeout)
	sc.Step(`^the wizard should not be loading$`, w.notLoading)
	sc.Step(`^the wizard should be editing$`, w.editing)
	sc.Step(`^the composite risk score should be (\d+)$`, w.compositeShouldBe)
}
