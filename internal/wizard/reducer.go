package wizard

import "github.com/irfndi/heartguard-ai-go/internal/form"

// Reduce returns the state that follows s under a. It never mutates s and
// has no side effects. Edits of the record or step are ignored while a
// submission is loading.
func Reduce(s State, a Action) State {
	if s.Loading && editsForm(a) {
		return s
	}
	switch act := a.(type) {
	case SetField:
		if next, ok := s.Record.With(act.Field, act.Value); ok {
			s.Record = next
		}
		return s

	case NextStep:
		s.Step = clampStep(s.Step + 1)
		return s

	case PrevStep:
		s.Step = clampStep(s.Step - 1)
		return s

	case GoToStep:
		s.Step = clampStep(act.Step)
		s.Result = nil
		s.Error = ""
		return s

	case LoadPreset:
		s.Record = act.Record
		s.Step = form.LastStep()
		s.Result = nil
		s.Error = ""
		return s

	case SubmitStart:
		if s.Loading {
			return s
		}
		s.Loading = true
		s.Error = ""
		s.Result = nil
		s.Attempt++
		s.SubmittedAt = act.At
		return s

	case SubmitSuccess:
		s.Loading = false
		s.Result = act.Result
		s.Error = ""
		return s

	case SubmitError:
		s.Loading = false
		s.Result = nil
		s.Error = act.Message
		return s

	case Reset:
		next := Initial()
		next.APIHealth = s.APIHealth
		next.Attempt = s.Attempt
		return next

	case SetAPIHealth:
		if act.Healthy {
			s.APIHealth = HealthHealthy
		} else {
			s.APIHealth = HealthUnhealthy
		}
		return s

	default:
		return s
	}
}
