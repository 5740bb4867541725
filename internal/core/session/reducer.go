package session

import (
	"fmt"
	"strings"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

// Reduce applies one event to s and returns the next state. A rejected
// event returns s unchanged together with a typed error:
//   - ErrBusy when a trigger arrives while an operation is in flight,
//   - ErrPrecondition when try-on or feedback inputs are absent,
//   - ErrInvalidInput when trigger arguments are malformed,
//   - ErrIllegalTransition when a completion does not match the phase.
func Reduce(s domain.State, ev Event) (domain.State, error) {
	switch e := ev.(type) {
	case SubjectUploadRequested:
		if err := requireIdle(s, domain.OpUploadSubject); err != nil {
			return s, err
		}
		if err := e.Subject.Validate(); err != nil {
			return s, err
		}
		next := s
		subject := e.Subject
		next.Subject = &subject
		next.SubjectUpload = nil
		next.TryOn = nil
		next.Feedback = ""
		next.Error = ""
		next.Phase = domain.PhaseUploadingSubject
		return next, nil

	case SubjectUploadSucceeded:
		if err := requirePhase(s, domain.PhaseUploadingSubject); err != nil {
			return s, err
		}
		next := s
		result := e.Result
		next.SubjectUpload = &result
		next.Phase = domain.PhaseIdle
		return next, nil

	case GarmentUploadRequested:
		if err := requireIdle(s, domain.OpUploadGarment); err != nil {
			return s, err
		}
		if err := e.Garment.Validate(); err != nil {
			return s, err
		}
		next := clearGarment(s)
		next.Garment = e.Garment
		next.Phase = domain.PhaseUploadingGarment
		return next, nil

	case GarmentUploadSucceeded:
		if err := requirePhase(s, domain.PhaseUploadingGarment); err != nil {
			return s, err
		}
		next := s
		result := e.Result
		next.GarmentUpload = &result
		next.Phase = domain.PhaseIdle
		return next, nil

	case CatalogGarmentSelected:
		if err := requireIdle(s, domain.OpSelectCatalogGarment); err != nil {
			return s, err
		}
		if _, ok := e.Garment.Item.MeasurementFor(e.Garment.Size); !ok {
			return s, domain.WrapError(domain.ErrInvalidInput, string(domain.OpSelectCatalogGarment),
				fmt.Errorf("garment %d has no size %q", e.Garment.Item.ID, e.Garment.Size))
		}
		next := clearGarment(s)
		result := e.Garment.UploadResult()
		next.Garment = e.Garment
		next.GarmentUpload = &result
		return next, nil

	case TryOnRequested:
		if err := requireIdle(s, domain.OpTryOn); err != nil {
			return s, err
		}
		if s.SubjectUpload == nil || s.GarmentUpload == nil {
			return s, domain.WrapError(domain.ErrPrecondition, string(domain.OpTryOn),
				fmt.Errorf("subject and garment must both be uploaded"))
		}
		next := s
		next.TryOn = nil
		next.Feedback = ""
		next.Error = ""
		next.Phase = domain.PhaseTryingOn
		return next, nil

	case TryOnSucceeded:
		if err := requirePhase(s, domain.PhaseTryingOn); err != nil {
			return s, err
		}
		next := s
		next.Phase = domain.PhaseIdle
		if strings.TrimSpace(e.Result.ResultImagePath) == "" {
			missing := &domain.MissingFieldError{Operation: string(domain.OpTryOn), Field: "tryon_result"}
			next.TryOn = nil
			next.Error = domain.OpTryOn.FailureMessage(missing.UserMessage())
			return next, nil
		}
		result := e.Result
		next.TryOn = &result
		next.Feedback = ""
		return next, nil

	case FeedbackRequested:
		if err := requireIdle(s, domain.OpFeedback); err != nil {
			return s, err
		}
		if s.TryOn == nil {
			return s, domain.WrapError(domain.ErrPrecondition, string(domain.OpFeedback),
				fmt.Errorf("no try-on result to comment on"))
		}
		next := s
		next.Error = ""
		next.Phase = domain.PhaseRequestingFeedback
		return next, nil

	case FeedbackSucceeded:
		if err := requirePhase(s, domain.PhaseRequestingFeedback); err != nil {
			return s, err
		}
		next := s
		next.Feedback = e.Text
		next.Phase = domain.PhaseIdle
		return next, nil

	case OperationFailed:
		if err := requirePhase(s, e.Operation.Phase()); err != nil {
			return s, err
		}
		next := s
		switch e.Operation {
		case domain.OpUploadSubject:
			next.SubjectUpload = nil
		case domain.OpUploadGarment:
			next.GarmentUpload = nil
		case domain.OpTryOn:
			next.TryOn = nil
		}
		next.Error = e.Operation.FailureMessage(e.Message)
		next.Phase = domain.PhaseIdle
		return next, nil

	case Reset:
		return domain.NewState(), nil

	default:
		return s, domain.WrapError(domain.ErrIllegalTransition, "reduce", fmt.Errorf("unknown event %T", ev))
	}
}

// clearGarment drops the previous garment and everything derived from it.
func clearGarment(s domain.State) domain.State {
	next := s
	next.Garment = nil
	next.GarmentUpload = nil
	next.TryOn = nil
	next.Feedback = ""
	next.Error = ""
	return next
}

func requireIdle(s domain.State, op domain.Operation) error {
	if s.Phase.Busy() {
		return domain.WrapError(domain.ErrBusy, string(op), fmt.Errorf("session is %s", s.Phase))
	}
	return nil
}

func requirePhase(s domain.State, want domain.Phase) error {
	if !want.Busy() || s.Phase != want {
		return domain.WrapError(domain.ErrIllegalTransition, "complete", fmt.Errorf("session is %s, expected %s", s.Phase, want))
	}
	return nil
}
