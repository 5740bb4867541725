package domain

import (
	"fmt"
	"math"
	"strings"
)

// Phase is the controller's position in the try-on workflow. Every phase
// other than PhaseIdle means exactly one remote operation is outstanding.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseUploadingSubject   Phase = "uploading_subject"
	PhaseUploadingGarment   Phase = "uploading_garment"
	PhaseTryingOn           Phase = "trying_on"
	PhaseRequestingFeedback Phase = "requesting_feedback"
)

func (p Phase) Busy() bool {
	return p != PhaseIdle
}

// Operation names a user-triggered step of the workflow.
type Operation string

const (
	OpUploadSubject        Operation = "upload_subject"
	OpUploadGarment        Operation = "upload_garment"
	OpSelectCatalogGarment Operation = "select_catalog_garment"
	OpTryOn                Operation = "tryon"
	OpFeedback             Operation = "feedback"
)

// Phase returns the phase held while the operation is in flight. Catalog
// selection never leaves PhaseIdle.
func (o Operation) Phase() Phase {
	switch o {
	case OpUploadSubject:
		return PhaseUploadingSubject
	case OpUploadGarment:
		return PhaseUploadingGarment
	case OpTryOn:
		return PhaseTryingOn
	case OpFeedback:
		return PhaseRequestingFeedback
	default:
		return PhaseIdle
	}
}

func (o Operation) stepName() string {
	switch o {
	case OpUploadSubject:
		return "User upload"
	case OpUploadGarment:
		return "Garment upload"
	case OpSelectCatalogGarment:
		return "Garment selection"
	case OpTryOn:
		return "Try-on"
	case OpFeedback:
		return "Feedback"
	default:
		return "Operation"
	}
}

// FailureMessage renders the single human-readable session error for a
// failed step, e.g. "Try-on failed. connection refused".
func (o Operation) FailureMessage(detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return o.stepName() + " failed."
	}
	return o.stepName() + " failed. " + detail
}

type BodyMetrics struct {
	HeightCm float64 `json:"height"`
	WeightKg float64 `json:"weight"`
}

func (m BodyMetrics) Validate() error {
	if !isPositive(m.HeightCm) {
		return WrapError(ErrInvalidInput, "body metrics", fmt.Errorf("height must be a positive number of centimetres"))
	}
	if !isPositive(m.WeightKg) {
		return WrapError(ErrInvalidInput, "body metrics", fmt.Errorf("weight must be a positive number of kilograms"))
	}
	return nil
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// SubjectPhoto is the user's own photo plus the metrics sent with it.
type SubjectPhoto struct {
	Photo   Photo
	Metrics BodyMetrics
}

func (s SubjectPhoto) Validate() error {
	if s.Photo.IsZero() {
		return WrapError(ErrInvalidInput, "subject photo", fmt.Errorf("photo is required"))
	}
	return s.Metrics.Validate()
}

// SubjectUploadResult mirrors the backend's upload_user response. Its JSON
// form is forwarded verbatim as the feedback request's user info.
type SubjectUploadResult struct {
	StoredPath string  `json:"user_image_path"`
	MaskPath   string  `json:"user_mask_path,omitempty"`
	HeightCm   float64 `json:"height"`
	WeightKg   float64 `json:"weight"`
}

// GarmentUploadResult is the garment reference in effect. Catalog picks
// fill Name and Size; manual uploads leave them empty.
type GarmentUploadResult struct {
	StoredPath       string `json:"garment_image_path"`
	MeasurementsText string `json:"measurements"`
	Name             string `json:"name,omitempty"`
	Size             string `json:"size,omitempty"`
}

type TryOnResult struct {
	ResultImagePath string `json:"tryon_result"`
	SubjectPath     string `json:"user_image,omitempty"`
	GarmentPath     string `json:"garment_image,omitempty"`
	Description     string `json:"llm_description,omitempty"`
}

type TryOnRequest struct {
	SubjectPath      string
	GarmentPath      string
	MeasurementsText string
	HeightCm         float64
	WeightKg         float64
}

type FeedbackRequest struct {
	ResultImagePath string
	Subject         SubjectUploadResult
	Garment         GarmentUploadResult
}

// State is the whole session. Transitions never mutate a State in place;
// pointer fields reference values that are not modified after creation.
type State struct {
	Phase         Phase
	Subject       *SubjectPhoto
	SubjectUpload *SubjectUploadResult
	Garment       GarmentSelection
	GarmentUpload *GarmentUploadResult
	TryOn         *TryOnResult
	Feedback      string
	Error         string
}

func NewState() State {
	return State{Phase: PhaseIdle}
}

func (s State) Busy() bool {
	return s.Phase.Busy()
}

func (s State) CanTryOn() bool {
	return !s.Busy() && s.SubjectUpload != nil && s.GarmentUpload != nil
}

func (s State) CanRequestFeedback() bool {
	return !s.Busy() && s.TryOn != nil
}

// TryOnRequest assembles the try-on inputs. Callers must check CanTryOn.
func (s State) TryOnRequest() TryOnRequest {
	return TryOnRequest{
		SubjectPath:      s.SubjectUpload.StoredPath,
		GarmentPath:      s.GarmentUpload.StoredPath,
		MeasurementsText: s.GarmentUpload.MeasurementsText,
		HeightCm:         s.SubjectUpload.HeightCm,
		WeightKg:         s.SubjectUpload.WeightKg,
	}
}

// FeedbackRequest assembles the feedback inputs. Callers must check
// CanRequestFeedback.
func (s State) FeedbackRequest() FeedbackRequest {
	req := FeedbackRequest{ResultImagePath: s.TryOn.ResultImagePath}
	if s.SubjectUpload != nil {
		req.Subject = *s.SubjectUpload
	}
	if s.GarmentUpload != nil {
		req.Garment = *s.GarmentUpload
	}
	return req
}
