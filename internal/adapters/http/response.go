package httpadapter

import "github.com/kirillkom/virtual-tryon/internal/core/domain"

type sessionResponse struct {
	SessionID          string                      `json:"session_id"`
	Phase              domain.Phase                `json:"phase"`
	Busy               bool                        `json:"busy"`
	CanTryOn           bool                        `json:"can_try_on"`
	CanRequestFeedback bool                        `json:"can_request_feedback"`
	Subject            *domain.SubjectUploadResult `json:"subject,omitempty"`
	Garment            *garmentResponse            `json:"garment,omitempty"`
	TryOn              *domain.TryOnResult         `json:"tryon,omitempty"`
	Feedback           string                      `json:"feedback,omitempty"`
	Error              string                      `json:"error,omitempty"`
}

type garmentResponse struct {
	Source    domain.GarmentSourceKind    `json:"source"`
	GarmentID int                         `json:"garment_id,omitempty"`
	Upload    *domain.GarmentUploadResult `json:"upload,omitempty"`
}

func newSessionResponse(id string, state domain.State) sessionResponse {
	resp := sessionResponse{
		SessionID:          id,
		Phase:              state.Phase,
		Busy:               state.Busy(),
		CanTryOn:           state.CanTryOn(),
		CanRequestFeedback: state.CanRequestFeedback(),
		Subject:            state.SubjectUpload,
		TryOn:              state.TryOn,
		Feedback:           state.Feedback,
		Error:              state.Error,
	}
	if state.Garment != nil {
		garment := &garmentResponse{
			Source: state.Garment.Kind(),
			Upload: state.GarmentUpload,
		}
		if catalogPick, ok := state.Garment.(domain.CatalogGarment); ok {
			garment.GarmentID = catalogPick.Item.ID
		}
		resp.Garment = garment
	}
	return resp
}
