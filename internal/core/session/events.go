package session

import "github.com/kirillkom/virtual-tryon/internal/core/domain"

// Event is an input to Reduce. The set is closed.
type Event interface {
	isEvent()
}

type SubjectUploadRequested struct {
	Subject domain.SubjectPhoto
}

type SubjectUploadSucceeded struct {
	Result domain.SubjectUploadResult
}

type GarmentUploadRequested struct {
	Garment domain.ManualGarment
}

type GarmentUploadSucceeded struct {
	Result domain.GarmentUploadResult
}

// CatalogGarmentSelected completes synchronously; no request is issued.
type CatalogGarmentSelected struct {
	Garment domain.CatalogGarment
}

type TryOnRequested struct{}

type TryOnSucceeded struct {
	Result domain.TryOnResult
}

type FeedbackRequested struct{}

type FeedbackSucceeded struct {
	Text string
}

// OperationFailed completes the in-flight operation with a failure. Message
// is the detail appended to the step prefix.
type OperationFailed struct {
	Operation domain.Operation
	Message   string
}

// Reset discards all session state, including an in-flight operation.
type Reset struct{}

func (SubjectUploadRequested) isEvent() {}
func (SubjectUploadSucceeded) isEvent() {}
func (GarmentUploadRequested) isEvent() {}
func (GarmentUploadSucceeded) isEvent() {}
func (CatalogGarmentSelected) isEvent() {}
func (TryOnRequested) isEvent()         {}
func (TryOnSucceeded) isEvent()         {}
func (FeedbackRequested) isEvent()      {}
func (FeedbackSucceeded) isEvent()      {}
func (OperationFailed) isEvent()        {}
func (Reset) isEvent()                  {}
