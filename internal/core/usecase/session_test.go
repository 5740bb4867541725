package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type backendFake struct {
	mu sync.Mutex

	subjectResult domain.SubjectUploadResult
	subjectErr    error
	garmentResult domain.GarmentUploadResult
	garmentErr    error
	tryOnResult   domain.TryOnResult
	tryOnErr      error
	feedbackText  string
	feedbackErr   error

	calls       []string
	tryOnReq    domain.TryOnRequest
	feedbackReq domain.FeedbackRequest

	// entered/release block the next call when set.
	entered chan struct{}
	release chan struct{}
}

// record blocks when entered/release are set and then reports whether the
// call's context was cancelled in the meantime.
func (f *backendFake) record(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	entered, release := f.entered, f.release
	f.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	return ctx.Err()
}

func (f *backendFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *backendFake) UploadSubject(ctx context.Context, _ domain.Photo, _ domain.BodyMetrics) (domain.SubjectUploadResult, error) {
	if err := f.record(ctx, "upload_subject"); err != nil {
		return domain.SubjectUploadResult{}, err
	}
	return f.subjectResult, f.subjectErr
}

func (f *backendFake) UploadGarment(ctx context.Context, _ domain.Photo, measurements string) (domain.GarmentUploadResult, error) {
	if err := f.record(ctx, "upload_garment"); err != nil {
		return domain.GarmentUploadResult{}, err
	}
	if f.garmentErr != nil {
		return domain.GarmentUploadResult{}, f.garmentErr
	}
	result := f.garmentResult
	result.MeasurementsText = measurements
	return result, nil
}

func (f *backendFake) RequestTryOn(ctx context.Context, req domain.TryOnRequest) (domain.TryOnResult, error) {
	if err := f.record(ctx, "tryon"); err != nil {
		return domain.TryOnResult{}, err
	}
	f.tryOnReq = req
	return f.tryOnResult, f.tryOnErr
}

func (f *backendFake) RequestFeedback(ctx context.Context, req domain.FeedbackRequest) (string, error) {
	if err := f.record(ctx, "feedback"); err != nil {
		return "", err
	}
	f.feedbackReq = req
	return f.feedbackText, f.feedbackErr
}

type catalogFake struct {
	items []domain.CatalogItem
}

func (f catalogFake) List(context.Context) ([]domain.CatalogItem, error) {
	return f.items, nil
}

func (f catalogFake) Get(_ context.Context, id int) (domain.CatalogItem, error) {
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.CatalogItem{}, domain.WrapError(domain.ErrNotFound, "catalog get", fmt.Errorf("garment %d", id))
}

type eventsFake struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (f *eventsFake) PublishSessionEvent(_ context.Context, event domain.SessionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type observerFake struct {
	started  []domain.Operation
	finished map[domain.Operation]error
}

func (f *observerFake) StartOperation(op domain.Operation) {
	f.started = append(f.started, op)
}

func (f *observerFake) FinishOperation(op domain.Operation, _ time.Duration, err error) {
	if f.finished == nil {
		f.finished = map[domain.Operation]error{}
	}
	f.finished[op] = err
}

func testCatalog() catalogFake {
	return catalogFake{items: []domain.CatalogItem{{
		ID:    1,
		Name:  "Green \"Boston\" T-Shirt",
		Image: "/uploads/garment_tshirt.jpg",
		Sizes: []string{"XS", "S", "M", "L", "XL", "XXL"},
		Measurements: map[string]string{
			"XS":  "Chest 88cm, Length 64cm",
			"S":   "Chest 92cm, Length 66cm",
			"M":   "Chest 98cm, Length 70cm",
			"L":   "Chest 104cm, Length 74cm",
			"XL":  "Chest 110cm, Length 78cm",
			"XXL": "Chest 116cm, Length 82cm",
		},
	}}}
}

func testSubject(t *testing.T) domain.SubjectPhoto {
	t.Helper()
	photo, err := domain.NewPhoto("me.png", pngHeader)
	if err != nil {
		t.Fatalf("NewPhoto() error = %v", err)
	}
	return domain.SubjectPhoto{Photo: photo, Metrics: domain.BodyMetrics{HeightCm: 170, WeightKg: 70}}
}

func TestSessionEndToEndWithCatalogGarment(t *testing.T) {
	backend := &backendFake{
		subjectResult: domain.SubjectUploadResult{StoredPath: "/u1", HeightCm: 170, WeightKg: 70},
		tryOnResult:   domain.TryOnResult{ResultImagePath: "/r1"},
		feedbackText:  "Great fit!",
	}
	events := &eventsFake{}
	observer := &observerFake{}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{Events: events, Observer: observer})
	ctx := context.Background()

	state, err := uc.UploadSubject(ctx, testSubject(t))
	if err != nil {
		t.Fatalf("UploadSubject() error = %v", err)
	}
	if state.SubjectUpload == nil || state.SubjectUpload.StoredPath != "/u1" {
		t.Fatalf("unexpected subject upload result: %+v", state.SubjectUpload)
	}

	callsBefore := backend.callCount()
	state, err = uc.SelectCatalogGarment(ctx, 1, "M")
	if err != nil {
		t.Fatalf("SelectCatalogGarment() error = %v", err)
	}
	if backend.callCount() != callsBefore {
		t.Fatalf("catalog selection must not call the backend")
	}
	if state.GarmentUpload.StoredPath != "/uploads/garment_tshirt.jpg" || state.GarmentUpload.MeasurementsText != "Chest 98cm, Length 70cm" {
		t.Fatalf("unexpected garment upload result: %+v", state.GarmentUpload)
	}

	state, err = uc.TryOn(ctx)
	if err != nil {
		t.Fatalf("TryOn() error = %v", err)
	}
	if state.TryOn == nil || state.TryOn.ResultImagePath != "/r1" || state.Feedback != "" {
		t.Fatalf("unexpected try-on state: %+v", state)
	}
	want := domain.TryOnRequest{
		SubjectPath:      "/u1",
		GarmentPath:      "/uploads/garment_tshirt.jpg",
		MeasurementsText: "Chest 98cm, Length 70cm",
		HeightCm:         170,
		WeightKg:         70,
	}
	if backend.tryOnReq != want {
		t.Fatalf("unexpected try-on request: %+v", backend.tryOnReq)
	}

	state, err = uc.RequestFeedback(ctx)
	if err != nil {
		t.Fatalf("RequestFeedback() error = %v", err)
	}
	if state.Feedback != "Great fit!" {
		t.Fatalf("expected feedback, got %q", state.Feedback)
	}
	if backend.feedbackReq.ResultImagePath != "/r1" || backend.feedbackReq.Garment.Size != "M" {
		t.Fatalf("unexpected feedback request: %+v", backend.feedbackReq)
	}
	if state.Busy() || state.Error != "" {
		t.Fatalf("expected idle session without error, got %+v", state)
	}

	if len(events.events) != 4 {
		t.Fatalf("expected 4 session events, got %d", len(events.events))
	}
	if events.events[2].Type != domain.EventTryOnCompleted || events.events[2].SessionID != uc.ID() {
		t.Fatalf("unexpected try-on event: %+v", events.events[2])
	}
	if len(observer.started) != 3 {
		t.Fatalf("expected 3 observed remote operations, got %v", observer.started)
	}
}

func TestTryOnTransportFailureSetsSessionError(t *testing.T) {
	backend := &backendFake{
		subjectResult: domain.SubjectUploadResult{StoredPath: "/u1", HeightCm: 170, WeightKg: 70},
		tryOnErr: &domain.TransportError{
			Operation: "virtual_tryon",
			Message:   "connection refused",
			Err:       errors.New(`Post "http://localhost:8000/virtual_tryon": dial tcp: connection refused`),
		},
	}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	ctx := context.Background()

	if _, err := uc.UploadSubject(ctx, testSubject(t)); err != nil {
		t.Fatalf("UploadSubject() error = %v", err)
	}
	if _, err := uc.SelectCatalogGarment(ctx, 1, "M"); err != nil {
		t.Fatalf("SelectCatalogGarment() error = %v", err)
	}

	state, err := uc.TryOn(ctx)
	if err == nil {
		t.Fatalf("expected try-on error")
	}
	if state.Error != "Try-on failed. connection refused" {
		t.Fatalf("unexpected session error %q", state.Error)
	}
	if state.TryOn != nil || state.Busy() {
		t.Fatalf("expected idle session without try-on result, got %+v", state)
	}
}

func TestTryOnBackendErrorIsDistinctFromTransport(t *testing.T) {
	backend := &backendFake{
		subjectResult: domain.SubjectUploadResult{StoredPath: "/u1", HeightCm: 170, WeightKg: 70},
		tryOnErr:      &domain.BackendError{Operation: "tryon", Message: "queue is full"},
	}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	ctx := context.Background()
	_, _ = uc.UploadSubject(ctx, testSubject(t))
	_, _ = uc.SelectCatalogGarment(ctx, 1, "S")

	state, err := uc.TryOn(ctx)
	if !domain.IsKind(err, domain.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if state.Error != "Try-on failed. Backend error: queue is full" {
		t.Fatalf("unexpected session error %q", state.Error)
	}
	if state.TryOn != nil {
		t.Fatalf("expected try-on result to stay absent")
	}
}

func TestTryOnMissingResultIsAnError(t *testing.T) {
	backend := &backendFake{
		subjectResult: domain.SubjectUploadResult{StoredPath: "/u1", HeightCm: 170, WeightKg: 70},
		tryOnResult:   domain.TryOnResult{SubjectPath: "/u1"},
	}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	ctx := context.Background()
	_, _ = uc.UploadSubject(ctx, testSubject(t))
	_, _ = uc.SelectCatalogGarment(ctx, 1, "S")

	state, err := uc.TryOn(ctx)
	if !domain.IsKind(err, domain.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if state.Error != "Try-on failed. No try-on result returned" {
		t.Fatalf("unexpected session error %q", state.Error)
	}
}

func TestFailedSubjectUploadLeavesSessionUsable(t *testing.T) {
	backend := &backendFake{subjectErr: errors.New("status 500")}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	ctx := context.Background()

	state, err := uc.UploadSubject(ctx, testSubject(t))
	if err == nil {
		t.Fatalf("expected upload error")
	}
	if state.SubjectUpload != nil || state.Busy() {
		t.Fatalf("expected idle session without subject upload, got %+v", state)
	}
	if state.Error != "User upload failed. status 500" {
		t.Fatalf("unexpected session error %q", state.Error)
	}

	backend.subjectErr = nil
	backend.subjectResult = domain.SubjectUploadResult{StoredPath: "/u2", HeightCm: 170, WeightKg: 70}
	state, err = uc.UploadSubject(ctx, testSubject(t))
	if err != nil {
		t.Fatalf("retry UploadSubject() error = %v", err)
	}
	if state.SubjectUpload.StoredPath != "/u2" || state.Error != "" {
		t.Fatalf("unexpected state after retry: %+v", state)
	}
}

func TestPreconditionsPreventRequests(t *testing.T) {
	backend := &backendFake{}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	ctx := context.Background()

	if _, err := uc.TryOn(ctx); !domain.IsKind(err, domain.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition for try-on, got %v", err)
	}
	if _, err := uc.RequestFeedback(ctx); !domain.IsKind(err, domain.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition for feedback, got %v", err)
	}
	if backend.callCount() != 0 {
		t.Fatalf("expected no backend requests, got %v", backend.calls)
	}
}

func TestUnknownCatalogGarmentIsNotFound(t *testing.T) {
	uc := NewSessionController(&backendFake{}, testCatalog(), SessionOptions{})
	state, err := uc.SelectCatalogGarment(context.Background(), 42, "M")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if state.GarmentUpload != nil {
		t.Fatalf("expected no garment upload result")
	}
}

func TestBusySpansTheWholeOperation(t *testing.T) {
	backend := &backendFake{
		subjectResult: domain.SubjectUploadResult{StoredPath: "/u1", HeightCm: 170, WeightKg: 70},
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := uc.UploadSubject(ctx, testSubject(t))
		done <- err
	}()

	<-backend.entered
	if state := uc.Snapshot(); state.Phase != domain.PhaseUploadingSubject {
		t.Fatalf("expected uploading phase, got %s", state.Phase)
	}
	if _, err := uc.SelectCatalogGarment(ctx, 1, "M"); !domain.IsKind(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy while uploading, got %v", err)
	}
	if _, err := uc.UploadSubject(ctx, testSubject(t)); !domain.IsKind(err, domain.ErrBusy) {
		t.Fatalf("expected ErrBusy for second upload, got %v", err)
	}
	if backend.callCount() != 1 {
		t.Fatalf("rejected trigger must not issue a request, calls=%v", backend.calls)
	}

	close(backend.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("UploadSubject() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for upload")
	}
	if uc.Snapshot().Busy() {
		t.Fatalf("expected idle session after completion")
	}
}

func TestResetDropsInFlightOutcome(t *testing.T) {
	backend := &backendFake{
		subjectResult: domain.SubjectUploadResult{StoredPath: "/u1", HeightCm: 170, WeightKg: 70},
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := uc.UploadSubject(ctx, testSubject(t))
		done <- err
	}()
	<-backend.entered

	if state := uc.Reset(ctx); state.Busy() {
		t.Fatalf("expected idle state after reset")
	}
	close(backend.release)

	err := <-done
	if !domain.IsKind(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected stale outcome to be rejected, got %v", err)
	}
	if state := uc.Snapshot(); state.SubjectUpload != nil {
		t.Fatalf("stale upload result must not be applied: %+v", state.SubjectUpload)
	}
}

func TestCallerCancellationDoesNotAbortOperation(t *testing.T) {
	backend := &backendFake{
		subjectResult: domain.SubjectUploadResult{StoredPath: "/u1", HeightCm: 170, WeightKg: 70},
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := uc.UploadSubject(ctx, testSubject(t))
		done <- err
	}()
	<-backend.entered

	cancel()
	close(backend.release)

	if err := <-done; err != nil {
		t.Fatalf("UploadSubject() error = %v", err)
	}
	state := uc.Snapshot()
	if state.SubjectUpload == nil || state.SubjectUpload.StoredPath != "/u1" {
		t.Fatalf("expected backend result to be applied, got %+v", state.SubjectUpload)
	}
	if state.Error != "" {
		t.Fatalf("unexpected session error %q", state.Error)
	}
}

func TestManualGarmentUploadUsesTypedMeasurements(t *testing.T) {
	backend := &backendFake{garmentResult: domain.GarmentUploadResult{StoredPath: "uploads/garment_shirt.png"}}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	photo, err := domain.NewPhoto("shirt.png", pngHeader)
	if err != nil {
		t.Fatalf("NewPhoto() error = %v", err)
	}

	state, err := uc.UploadGarment(context.Background(), domain.ManualGarment{Photo: photo, MeasurementsText: "Chest 101cm"})
	if err != nil {
		t.Fatalf("UploadGarment() error = %v", err)
	}
	if state.GarmentUpload.MeasurementsText != "Chest 101cm" || state.Garment.Kind() != domain.GarmentSourceManual {
		t.Fatalf("unexpected garment state: %+v", state)
	}
}

func TestManualGarmentUploadAllowsEmptyMeasurements(t *testing.T) {
	backend := &backendFake{garmentResult: domain.GarmentUploadResult{StoredPath: "uploads/garment_shirt.png"}}
	uc := NewSessionController(backend, testCatalog(), SessionOptions{})
	photo, err := domain.NewPhoto("shirt.png", pngHeader)
	if err != nil {
		t.Fatalf("NewPhoto() error = %v", err)
	}

	state, err := uc.UploadGarment(context.Background(), domain.ManualGarment{Photo: photo})
	if err != nil {
		t.Fatalf("UploadGarment() error = %v", err)
	}
	if state.GarmentUpload == nil || state.GarmentUpload.StoredPath != "uploads/garment_shirt.png" {
		t.Fatalf("expected garment upload to be stored, got %+v", state.GarmentUpload)
	}
	if state.GarmentUpload.MeasurementsText != "" {
		t.Fatalf("expected empty measurements to be kept, got %q", state.GarmentUpload.MeasurementsText)
	}
}
