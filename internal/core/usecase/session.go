package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
	"github.com/kirillkom/virtual-tryon/internal/core/ports"
	"github.com/kirillkom/virtual-tryon/internal/core/session"
)

var errSessionReset = errors.New("session was reset while the operation was in flight")

// SessionController owns the try-on session state. The mutex only guards
// state transitions; remote calls run outside it, and the phase recorded by
// the reducer keeps triggers mutually exclusive.
type SessionController struct {
	id       string
	backend  ports.TryOnBackend
	catalog  ports.GarmentCatalog
	events   ports.SessionEventPublisher
	observer ports.OperationObserver
	logger   *slog.Logger

	mu     sync.Mutex
	state  domain.State
	epoch  uint64
	cancel context.CancelFunc
}

type SessionOptions struct {
	Events   ports.SessionEventPublisher
	Observer ports.OperationObserver
	Logger   *slog.Logger
}

func NewSessionController(backend ports.TryOnBackend, catalog ports.GarmentCatalog, opts SessionOptions) *SessionController {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	return &SessionController{
		id:       id,
		backend:  backend,
		catalog:  catalog,
		events:   opts.Events,
		observer: opts.Observer,
		logger:   logger.With("session_id", id),
		state:    domain.NewState(),
	}
}

func (c *SessionController) ID() string {
	return c.id
}

func (c *SessionController) Snapshot() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *SessionController) UploadSubject(ctx context.Context, subject domain.SubjectPhoto) (domain.State, error) {
	return c.run(ctx, domain.OpUploadSubject, session.SubjectUploadRequested{Subject: subject},
		func(callCtx context.Context, _ domain.State) (session.Event, error) {
			result, err := c.backend.UploadSubject(callCtx, subject.Photo, subject.Metrics)
			if err != nil {
				return nil, err
			}
			return session.SubjectUploadSucceeded{Result: result}, nil
		})
}

func (c *SessionController) UploadGarment(ctx context.Context, garment domain.ManualGarment) (domain.State, error) {
	return c.run(ctx, domain.OpUploadGarment, session.GarmentUploadRequested{Garment: garment},
		func(callCtx context.Context, _ domain.State) (session.Event, error) {
			result, err := c.backend.UploadGarment(callCtx, garment.Photo, garment.MeasurementsText)
			if err != nil {
				return nil, err
			}
			return session.GarmentUploadSucceeded{Result: result}, nil
		})
}

// SelectCatalogGarment completes without a network call.
func (c *SessionController) SelectCatalogGarment(ctx context.Context, garmentID int, size string) (domain.State, error) {
	item, err := c.catalog.Get(ctx, garmentID)
	if err != nil {
		return c.Snapshot(), err
	}
	garment, err := domain.NewCatalogGarment(item, size)
	if err != nil {
		return c.Snapshot(), err
	}

	c.mu.Lock()
	next, err := session.Reduce(c.state, session.CatalogGarmentSelected{Garment: garment})
	if err != nil {
		current := c.state
		c.mu.Unlock()
		return current, err
	}
	c.state = next
	c.mu.Unlock()

	c.logger.Info("session_operation",
		"operation", domain.OpSelectCatalogGarment,
		"status", "success",
		"garment_id", garment.Item.ID,
		"size", garment.Size,
	)
	c.publish(ctx, domain.SessionEvent{
		Type:      domain.EventGarmentSelected,
		Operation: domain.OpSelectCatalogGarment,
		GarmentID: garment.Item.ID,
		Size:      garment.Size,
	})
	return next, nil
}

func (c *SessionController) TryOn(ctx context.Context) (domain.State, error) {
	return c.run(ctx, domain.OpTryOn, session.TryOnRequested{},
		func(callCtx context.Context, s domain.State) (session.Event, error) {
			result, err := c.backend.RequestTryOn(callCtx, s.TryOnRequest())
			if err != nil {
				return nil, err
			}
			if result.ResultImagePath == "" {
				return nil, &domain.MissingFieldError{Operation: string(domain.OpTryOn), Field: "tryon_result"}
			}
			return session.TryOnSucceeded{Result: result}, nil
		})
}

func (c *SessionController) RequestFeedback(ctx context.Context) (domain.State, error) {
	return c.run(ctx, domain.OpFeedback, session.FeedbackRequested{},
		func(callCtx context.Context, s domain.State) (session.Event, error) {
			text, err := c.backend.RequestFeedback(callCtx, s.FeedbackRequest())
			if err != nil {
				return nil, err
			}
			return session.FeedbackSucceeded{Text: text}, nil
		})
}

// Reset discards the session. An in-flight operation is cancelled and its
// outcome is dropped when it resolves.
func (c *SessionController) Reset(ctx context.Context) domain.State {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
	c.state, _ = session.Reduce(c.state, session.Reset{})
	current := c.state
	c.mu.Unlock()

	c.logger.Info("session_reset")
	c.publish(ctx, domain.SessionEvent{Type: domain.EventSessionReset})
	return current
}

type remoteCall func(ctx context.Context, s domain.State) (session.Event, error)

func (c *SessionController) run(ctx context.Context, op domain.Operation, trigger session.Event, call remoteCall) (domain.State, error) {
	c.mu.Lock()
	started, err := session.Reduce(c.state, trigger)
	if err != nil {
		current := c.state
		c.mu.Unlock()
		return current, err
	}
	c.state = started
	epoch := c.epoch
	// Only Reset cancels a triggered call; the caller going away does not.
	callCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	if c.observer != nil {
		c.observer.StartOperation(op)
	}
	start := time.Now()
	completion, callErr := call(callCtx, started)
	duration := time.Since(start)
	if callErr != nil {
		completion = session.OperationFailed{Operation: op, Message: userMessage(callErr)}
	}

	c.mu.Lock()
	if c.epoch != epoch {
		current := c.state
		c.mu.Unlock()
		c.finish(ctx, op, duration, errSessionReset)
		return current, domain.WrapError(domain.ErrIllegalTransition, string(op), errSessionReset)
	}
	c.cancel = nil
	next, err := session.Reduce(c.state, completion)
	if err != nil {
		// Completion always matches the phase set by the trigger above.
		current := c.state
		c.mu.Unlock()
		return current, fmt.Errorf("apply %s completion: %w", op, err)
	}
	c.state = next
	c.mu.Unlock()

	c.finish(ctx, op, duration, callErr)
	if callErr != nil {
		return next, callErr
	}
	return next, nil
}

func (c *SessionController) finish(ctx context.Context, op domain.Operation, duration time.Duration, err error) {
	if c.observer != nil {
		c.observer.FinishOperation(op, duration, err)
	}

	durationMS := float64(duration.Microseconds()) / 1000.0
	if err != nil {
		c.logger.Warn("session_operation",
			"operation", op,
			"status", "error",
			"duration_ms", durationMS,
			"error", err,
		)
		c.publish(ctx, domain.SessionEvent{
			Type:       domain.EventOperationFailed,
			Operation:  op,
			Error:      err.Error(),
			DurationMS: durationMS,
		})
		return
	}

	c.logger.Info("session_operation",
		"operation", op,
		"status", "success",
		"duration_ms", durationMS,
	)
	c.publish(ctx, domain.SessionEvent{
		Type:       successEventType(op),
		Operation:  op,
		DurationMS: durationMS,
	})
}

func (c *SessionController) publish(ctx context.Context, event domain.SessionEvent) {
	if c.events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.SessionID = c.id
	event.OccurredAt = time.Now().UTC()
	if err := c.events.PublishSessionEvent(context.WithoutCancel(ctx), event); err != nil {
		c.logger.Warn("session_event_publish_failed", "type", event.Type, "error", err)
	}
}

func successEventType(op domain.Operation) domain.SessionEventType {
	switch op {
	case domain.OpUploadSubject:
		return domain.EventSubjectUploaded
	case domain.OpUploadGarment, domain.OpSelectCatalogGarment:
		return domain.EventGarmentSelected
	case domain.OpTryOn:
		return domain.EventTryOnCompleted
	default:
		return domain.EventFeedbackReceived
	}
}

type userFacingError interface {
	UserMessage() string
}

func userMessage(err error) string {
	var uf userFacingError
	if errors.As(err, &uf) {
		return uf.UserMessage()
	}
	return err.Error()
}
