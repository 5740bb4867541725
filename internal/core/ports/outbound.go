package ports

import (
	"context"
	"time"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

// TryOnBackend performs the four remote exchanges. Each call is a single
// request with no retries.
type TryOnBackend interface {
	UploadSubject(ctx context.Context, photo domain.Photo, metrics domain.BodyMetrics) (domain.SubjectUploadResult, error)
	UploadGarment(ctx context.Context, photo domain.Photo, measurements string) (domain.GarmentUploadResult, error)
	RequestTryOn(ctx context.Context, req domain.TryOnRequest) (domain.TryOnResult, error)
	RequestFeedback(ctx context.Context, req domain.FeedbackRequest) (string, error)
}

// GarmentCatalog resolves catalog entries locally.
type GarmentCatalog interface {
	List(ctx context.Context) ([]domain.CatalogItem, error)
	Get(ctx context.Context, id int) (domain.CatalogItem, error)
}

// SessionEventPublisher emits notifications about finished steps.
type SessionEventPublisher interface {
	PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error
}

// OperationObserver records operation timings.
type OperationObserver interface {
	StartOperation(op domain.Operation)
	FinishOperation(op domain.Operation, duration time.Duration, err error)
}

// ResultImageStore persists inline try-on results.
type ResultImageStore interface {
	SaveResultImage(ctx context.Context, name, ref string) (string, error)
}
