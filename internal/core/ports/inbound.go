package ports

import (
	"context"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

// TryOnSession is the inbound contract for the single try-on session. Every
// trigger returns the state after the operation has been handled.
type TryOnSession interface {
	ID() string
	Snapshot() domain.State
	UploadSubject(ctx context.Context, subject domain.SubjectPhoto) (domain.State, error)
	UploadGarment(ctx context.Context, garment domain.ManualGarment) (domain.State, error)
	SelectCatalogGarment(ctx context.Context, garmentID int, size string) (domain.State, error)
	TryOn(ctx context.Context) (domain.State, error)
	RequestFeedback(ctx context.Context) (domain.State, error)
	Reset(ctx context.Context) domain.State
}

// CatalogReader is the inbound read model for the garment catalog.
type CatalogReader interface {
	List(ctx context.Context) ([]domain.CatalogItem, error)
}
