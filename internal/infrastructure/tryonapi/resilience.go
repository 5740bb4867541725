package tryonapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
	"github.com/kirillkom/virtual-tryon/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "tryon backend status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("tryon backend %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("tryon backend %s status: %s: %s", e.Operation, e.Status, e.Body)
}

func (e *HTTPStatusError) Unwrap() error {
	return domain.ErrHTTPStatus
}

func (e *HTTPStatusError) UserMessage() string {
	if e.Body == "" {
		return "Server responded " + e.Status
	}
	return "Server responded " + e.Status + ": " + e.Body
}

// classifyBackendError never marks an error retryable: each operation is a
// single exchange. Only transport failures and 5xx trip the breaker.
func classifyBackendError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{RecordFailure: false}
	}
	if domain.IsKind(err, domain.ErrTransport) {
		return resilience.ErrorClassification{RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return resilience.ErrorClassification{RecordFailure: statusErr.StatusCode >= http.StatusInternalServerError}
	}
	return resilience.ErrorClassification{RecordFailure: false}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil {
		return nil
	}
	if resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
