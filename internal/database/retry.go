package database

import (
	"context"

	"github.com/kozaktomas/face-attendance/internal/apperr"
)

// RetryOnce runs a durable write and retries it a single time on failure.
// A write that fails twice is reported as a storage error naming the document.
func RetryOnce(ctx context.Context, document string, write func(ctx context.Context) error) error {
	err := write(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return apperr.Storage("failed to save "+document, err)
	}
	if err = write(ctx); err != nil {
		return apperr.Storage("failed to save "+document, err)
	}
	return nil
}
