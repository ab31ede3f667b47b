package certsource

import (
	"context"
	"errors"
	"strings"
	"time"
)

// dispatches s3:// references to S3 and everything else to the local filesystem
type Router struct {
	Local DateSource
	S3    DateSource // nil if S3 is not configured
}

var _ DateSource = (*Router)(nil)

func (r *Router) ExpirationDate(ctx context.Context, ref Reference) (time.Time, error) {
	if !strings.HasPrefix(ref.Location, s3Scheme) {
		return r.Local.ExpirationDate(ctx, ref)
	}

	if r.S3 == nil {
		return time.Time{}, &DateExtractionError{ref.Location, errors.New("S3 source not configured")}
	}

	return r.S3.ExpirationDate(ctx, ref)
}
