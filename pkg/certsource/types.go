// Certificate references and the sources that resolve them to an expiration date
package certsource

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// file extension we look for when enumerating directories and buckets (case-insensitive)
const CertificateExtension = ".pem"

type Reference struct {
	Name     string // for humans (shows up in notifications)
	Location string // absolute path or s3://bucket/key
}

// resolves a certificate's validity end (= NotAfter). failures should be *DateExtractionError
type DateSource interface {
	ExpirationDate(ctx context.Context, ref Reference) (time.Time, error)
}

type DateExtractionError struct {
	Location string
	Err      error
}

func (d *DateExtractionError) Error() string {
	return fmt.Sprintf("extract expiration date from %s: %v", d.Location, d.Err)
}

func (d *DateExtractionError) Unwrap() error {
	return d.Err
}

func hasCertificateExtension(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), CertificateExtension)
}
