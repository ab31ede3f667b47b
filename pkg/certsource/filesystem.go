package certsource

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/function61/gokit/cryptoutil"
)

// reads PEM X.509 certificates from local disk
type Filesystem struct{}

var _ DateSource = Filesystem{}

func (Filesystem) ExpirationDate(_ context.Context, ref Reference) (time.Time, error) {
	certPem, err := ioutil.ReadFile(ref.Location)
	if err != nil {
		return time.Time{}, &DateExtractionError{ref.Location, err}
	}

	return parseExpiration(ref.Location, certPem)
}

// reference to a single file. name stays as the operator wrote it
func FileReference(path string) (Reference, error) {
	absolute, err := filepath.Abs(path)
	if err != nil {
		return Reference{}, err
	}

	return Reference{
		Name:     path,
		Location: absolute,
	}, nil
}

// certificate files directly inside dir (no recursion), in name order
func ListDirectory(dir string) ([]Reference, error) {
	absolute, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	entries, err := ioutil.ReadDir(absolute)
	if err != nil {
		return nil, err
	}

	refs := []Reference{}
	for _, entry := range entries {
		if entry.IsDir() || !hasCertificateExtension(entry.Name()) {
			continue
		}

		refs = append(refs, Reference{
			Name:     entry.Name(),
			Location: filepath.Join(absolute, entry.Name()),
		})
	}

	return refs, nil
}

// first certificate of the PEM (bundles have the leaf first)
func parseExpiration(location string, certPem []byte) (time.Time, error) {
	cert, err := cryptoutil.ParsePemX509Certificate(certPem)
	if err != nil {
		return time.Time{}, &DateExtractionError{location, err}
	}

	return cert.NotAfter, nil
}
