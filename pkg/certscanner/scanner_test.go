package certscanner

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/function61/certwatch/pkg/certsource"
	"github.com/function61/certwatch/pkg/expirypolicy"
	"github.com/function61/certwatch/pkg/notifier"
	"github.com/function61/certwatch/pkg/testcert"
	"github.com/function61/gokit/assert"
)

// noon, so "today" is the same date in UTC and in the certs' NotAfter
var t0 = time.Date(2020, 6, 15, 12, 0, 0, 0, time.UTC)

func TestProcessDirectory(t *testing.T) {
	dir := tempDir(t)

	writeCert(t, dir, "a.pem", 7)
	writeCert(t, dir, "b.PEM", 9)
	writeCert(t, dir, "c.crt", 0) // ignored, wrong extension
	writeCert(t, dir, "d.pem", -3)
	writeCert(t, dir, "e.pem", 0)

	scanner, notified := newTestScanner(certsource.Filesystem{}, nil)

	results, err := scanner.ProcessDirectory(context.Background(), dir)
	assert.Ok(t, err)

	assert.EqualString(t, summarize(results), strings.Join([]string{
		"a.pem expiring 7 notified=true",
		"b.PEM ok 0 notified=false",
		"d.pem expired 3 notified=true",
		"e.pem expiring-today 0 notified=true",
	}, "\n"))

	assert.EqualString(t, strings.Join(*notified, "\n"), strings.Join([]string{
		"Certificate expiration in 7 : a.pem",
		"Certificate expired : d.pem",
		"Certificate will expire today : e.pem",
	}, "\n"))
}

func TestProcessDirectoryIsolatesFailures(t *testing.T) {
	dir := tempDir(t)

	writeCert(t, dir, "a.pem", 4)
	assert.Ok(t, ioutil.WriteFile(filepath.Join(dir, "b.pem"), []byte("-----BEGIN GARBAGE"), 0644))
	writeCert(t, dir, "c.pem", 1)

	scanner, notified := newTestScanner(certsource.Filesystem{}, nil)

	results, err := scanner.ProcessDirectory(context.Background(), dir)
	assert.Ok(t, err)

	assert.Assert(t, len(results) == 3)

	var extractionErr *certsource.DateExtractionError
	assert.Assert(t, errors.As(results[1].Err, &extractionErr))
	assert.Assert(t, results[1].Expires.IsZero())

	assert.Assert(t, len(Failed(results)) == 1)
	assert.EqualString(t, Failed(results)[0].Cert.Name, "b.pem")

	assert.EqualString(t, strings.Join(*notified, "\n"), strings.Join([]string{
		"Certificate expiration in 4 : a.pem",
		"Certificate expiration in 1 : c.pem",
	}, "\n"))
}

func TestProcessDirectoryNotFound(t *testing.T) {
	scanner, _ := newTestScanner(certsource.Filesystem{}, nil)

	missing := filepath.Join(tempDir(t), "nope")

	_, err := scanner.ProcessDirectory(context.Background(), missing)

	var confErr *ConfigurationError
	assert.Assert(t, errors.As(err, &confErr))
	assert.EqualString(t, confErr.Target, missing)
	assert.Assert(t, os.IsNotExist(errors.Unwrap(err)))
}

func TestProcessFile(t *testing.T) {
	dir := tempDir(t)
	path := writeCert(t, dir, "www.pem", 10)

	scanner, notified := newTestScanner(certsource.Filesystem{}, nil)

	result := scanner.ProcessFile(context.Background(), path)
	assert.Ok(t, result.Err)
	assert.Assert(t, result.Notified)
	assert.EqualString(t, result.Cert.Name, path)
	assert.EqualString(t, (*notified)[0], "Certificate expiration in 10 : "+path)

	missingPath := filepath.Join(dir, "missing.pem")
	missing := scanner.ProcessFile(context.Background(), missingPath)
	var configErr *ConfigurationError
	assert.Assert(t, errors.As(missing.Err, &configErr))
	assert.EqualString(t, configErr.Target, missingPath)
	assert.Assert(t, os.IsNotExist(errors.Unwrap(missing.Err)))

	var extractionErr *certsource.DateExtractionError
	assert.Assert(t, !errors.As(missing.Err, &extractionErr))
	assert.Assert(t, len(*notified) == 1)

	// exists but isn't a certificate: that one is the certificate's fault
	garbage := filepath.Join(dir, "garbage.pem")
	assert.Ok(t, ioutil.WriteFile(garbage, []byte("nope"), 0644))
	assert.Assert(t, errors.As(scanner.ProcessFile(context.Background(), garbage).Err, &extractionErr))
}

func TestDeliveryFailureDoesNotStopScan(t *testing.T) {
	scanner, notified := newTestScanner(fakeSource{
		"first.pem":  t0.AddDate(0, 0, 2),
		"second.pem": t0.AddDate(0, 0, 3),
	}, map[string]bool{"first.pem": true})

	results, err := scanner.ProcessAll(context.Background(), refs("first.pem", "second.pem"))
	assert.Ok(t, err)

	var deliveryErr *notifier.DeliveryError
	assert.Assert(t, errors.As(results[0].Err, &deliveryErr))
	assert.Assert(t, !results[0].Notified)

	assert.Ok(t, results[1].Err)
	assert.Assert(t, results[1].Notified)
	assert.EqualString(t, strings.Join(*notified, "\n"), "Certificate expiration in 3 : second.pem")
}

func TestDryRun(t *testing.T) {
	scanner, notified := newTestScanner(fakeSource{"www.pem": t0}, nil)
	scanner.conf.DryRun = true

	result := scanner.Process(context.Background(), certsource.Reference{Name: "www.pem", Location: "www.pem"})
	assert.Ok(t, result.Err)
	assert.EqualString(t, result.Event.Kind.String(), "expiring-today")
	assert.Assert(t, !result.Notified)
	assert.Assert(t, len(*notified) == 0)
}

func TestProcessListing(t *testing.T) {
	scanner, notified := newTestScanner(fakeSource{"a.pem": t0.AddDate(0, 0, 15)}, nil)

	results, err := scanner.ProcessListing(context.Background(), fakeLister{"s3://certs/prod": refs("a.pem")}, "s3://certs/prod")
	assert.Ok(t, err)
	assert.Assert(t, len(results) == 1)
	assert.EqualString(t, (*notified)[0], "Certificate expiration in 15 : a.pem")

	_, err = scanner.ProcessListing(context.Background(), fakeLister{}, "s3://certs/nope")
	var confErr *ConfigurationError
	assert.Assert(t, errors.As(err, &confErr))
}

func TestProcessAllStopsOnCancel(t *testing.T) {
	scanner, _ := newTestScanner(fakeSource{"a.pem": t0}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := scanner.ProcessAll(ctx, refs("a.pem"))
	assert.Assert(t, err == context.Canceled)
	assert.Assert(t, len(results) == 0)
}

func TestEvaluateUsesConfiguredTimezone(t *testing.T) {
	eest := time.FixedZone("EEST", 3*3600)

	// "Jun 22 22:00:00 2020 GMT" is already the 23rd in Helsinki, but the certificate
	// says the 22nd and that's the date we count to
	expires := time.Date(2020, 6, 22, 22, 0, 0, 0, time.UTC)

	scanner, notified := newTestScanner(fakeSource{"www.pem": expires}, nil)
	scanner.conf.Location = eest
	scanner.now = func() time.Time { return time.Date(2020, 6, 15, 12, 0, 0, 0, eest) }

	assert.Assert(t, scanner.DaysUntil(expires) == 7)
	assert.Assert(t, scanner.DaysUntil(expires.In(eest)) == 7)
	assert.EqualString(t, describeEvent(scanner.Evaluate(expires)), "expiring 7")

	result := scanner.Process(context.Background(), certsource.Reference{Name: "www.pem", Location: "www.pem"})
	assert.Ok(t, result.Err)
	assert.EqualString(t, (*notified)[0], "Certificate expiration in 7 : www.pem")

	// 23:30 UTC on the 14th is already the 15th in Helsinki, so "today" moves with the zone
	scanner.now = func() time.Time { return time.Date(2020, 6, 14, 23, 30, 0, 0, time.UTC) }
	assert.Assert(t, scanner.DaysUntil(expires) == 7)

	scanner.conf.Location = time.UTC
	assert.Assert(t, scanner.DaysUntil(expires) == 8)
	assert.EqualString(t, describeEvent(scanner.Evaluate(expires)), "ok 0")
}

func newTestScanner(source certsource.DateSource, failFor map[string]bool) (*Scanner, *[]string) {
	notifications := &recordingNotifier{failFor: failFor}

	scanner := New(Config{
		Deadlines: expirypolicy.DefaultDeadlines,
		Location:  time.UTC,
	}, source, notifications, nil)
	scanner.now = func() time.Time { return t0 }

	return scanner, &notifications.subjects
}

type recordingNotifier struct {
	subjects []string
	failFor  map[string]bool
}

func (r *recordingNotifier) Notify(_ context.Context, certName string, event expirypolicy.Event) error {
	subject, _ := notifier.Format(certName, event)

	if r.failFor[certName] {
		return &notifier.DeliveryError{Subject: subject, Err: errors.New("smtp: 550 mailbox unavailable")}
	}

	r.subjects = append(r.subjects, subject)
	return nil
}

type fakeSource map[string]time.Time

func (f fakeSource) ExpirationDate(_ context.Context, ref certsource.Reference) (time.Time, error) {
	expires, found := f[ref.Location]
	if !found {
		return time.Time{}, &certsource.DateExtractionError{Location: ref.Location, Err: os.ErrNotExist}
	}

	return expires, nil
}

type fakeLister map[string][]certsource.Reference

func (f fakeLister) List(_ context.Context, location string) ([]certsource.Reference, error) {
	listed, found := f[location]
	if !found {
		return nil, fmt.Errorf("NoSuchBucket: %s", location)
	}

	return listed, nil
}

func refs(names ...string) []certsource.Reference {
	refs := []certsource.Reference{}
	for _, name := range names {
		refs = append(refs, certsource.Reference{Name: name, Location: name})
	}

	return refs
}

func summarize(results []Result) string {
	lines := []string{}
	for _, result := range results {
		lines = append(lines, fmt.Sprintf(
			"%s %s %d notified=%v",
			result.Cert.Name,
			result.Event.Kind,
			result.Event.Days,
			result.Notified))
	}

	return strings.Join(lines, "\n")
}

func writeCert(t *testing.T, dir string, name string, expiresInDays int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	assert.Ok(t, ioutil.WriteFile(path, testcert.Pem(name, t0.AddDate(0, 0, expiresInDays)), 0644))

	return path
}

func tempDir(t *testing.T) string {
	t.Helper()

	dir, err := ioutil.TempDir("", "certscanner")
	assert.Ok(t, err)

	t.Cleanup(func() { os.RemoveAll(dir) })

	return dir
}

func describeEvent(e expirypolicy.Event) string {
	return fmt.Sprintf("%s %d", e.Kind, e.Days)
}
