// Feeds certificates through date extraction, expiration policy and notification
package certscanner

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/function61/certwatch/pkg/certsource"
	"github.com/function61/certwatch/pkg/expirypolicy"
	"github.com/function61/gokit/logex"
)

type Notifier interface {
	Notify(ctx context.Context, certName string, event expirypolicy.Event) error
}

type Config struct {
	Deadlines expirypolicy.Deadlines
	Location  *time.Location // "today" is decided in this timezone. nil = local
	DryRun    bool           // evaluate but don't notify
}

// outcome of processing one certificate
type Result struct {
	Cert     certsource.Reference
	Expires  time.Time // zero if date extraction failed
	Event    expirypolicy.Event
	Notified bool
	Err      error // *certsource.DateExtractionError | *notifier.DeliveryError | *ConfigurationError | other
}

type Scanner struct {
	conf     Config
	source   certsource.DateSource
	notifier Notifier
	now      func() time.Time
	logl     *logex.Leveled
}

func New(
	conf Config,
	source certsource.DateSource,
	notifier Notifier,
	logger *log.Logger,
) *Scanner {
	if conf.Location == nil {
		conf.Location = time.Local
	}

	return &Scanner{
		conf:     conf,
		source:   source,
		notifier: notifier,
		now:      time.Now,
		logl:     logex.Levels(logger),
	}
}

func (s *Scanner) ProcessFile(ctx context.Context, path string) Result {
	ref, err := certsource.FileReference(path)
	if err != nil {
		return Result{Cert: certsource.Reference{Name: path, Location: path}, Err: err}
	}

	// a target that isn't there is the operator's mistake, not a broken certificate
	if _, err := os.Stat(ref.Location); err != nil {
		return Result{Cert: ref, Err: &ConfigurationError{path, err}}
	}

	return s.Process(ctx, ref)
}

func (s *Scanner) ProcessDirectory(ctx context.Context, dir string) ([]Result, error) {
	refs, err := certsource.ListDirectory(dir)
	if err != nil {
		return nil, &ConfigurationError{dir, err}
	}

	return s.ProcessAll(ctx, refs)
}

type Lister interface {
	List(ctx context.Context, location string) ([]certsource.Reference, error)
}

// e.g. an S3 bucket prefix
func (s *Scanner) ProcessListing(ctx context.Context, lister Lister, location string) ([]Result, error) {
	refs, err := lister.List(ctx, location)
	if err != nil {
		return nil, &ConfigurationError{location, err}
	}

	return s.ProcessAll(ctx, refs)
}

// certificates are processed one at a time, in order. a failing certificate doesn't
// stop the others. only context cancellation stops early
func (s *Scanner) ProcessAll(ctx context.Context, refs []certsource.Reference) ([]Result, error) {
	results := []Result{}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, s.Process(ctx, ref))
	}

	return results, nil
}

// locate -> extract date -> evaluate -> notify
func (s *Scanner) Process(ctx context.Context, ref certsource.Reference) Result {
	result := Result{Cert: ref}

	expires, err := s.source.ExpirationDate(ctx, ref)
	if err != nil {
		s.logl.Error.Printf("%s: %v", ref.Name, err)
		result.Err = err
		return result
	}

	result.Expires = expires
	result.Event = s.Evaluate(expires)

	if !result.Event.ShouldNotify() {
		s.logl.Debug.Printf("%s: expires %s, no action", ref.Name, expires.Format(time.RFC3339))
		return result
	}

	if s.conf.DryRun {
		s.logl.Info.Printf("%s: %s %d (dry run, not notifying)", ref.Name, result.Event.Kind, result.Event.Days)
		return result
	}

	if err := s.notifier.Notify(ctx, ref.Name, result.Event); err != nil {
		s.logl.Error.Printf("%s: %v", ref.Name, err)
		result.Err = err
		return result
	}

	s.logl.Info.Printf("%s: %s %d, notified", ref.Name, result.Event.Kind, result.Event.Days)
	result.Notified = true

	return result
}

// the expiration date is the calendar date of NotAfter as written in the certificate
// (GMT), while "today" is the date in our configured timezone
func (s *Scanner) Evaluate(expires time.Time) expirypolicy.Event {
	return expirypolicy.Evaluate(ExpirationDate(expires), s.today(), s.conf.Deadlines)
}

func (s *Scanner) DaysUntil(expires time.Time) int {
	return expirypolicy.DaysUntil(ExpirationDate(expires), s.today())
}

func (s *Scanner) today() time.Time {
	return s.now().In(s.conf.Location)
}

// NotAfter is encoded as UTC, and its date is taken as-is
func ExpirationDate(expires time.Time) time.Time {
	return expires.UTC()
}

// a scan target (file, directory, bucket) that could not be used at all
type ConfigurationError struct {
	Target string
	Err    error
}

func (c *ConfigurationError) Error() string {
	return fmt.Sprintf("target %s: %v", c.Target, c.Err)
}

func (c *ConfigurationError) Unwrap() error {
	return c.Err
}

func Failed(results []Result) []Result {
	failed := []Result{}
	for _, result := range results {
		if result.Err != nil {
			failed = append(failed, result)
		}
	}

	return failed
}
