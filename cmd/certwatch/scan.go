package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/function61/certwatch/pkg/certscanner"
	"github.com/function61/certwatch/pkg/certsource"
	"github.com/function61/certwatch/pkg/notifier"
	"github.com/function61/gokit/logex"
)

type app struct {
	scanner *certscanner.Scanner
	s3      *certsource.S3Bucket // nil if AWS region not known
	logl    *logex.Leveled
}

func newApp(conf config, dryRun bool, logger *log.Logger) (*app, error) {
	deadlines, err := conf.deadlines()
	if err != nil {
		return nil, fmt.Errorf("deadlines: %w", err)
	}

	location, err := conf.location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	transport, err := makeTransport(conf, logger)
	if err != nil {
		return nil, err
	}

	notif, err := notifier.New(conf.notifierConfig(), transport)
	if err != nil {
		return nil, err
	}

	router := &certsource.Router{Local: certsource.Filesystem{}}

	var s3Bucket *certsource.S3Bucket
	if conf.AwsRegion != "" {
		s3Bucket, err = certsource.NewS3Bucket(conf.AwsRegion)
		if err != nil {
			return nil, err
		}

		router.S3 = s3Bucket
	}

	return &app{
		scanner: certscanner.New(certscanner.Config{
			Deadlines: deadlines,
			Location:  location,
			DryRun:    dryRun,
		}, router, notif, logex.Prefix("scanner", logger)),
		s3:   s3Bucket,
		logl: logex.Levels(logger),
	}, nil
}

func makeTransport(conf config, logger *log.Logger) (notifier.Transport, error) {
	switch conf.Transport {
	case "sendmail", "":
		return notifier.NewSendmail(conf.SendmailPath), nil
	case "smtp":
		if conf.SMTP == nil || conf.SMTP.Addr == "" {
			return nil, errors.New("transport smtp requires smtp.addr")
		}

		return notifier.NewSMTP(conf.SMTP.Addr, conf.SMTP.Username, conf.SMTP.Password), nil
	case "ses":
		if conf.AwsRegion == "" {
			return nil, errors.New("transport ses requires aws_region")
		}

		return notifier.NewSES(conf.AwsRegion)
	case "log":
		return notifier.NewLog(logex.Prefix("mail", logger)), nil
	default:
		return nil, fmt.Errorf("unsupported transport: %s", conf.Transport)
	}
}

// processes all targets in order (files, directories, buckets). targets that can't be used,
// and certificates that fail, are reported in the returned error after everything is processed
func (a *app) scan(ctx context.Context, tgts targets) ([]certscanner.Result, error) {
	results := []certscanner.Result{}
	targetErrs := []error{}

	for _, file := range tgts.Files {
		result := a.scanner.ProcessFile(ctx, file)

		var confErr *certscanner.ConfigurationError
		if errors.As(result.Err, &confErr) {
			targetErrs = append(targetErrs, confErr)
			continue
		}

		results = append(results, result)
	}

	for _, dir := range tgts.Directories {
		dirResults, err := a.scanner.ProcessDirectory(ctx, dir)
		results = append(results, dirResults...)
		if err != nil {
			targetErrs = append(targetErrs, err)
		}
	}

	for _, location := range tgts.S3 {
		if a.s3 == nil {
			targetErrs = append(targetErrs, &certscanner.ConfigurationError{
				Target: location,
				Err:    errors.New("aws_region not configured"),
			})
			continue
		}

		bucketResults, err := a.scanner.ProcessListing(ctx, a.s3, location)
		results = append(results, bucketResults...)
		if err != nil {
			targetErrs = append(targetErrs, err)
		}
	}

	for _, err := range targetErrs {
		a.logl.Error.Println(err.Error())
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}

	return results, scanError(targetErrs, certscanner.Failed(results))
}

func scanError(targetErrs []error, failed []certscanner.Result) error {
	if len(targetErrs) == 0 && len(failed) == 0 {
		return nil
	}

	for _, err := range targetErrs {
		var confErr *certscanner.ConfigurationError
		if errors.As(err, &confErr) {
			continue
		}

		// unexpected, surface as-is
		return err
	}

	return fmt.Errorf(
		"%d target(s) could not be scanned, %d certificate(s) failed (see log)",
		len(targetErrs),
		len(failed))
}
