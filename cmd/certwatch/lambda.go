package main

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/function61/gokit/logex"
)

func insideLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// invoked by a scheduled CloudWatch Events rule, e.g. "cron(0 6 * * ? *)".
// what to scan comes from config, because scheduled events carry no parameters
func lambdaHandler(ctx context.Context, _ events.CloudWatchEvent) error {
	conf, err := loadConfig(os.Getenv("CERTWATCH_CONFIG"))
	if err != nil {
		return err
	}

	if conf.Targets.Empty() {
		return errors.New("no targets in configuration")
	}

	logger := logex.StandardLogger()

	a, err := newApp(*conf, false, logger)
	if err != nil {
		return err
	}

	// failures are already logged. returning an error would make Lambda retry the
	// async invocation, re-sending notifications that did go out
	if _, err := a.scan(ctx, conf.Targets); err != nil {
		logex.Levels(logger).Error.Println(err.Error())
	}

	return nil
}
