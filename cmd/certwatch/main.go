package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/function61/certwatch/pkg/certscanner"
	"github.com/function61/gokit/dynversion"
	"github.com/function61/gokit/logex"
	"github.com/function61/gokit/osutil"
	"github.com/spf13/cobra"
)

func main() {
	if insideLambda() {
		lambda.Start(lambdaHandler)
		return
	}

	if err := rootEntry().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootEntry() *cobra.Command {
	tgts := targets{}
	configPath := ""
	dryRun := false

	root := &cobra.Command{
		Use:   os.Args[0],
		Short: "Emails reminders about expiring X.509 certificates (run daily)",
		Long: `Checks PEM certificates' expiration dates and emails a reminder when the days left
match a configured deadline (default 15, 10, 7, 4, 3, 2 and 1 days), on expiration day
and every day after the certificate has expired.`,
		Version:       dynversion.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tgts.Empty() { // nothing asked, nothing done
				return nil
			}

			rootLogger := logex.StandardLogger()

			conf, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			_, err = check(osutil.CancelOnInterruptOrTerminate(rootLogger), *conf, tgts, dryRun, rootLogger)
			return err
		},
	}

	targetFlags(root, &tgts)
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration (default "+defaultConfigPath+" if it exists)")
	root.Flags().BoolVarP(&dryRun, "dry-run", "n", dryRun, "Evaluate but don't send notifications")

	root.AddCommand(reportEntry(&configPath))

	return root
}

func targetFlags(cmd *cobra.Command, tgts *targets) {
	cmd.Flags().StringArrayVarP(&tgts.Files, "file", "f", nil, "Check expiration date of certificate FILE (repeatable)")
	cmd.Flags().StringArrayVarP(&tgts.Directories, "directory", "d", nil, "Check expiration dates of *.pem certificates in DIRECTORY (repeatable)")
	cmd.Flags().StringArrayVarP(&tgts.S3, "s3", "", nil, "Check *.pem certificates under s3://BUCKET/PREFIX (repeatable)")
}

func check(
	ctx context.Context,
	conf config,
	tgts targets,
	dryRun bool,
	logger *log.Logger,
) ([]certscanner.Result, error) {
	a, err := newApp(conf, dryRun, logger)
	if err != nil {
		return nil, err
	}

	return a.scan(ctx, tgts)
}
