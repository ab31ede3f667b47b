package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/function61/certwatch/pkg/certscanner"
	"github.com/function61/gokit/logex"
	"github.com/function61/gokit/osutil"
	"github.com/scylladb/termtables"
	"github.com/spf13/cobra"
)

func reportEntry(configPath *string) *cobra.Command {
	tgts := targets{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print expiration status of certificates (sends nothing)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootLogger := logex.StandardLogger()

			conf, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			return report(osutil.CancelOnInterruptOrTerminate(rootLogger), *conf, tgts, os.Stdout, rootLogger)
		},
	}

	targetFlags(cmd, &tgts)

	return cmd
}

func report(ctx context.Context, conf config, tgts targets, out io.Writer, logger *log.Logger) error {
	// report must never mail, regardless of what's configured
	conf.Transport = "log"

	a, err := newApp(conf, true, logger)
	if err != nil {
		return err
	}

	results, scanErr := a.scan(ctx, tgts)

	fmt.Fprint(out, reportTable(results, a.scanner))

	return scanErr
}

func reportTable(results []certscanner.Result, scanner *certscanner.Scanner) string {
	table := termtables.CreateTable()
	table.AddHeaders("Certificate", "Expires", "Days left", "Status")

	for _, result := range results {
		if result.Err != nil {
			table.AddRow(result.Cert.Name, "", "", "error: "+result.Err.Error())
			continue
		}

		table.AddRow(
			result.Cert.Name,
			certscanner.ExpirationDate(result.Expires).Format("2006-01-02"),
			scanner.DaysUntil(result.Expires),
			result.Event.Kind.String())
	}

	return table.Render()
}
