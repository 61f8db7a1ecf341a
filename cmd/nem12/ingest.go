package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nem12ingest/internal/core"
)

// ingestReport is the structured output of the ingest command.
type ingestReport struct {
	Results []*core.IngestResult `json:"results" yaml:"results"`
	Skipped []string             `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Failed  []ingestFailure      `json:"failed,omitempty" yaml:"failed,omitempty"`
}

type ingestFailure struct {
	Path  string `json:"path" yaml:"path"`
	Error string `json:"error" yaml:"error"`
	Code  string `json:"code" yaml:"code"`
}

var errIngestFailed = errors.New("one or more files failed to ingest")

func newIngestCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "ingest <file|dir>...",
		Short: "Ingest files or directories once and exit",
		Long: "Ingest each file, or every file with a registered extension in each\n" +
			"directory. Directories get the inbox treatment: known content is skipped\n" +
			"and ingested files are moved to the processed directory.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			svc, cleanup, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report := ingestPaths(cmd.Context(), svc, args)
			if err := writeIngestReport(cmd.OutOrStdout(), output, report); err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return errIngestFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json or yaml")
	return cmd
}

// ingester is the part of the service the ingest command drives.
type ingester interface {
	IngestFile(ctx context.Context, path string) (*core.IngestResult, error)
	IngestDir(ctx context.Context, dir string) (*core.DirResult, error)
}

func ingestPaths(ctx context.Context, svc ingester, paths []string) *ingestReport {
	report := &ingestReport{}
	fail := func(path string, err error) {
		report.Failed = append(report.Failed, ingestFailure{
			Path: path, Error: err.Error(), Code: core.MapError(err).Code,
		})
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			fail(path, err)
			continue
		}

		if info.IsDir() {
			res, err := svc.IngestDir(ctx, path)
			if res != nil {
				report.Results = append(report.Results, res.Ingested...)
				report.Skipped = append(report.Skipped, res.Skipped...)
				for _, f := range res.Failed {
					fail(f.Path, errors.New(f.Error))
				}
			}
			if err != nil {
				fail(path, err)
			}
			continue
		}

		res, err := svc.IngestFile(ctx, path)
		if res != nil {
			report.Results = append(report.Results, res)
		}
		if err != nil {
			fail(path, err)
		}
	}
	return report
}

func writeIngestReport(w io.Writer, output string, report *ingestReport) error {
	if output != outputText {
		return writeStructured(w, output, report)
	}

	for _, res := range report.Results {
		fmt.Fprintf(w, "%-9s %s  run=%s  emitted=%d inserted=%d errors=%d\n",
			res.Status, res.FileName, res.RunID, res.RowsEmitted, res.RowsInserted, res.ErrorCount)
	}
	for _, path := range report.Skipped {
		fmt.Fprintf(w, "%-9s %s  already ingested\n", "skipped", path)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "%-9s %s  %s [%s]\n", "error", f.Path, f.Error, f.Code)
	}
	return nil
}
