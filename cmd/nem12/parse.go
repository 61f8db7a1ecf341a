package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/nem12ingest/internal/core"
	"github.com/JonMunkholm/nem12ingest/internal/nem12"
)

// parseReport is the structured output of the parse command.
type parseReport struct {
	File     string               `json:"file" yaml:"file"`
	Readings []nem12.MeterReading `json:"readings" yaml:"readings"`
	Errors   []nem12.ErrorEvent   `json:"errors" yaml:"errors"`
	Audit    *nem12.AuditRecord   `json:"audit,omitempty" yaml:"audit,omitempty"`
	Failure  string               `json:"failure,omitempty" yaml:"failure,omitempty"`
}

func newParseCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a file without touching the database",
		Long: "Parse a NEM12 file and print every reading, every rejected record and the\n" +
			"audit line. Nothing is written to the database or the error log.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validOutput(output); err != nil {
				return err
			}
			return a.parse(cmd, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format: text, json or yaml")
	return cmd
}

func (a *app) parse(cmd *cobra.Command, path, output string) error {
	svc, err := core.NewService(nil, a.cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	name := filepath.Base(path)

	if output == outputText {
		_, err := svc.ParseOnly(cmd.Context(), name, f, textSinks(out))
		return err
	}

	report := parseReport{File: name, Readings: []nem12.MeterReading{}, Errors: []nem12.ErrorEvent{}}
	audit, parseErr := svc.ParseOnly(cmd.Context(), name, f, nem12.Sinks{
		Readings: nem12.ReadingFunc(func(r nem12.MeterReading) {
			report.Readings = append(report.Readings, r)
		}),
		Errors: nem12.ErrorFunc(func(ev nem12.ErrorEvent) error {
			report.Errors = append(report.Errors, ev)
			return nil
		}),
	})
	if parseErr != nil {
		report.Failure = parseErr.Error()
	} else {
		report.Audit = &audit
	}

	if err := writeStructured(out, output, report); err != nil {
		return err
	}
	return parseErr
}

// textSinks prints records as they are found.
func textSinks(w io.Writer) nem12.Sinks {
	return nem12.Sinks{
		Readings: nem12.ReadingFunc(func(r nem12.MeterReading) {
			fmt.Fprintf(w, "Reading: %s\n", r)
		}),
		Errors: nem12.ErrorFunc(func(ev nem12.ErrorEvent) error {
			_, err := fmt.Fprintf(w, "Error: %s (%s)\n", ev, ev.Kind)
			return err
		}),
		Audit: nem12.AuditFunc(func(rec nem12.AuditRecord) {
			fmt.Fprintf(w, "Audit: %s\n", rec)
		}),
	}
}
