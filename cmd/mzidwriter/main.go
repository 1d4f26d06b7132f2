// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

// mzidwriter writes mzIdentML 1.1 identification documents from a YAML
// job description, resolving annotation names against the PSI-MS, unit
// and UNIMOD controlled vocabularies.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/524D/mzidwriter/cv"
	"github.com/524D/mzidwriter/mzidentml"
)

const progName = "mzidwriter"

var progVersion = `Unknown`

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		outPath  string
		cacheDir string
		noCache  bool
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   progName,
		Short: "Write mzIdentML identification documents",
		Long: `mzidwriter turns a YAML description of a peptide identification
analysis (software, inputs, proteins, peptides, evidence, protocol and
results) into a schema-conformant mzIdentML 1.1 document.

Annotation names are resolved against the PSI-MS, unit and UNIMOD
controlled vocabularies, fetched once and kept in a local cache.`,
		SilenceUsage: true,
	}

	writeCmd := &cobra.Command{
		Use:   "write <job.yaml>",
		Short: "Write a document from a job description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(args[0], outPath, cacheDir, noCache, logLevel)
		},
	}
	writeCmd.Flags().StringVarP(&outPath, "out", "o", "out.mzid", "Output file")
	writeCmd.Flags().StringVar(&cacheDir, "cache-dir", cv.DefaultCacheDir, "Vocabulary cache directory")
	writeCmd.Flags().BoolVar(&noCache, "no-cache", false, "Fetch vocabularies without persisting them")
	writeCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.AddCommand(writeCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", progName, progVersion)
		},
	})

	return cmd
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func runWrite(jobPath, outPath, cacheDir string, noCache bool, logLevel string) error {
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	j, err := loadJob(jobPath)
	if err != nil {
		return err
	}

	cache := cv.NewCache(cacheDir)
	cache.Enabled = !noCache

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	w := mzidentml.NewWriter(out,
		mzidentml.WithSources(cv.DefaultSources(cache)),
		mzidentml.WithLogger(logger))
	writeErr := writeDocument(w, j)
	if closeErr := w.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if closeErr := out.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		// A partly written document is not usable; don't leave it behind.
		os.Remove(outPath)
		return writeErr
	}
	logger.Info("document written", slog.String("path", outPath))
	return nil
}
