package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"launchpad/config"
	"launchpad/storage/journal"
)

// runExportJournal dumps the event journal to parquet for offline analysis.
// It opens only the journal, so it can run next to a live daemon.
func runExportJournal(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("export-journal", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfgPath := fs.String("config", "./config.toml", "path to the launchpad configuration")
	out := fs.String("out", "", "destination parquet file")
	after := fs.Uint64("after", 0, "export records with a sequence greater than this")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *out == "" {
		fmt.Fprintln(stderr, "--out is required")
		return 1
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	jrnl, err := journal.Open(cfg.JournalPath, slog.New(slog.NewTextHandler(stderr, nil)))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer jrnl.Close()
	n, err := jrnl.ExportParquet(context.Background(), *out, *after)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintf(stdout, "Exported %d events to %s\n", n, *out)
	return 0
}
