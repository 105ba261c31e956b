package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cryguy/livefx/internal/journal"
)

func journalFlags(name string) (*flag.FlagSet, *string, *string) {
	fs := flag.NewFlagSet("livefx "+name, flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML config file holding the journal path")
	journalPath := fs.String("journal", "", "journal database (default: journal from the config)")
	return fs, configPath, journalPath
}

func openJournal(configPath, journalPath string) (*journal.Journal, error) {
	if journalPath == "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		journalPath = cfg.Journal
	}
	if journalPath == "" {
		return nil, errors.New("no journal configured; pass -journal")
	}
	if _, err := os.Stat(journalPath); err != nil {
		return nil, fmt.Errorf("journal %s: %w", journalPath, err)
	}
	return journal.Open(journalPath)
}

func runHistory(args []string) int {
	fs, configPath, journalPath := journalFlags("history")
	limit := fs.Int("n", 20, "number of entries to show, 0 for all")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	j, err := openJournal(*configPath, *journalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer j.Close()

	entries, err := j.List(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	printHistory(os.Stdout, entries)
	return 0
}

func printHistory(w io.Writer, entries []journal.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLOADED\tRESULT\tTIME\tSCRIPT\tMESSAGE")
	for _, e := range entries {
		result := "ok"
		if !e.OK {
			result = e.Kind
		}
		msg := strings.ReplaceAll(e.Message, "\n", " ")
		if len(msg) > 80 {
			msg = msg[:77] + "..."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.LoadedAt.Format(time.DateTime), result, e.Duration, e.Path, msg)
	}
	tw.Flush()
}

func runRestore(args []string) int {
	fs, configPath, journalPath := journalFlags("restore")
	out := fs.String("o", "", "write the revision to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: livefx restore [-journal file] [-o file] <id>")
		return 2
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", fs.Arg(0))
		return 2
	}

	j, err := openJournal(*configPath, *journalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer j.Close()

	src, err := j.Source(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *out == "" {
		os.Stdout.Write(src)
		return 0
	}
	if err := os.WriteFile(*out, src, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
