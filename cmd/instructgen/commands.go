package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/ahrav/go-instructgen/internal/dataset"
	"github.com/ahrav/go-instructgen/internal/prompt"
	"github.com/ahrav/go-instructgen/internal/runlog"
)

// verifyCmd re-reads a dataset strictly and prints per-category counts.
func verifyCmd(args []string, stdout, stderr io.Writer) error {
	cfg, fs, err := loadConfig("verify", args, stderr, nil)
	if err != nil {
		return err
	}
	path := cfg.Output.Path
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	summary, err := dataset.Verify(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: %d records\n", path, summary.Records)
	categories := make([]string, 0, len(summary.ByCategory))
	for c := range summary.ByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, c := range categories {
		fmt.Fprintf(tw, "  %s\t%d\n", c, summary.ByCategory[c])
	}
	return tw.Flush()
}

// historyCmd lists recent runs from the run history database.
func historyCmd(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var limit int
	cfg, _, err := loadConfig("history", args, stderr, func(fs *flag.FlagSet) {
		fs.IntVar(&limit, "n", 20, "number of runs to list")
	})
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("-history is required")
	}

	store, err := runlog.Open(ctx, cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tREQUESTED\tPRODUCED\tDROPPED\tDURATION\tOUTPUT")
	for _, r := range runs {
		status := ""
		if r.Cancelled {
			status = " (cancelled)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s%s\n",
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Requested,
			r.Produced,
			r.Dropped,
			r.Duration.Round(time.Millisecond),
			r.OutputPath,
			status)
	}
	return tw.Flush()
}

// corpusCmd writes the effective template corpus as YAML.
func corpusCmd(args []string, stdout, stderr io.Writer) error {
	cfg, _, err := loadConfig("corpus", args, stderr, nil)
	if err != nil {
		return err
	}

	corpus, err := prompt.Load(cfg.Corpus.Path, cfg.Corpus.Categories...)
	if err != nil {
		return err
	}
	return prompt.WriteCorpus(stdout, corpus)
}
