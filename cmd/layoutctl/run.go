package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	runParagraphs int
	runPages      int
	runRatio      float64
	runContexts   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured workload once and print a summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyWorkloadFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		h, err := newHost(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer h.close()

		sum, err := h.runBatch(ctx, h.workloadOptions())
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(sum)
		}
		printSummary(sum)
		return nil
	},
}

func init() {
	addWorkloadFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addWorkloadFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&runParagraphs, "paragraphs", 0, "Paragraphs per context")
	cmd.Flags().IntVar(&runPages, "pages", 0, "Pages per paragraph")
	cmd.Flags().Float64Var(&runRatio, "explicit-ratio", 0, "Share of paragraphs closed explicitly")
	cmd.Flags().IntVar(&runContexts, "contexts", 0, "Number of contexts to run")
}

// applyWorkloadFlags lets flags that were set override the config file.
func applyWorkloadFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("paragraphs") {
		cfg.Workload.Paragraphs = runParagraphs
	}
	if cmd.Flags().Changed("pages") {
		cfg.Workload.PagesPerParagraph = runPages
	}
	if cmd.Flags().Changed("explicit-ratio") {
		cfg.Workload.ExplicitRatio = runRatio
	}
	if cmd.Flags().Changed("contexts") {
		cfg.Workload.Contexts = runContexts
	}
}

func printSummary(sum Summary) {
	printInfo("Engine: %s\n", sum.Engine)
	for _, rep := range sum.Reports {
		printInfo("\nContext %s\n", rep.Context)
		printInfo("  paragraphs:      %d\n", rep.Paragraphs)
		printInfo("  pages:           %d\n", rep.Pages)
		printInfo("  closed:          %d\n", rep.ExplicitPages)
		printInfo("  abandoned:       %d\n", rep.AbandonedPages)
		printInfo("  left for sweep:  %d pages, %d break records\n", rep.After.Pages, rep.After.BreakRecords)
		printInfo("  handle capacity: %d\n", rep.After.HandleCapacity)
	}
	printInfo("\nDeferred destroys: %d executed, %d dropped\n", sum.DeferredExecuted, sum.DeferredDropped)
	printInfo("Elapsed: %s\n", sum.Elapsed)
}
