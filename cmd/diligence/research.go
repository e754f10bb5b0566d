package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	core "github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/agent/core"
	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/runtime"
	"github.com/spf13/cobra"
)

func researchCMD(a *app) *cobra.Command {
	var (
		company  string
		focus    []string
		depth    string
		noMemory bool
		format   string
		archive  bool
	)
	research := &cobra.Command{
		Use:   "research",
		Short: "Run one research pipeline and print the report",
		Example: `  diligence research --company Acme --focus pricing --depth quick
  diligence research --company Acme --focus pricing,risks --no-memory --format markdown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.must(); err != nil {
				return err
			}
			if format != "json" && format != "markdown" {
				return fmt.Errorf("--format must be json or markdown, got %q", format)
			}
			d, err := core.ParseDepth(depth)
			if err != nil {
				return err
			}
			ctx, stop := runtime.SignalContext(cmd.Context())
			defer stop()

			comps, err := runtime.Build(ctx, a.cfg, a.logger, runtime.BuildOptions{WithArchive: archive})
			if err != nil {
				return err
			}
			defer comps.Close(context.Background())

			report, err := comps.Orchestrator.Run(ctx, core.Request{Company: company, Focus: focus, Depth: d, UseMemory: !noMemory})
			if err != nil {
				return err
			}
			if comps.Archive != nil {
				rec, err := comps.Archive.SaveReport(ctx, d, report)
				if err != nil {
					return fmt.Errorf("archive report: %w", err)
				}
				comps.Logger.Infow("report archived", "id", rec.ID)
			}
			return writeReport(cmd.OutOrStdout(), report, format)
		},
	}
	research.Flags().StringVar(&company, "company", "", "company to research")
	research.Flags().StringSliceVar(&focus, "focus", nil, "focus topics (repeatable or comma separated)")
	research.Flags().StringVar(&depth, "depth", "standard", "quick, standard or deep")
	research.Flags().BoolVar(&noMemory, "no-memory", false, "skip vector memory retrieval and persistence")
	research.Flags().StringVar(&format, "format", "json", "json or markdown")
	research.Flags().BoolVar(&archive, "archive", false, "store the report in the postgres archive")
	_ = research.MarkFlagRequired("company")
	return research
}

func writeReport(w io.Writer, report core.Report, format string) error {
	if format == "markdown" {
		_, err := io.WriteString(w, renderMarkdown(report))
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
