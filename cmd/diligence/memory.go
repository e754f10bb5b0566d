package main

import (
	"context"
	"encoding/json"

	"github.com/hreddy742/enterprise-ai-due-diligence-agent/internal/runtime"
	"github.com/spf13/cobra"
)

func memoryCMD(a *app) *cobra.Command {
	memory := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the vector memory",
	}

	var company string
	var k int
	search := &cobra.Command{
		Use:   "search [query]",
		Short: "Similarity search over stored findings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.must(); err != nil {
				return err
			}
			comps, err := runtime.Build(cmd.Context(), a.cfg, a.logger, runtime.BuildOptions{})
			if err != nil {
				return err
			}
			defer comps.Close(context.Background())
			query := args[0]
			for _, arg := range args[1:] {
				query += " " + arg
			}
			docs, err := comps.Memory.Retrieve(cmd.Context(), query, company, k)
			if err != nil {
				return err
			}
			return printJSON(cmd, docs)
		},
	}
	search.Flags().StringVar(&company, "company", "", "restrict results to one company")
	search.Flags().IntVar(&k, "k", 8, "number of results")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show vector and metadata counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.must(); err != nil {
				return err
			}
			comps, err := runtime.Build(cmd.Context(), a.cfg, a.logger, runtime.BuildOptions{})
			if err != nil {
				return err
			}
			defer comps.Close(context.Background())
			return printJSON(cmd, comps.Index.Stats())
		},
	}

	memory.AddCommand(search, stats)
	return memory
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
