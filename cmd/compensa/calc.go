package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"compensa/internal/pipeline"
	"compensa/internal/render"
)

func (a *app) calcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Send the table to the API and show the compensation",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			domain, err := a.parsedDomain()
			if err != nil {
				return err
			}
			p, err := a.ws.Panel(cmd.Context(), domain, false)
			if err != nil {
				return err
			}

			out := p.Submit(cmd.Context())
			if errors.Is(out.Err, pipeline.ErrSubmitInFlight) {
				fmt.Fprintln(cmd.ErrOrStderr(), render.InFlightMessage)
				return errReported
			}

			w := cmd.OutOrStdout()
			if out.OK() {
				fmt.Fprintln(w, a.term.Rows(domain, p.Rows()))
				for _, u := range out.Batch.Unmatched {
					fmt.Fprintln(cmd.ErrOrStderr(), a.term.Warn(unmatchedLine(u.Index, u.Reason)))
				}
			}
			fmt.Fprint(w, a.term.Status(p.Status()))
			if out.StoreErr != nil {
				return fmt.Errorf("result not saved: %w", out.StoreErr)
			}
			if !out.OK() {
				return errReported
			}
			return nil
		}),
	}
	a.domainFlag(cmd)
	return cmd
}

func unmatchedLine(index *int, reason string) string {
	if reason == "" {
		reason = "sem regra de compensação"
	}
	if index == nil {
		return "- " + reason
	}
	return fmt.Sprintf("- linha %d: %s", *index+1, reason)
}

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write the table to an xlsx or HTML file",
		Long:  "Writes the saved table and its last total. Relative paths are placed under OUTPUT_DIR.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			domain, err := a.parsedDomain()
			if err != nil {
				return err
			}
			path := args[0]
			if !filepath.IsAbs(path) {
				path = filepath.Join(a.cfg.OutputDir, path)
			}
			if err := a.ws.Export(cmd.Context(), domain, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}
	a.domainFlag(cmd)
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent submissions",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			domain, err := a.parsedDomain()
			if err != nil {
				return err
			}
			runs, err := a.ws.History(domain, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.term.Runs(runs))
			return nil
		}),
	}
	a.domainFlag(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs")
	return cmd
}
