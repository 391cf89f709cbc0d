package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"compensa/internal"
	"compensa/internal/render"
)

func (a *app) municipalitiesCmd() *cobra.Command {
	var refresh, all bool
	cmd := &cobra.Command{
		Use:   "municipalities",
		Short: "List the municipalities a table accepts",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if all {
				return a.refreshAll(cmd)
			}
			domain, err := a.parsedDomain()
			if err != nil {
				return err
			}
			names, err := a.ws.Catalog().Municipalities(cmd.Context(), domain, refresh)
			if err != nil {
				a.log.Debug("municipality load failed", zap.Error(err))
				fmt.Fprintln(cmd.ErrOrStderr(), render.MunicipalityLoadError(domain))
				return errReported
			}
			w := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(w, name)
			}
			return nil
		}),
	}
	a.domainFlag(cmd)
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached list")
	cmd.Flags().BoolVar(&all, "all", false, "reload every list from the API and show how many names each has")
	return cmd
}

func (a *app) refreshAll(cmd *cobra.Command) error {
	lists, err := a.ws.Catalog().Refresh(cmd.Context())
	if err != nil {
		return err
	}
	failed := false
	for _, domain := range internal.Domains {
		names, err := lists.For(domain)
		if err != nil {
			a.log.Debug("municipality list failed", zap.String("domain", string(domain)), zap.Error(err))
			fmt.Fprintln(cmd.ErrOrStderr(), a.term.Warn(render.MunicipalityLoadError(domain)))
			failed = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", domain, len(names))
	}
	if failed {
		return errReported
	}
	return nil
}

func (a *app) statusCmd() *cobra.Command {
	var family, specie string
	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Look up the conservation status of a species",
		Example: `  compensa status --family Fabaceae --specie "Inga edulis"`,
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			records, err := a.ws.Species(cmd.Context(), family, specie)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), render.SpeciesError(err))
				return errReported
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), render.SpeciesNoResults)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.term.Species(records))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&family, "family", "f", "", "family")
	cmd.Flags().StringVarP(&specie, "specie", "s", "", "species")
	return cmd
}
