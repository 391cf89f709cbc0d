package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"compensa/internal"
	"compensa/internal/collector"
	"compensa/internal/pipeline"
)

func (a *app) addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a row to one of the tables",
	}

	var raw collector.RawFields
	isolated := &cobra.Command{
		Use:     "isolated",
		Aliases: []string{"tree"},
		Short:   "Add isolated trees",
		Example: `  compensa add isolated -q 5 -g nativa -m "Avaré" --endangered`,
		Args:    cobra.NoArgs,
		RunE:    a.run(func(cmd *cobra.Command, args []string) error { return a.add(cmd, internal.DomainIsolated, raw) }),
	}
	isolated.Flags().StringVarP(&raw.Quantity, "quantity", "q", "", "number of trees")
	isolated.Flags().StringVarP(&raw.Group, "group", "g", "", "species group")
	isolated.Flags().StringVarP(&raw.Municipality, "municipality", "m", "", "municipality")
	isolated.Flags().BoolVar(&raw.Endangered, "endangered", false, "endangered species")

	patch := &cobra.Command{
		Use:     "patch",
		Short:   "Add a vegetation patch",
		Example: `  compensa add patch -m "Avaré" -a 1250,5`,
		Args:    cobra.NoArgs,
		RunE:    a.run(func(cmd *cobra.Command, args []string) error { return a.add(cmd, internal.DomainPatch, raw) }),
	}
	patch.Flags().StringVarP(&raw.Municipality, "municipality", "m", "", "municipality")
	patch.Flags().StringVarP(&raw.Area, "area", "a", "", "area in m²")

	appItem := &cobra.Command{
		Use:     "app",
		Short:   "Add a permanent preservation area item",
		Example: `  compensa add app -m "Avaré" -q 3`,
		Args:    cobra.NoArgs,
		RunE:    a.run(func(cmd *cobra.Command, args []string) error { return a.add(cmd, internal.DomainApp, raw) }),
	}
	appItem.Flags().StringVarP(&raw.Municipality, "municipality", "m", "", "municipality")
	appItem.Flags().StringVarP(&raw.Quantity, "quantity", "q", "", "quantity or area")

	cmd.AddCommand(isolated, patch, appItem)
	return cmd
}

func (a *app) add(cmd *cobra.Command, domain internal.Domain, raw collector.RawFields) error {
	p, err := a.ws.Panel(cmd.Context(), domain, true)
	if err != nil {
		return err
	}
	a.printLoadWarning(cmd, p)

	if _, err := p.Add(raw); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), a.term.Status(p.Status()))
		var verr *collector.ValidationError
		if errors.As(err, &verr) && verr.Suggestion != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Você quis dizer %q?\n", verr.Suggestion)
		}
		return errReported
	}
	if err := p.Save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), a.term.Rows(domain, p.Rows()))
	return nil
}

func (a *app) removeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove POSITION",
		Short: "Remove the row at a table position (as shown by list)",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			domain, err := a.parsedDomain()
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[0])
			}
			p, err := a.ws.Panel(cmd.Context(), domain, false)
			if err != nil {
				return err
			}
			if !p.Remove(pos - 1) {
				return fmt.Errorf("no row at position %d", pos)
			}
			if err := p.Save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.term.Rows(domain, p.Rows()))
			return nil
		}),
	}
	a.domainFlag(cmd)
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the rows of a table",
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
			fmt.Fprintln(cmd.OutOrStdout(), a.term.Rows(domain, p.Rows()))
			return nil
		}),
	}
	a.domainFlag(cmd)
	return cmd
}

func (a *app) clearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every row of a table",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			domain, err := a.parsedDomain()
			if err != nil {
				return err
			}
			n, err := a.db.ClearItems(domain)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d linha(s) removida(s)\n", n)
			return nil
		}),
	}
	a.domainFlag(cmd)
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Append rows from an xlsx, HTML, YAML or JSON file",
		Long: `Reads rows from a spreadsheet, a saved HTML table or a YAML/JSON list and
appends the valid ones to the table. The domain comes from --domain when given,
otherwise from the file itself.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			batch, err := pipeline.ReadImportFile(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("domain") {
				if batch.Domain, err = a.parsedDomain(); err != nil {
					return err
				}
			}
			if batch.Domain == "" {
				return fmt.Errorf("cannot tell which table %s belongs to; pass --domain", args[0])
			}

			p, err := a.ws.Panel(cmd.Context(), batch.Domain, true)
			if err != nil {
				return err
			}
			a.printLoadWarning(cmd, p)
			report, err := p.Import(batch)
			if err != nil {
				return err
			}
			if err := p.Save(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, a.term.Rows(batch.Domain, p.Rows()))
			fmt.Fprintf(out, "%d linha(s) importada(s)\n", report.Added)
			for _, rej := range report.Rejected {
				fmt.Fprintln(cmd.ErrOrStderr(), a.term.Warn(rej.Error()))
			}
			return nil
		}),
	}
	a.domainFlag(cmd)
	return cmd
}

func (a *app) printLoadWarning(cmd *cobra.Command, p *pipeline.Panel) {
	if msg := p.Status().Error; msg != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), a.term.Warn(msg))
	}
}
