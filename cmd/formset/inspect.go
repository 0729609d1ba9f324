package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formset/internal/prompt"
)

func newInspectCmd(app *App) *cobra.Command {
	var (
		modelName string
		keys      string
		asYAML    bool
	)
	cmd := &cobra.Command{
		Use:   "inspect --models <document> [--model name]",
		Short: "Show the columns and checks derived from a model. Without --model, lists the models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.handleInspect(cmd, modelName, keys, asYAML)
		},
	}
	cmd.Flags().StringVar(&modelName, "model", "", "model name, bare or app.Model")
	cmd.Flags().StringVar(&keys, "keys", "", "JSON file of related keys per table, used instead of the database")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print YAML instead of a table")
	return cmd
}

func (a *App) handleInspect(cmd *cobra.Command, modelName, keys string, asYAML bool) error {
	ctx := cmd.Context()
	rt, err := a.setup(ctx, keys)
	if err != nil {
		return err
	}
	defer rt.Close()

	req, err := rt.request()
	if err != nil {
		return err
	}
	registry, err := rt.orch.Registry(ctx, req)
	if err != nil {
		return err
	}
	req.Registry = registry

	out := cmd.OutOrStdout()
	if modelName == "" {
		if !a.interactive() {
			for _, name := range registry.Names() {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		if modelName, err = prompt.ChooseModel(ctx, a.prompt, registry.Names()); err != nil {
			return err
		}
	}
	req.Model = modelName

	columns, err := rt.orch.Inspect(ctx, req)
	if err != nil {
		return err
	}
	if asYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(columns); err != nil {
			return fmt.Errorf("encode columns: %w", err)
		}
		return enc.Close()
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Column", "Kind", "Label", "Nullable", "Coerce", "Default", "Relation", "Checks"})
	table.SetAutoWrapText(false)
	for _, column := range columns {
		def := ""
		if column.Default != nil {
			def = fmt.Sprint(column.Default)
		}
		table.Append([]string{
			column.Name,
			string(column.Kind),
			column.Label,
			fmt.Sprint(column.Nullable),
			fmt.Sprint(column.Coerce),
			def,
			column.Relation,
			strings.Join(column.Checks, ", "),
		})
	}
	table.Render()
	return nil
}
