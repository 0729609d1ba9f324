package main

import (
	"fmt"
	"io"
	"os"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/internal/prompt"
	"github.com/goliatone/go-formset/pkg/form"
	"github.com/goliatone/go-formset/pkg/report"
)

type validateFlags struct {
	model      string
	data       string
	format     string
	output     string
	keys       string
	fields     []string
	exclude    []string
	strict     bool
	sanitize   bool
	required   bool
	pickFields bool
}

func newValidateCmd(app *App) *cobra.Command {
	flags := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate --models <document> --data <file>",
		Short: "Validate a CSV or JSON file against a model and print a report. Exits with 1 when any row is invalid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.handleValidate(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.model, "model", "", "model name, bare or app.Model (prompted when empty on a terminal)")
	cmd.Flags().StringVar(&flags.data, "data", "", "CSV or JSON data file, - for CSV on stdin")
	cmd.Flags().StringVar(&flags.format, "format", report.FormatTable, "report format (json, yaml, table, html)")
	cmd.Flags().StringVar(&flags.output, "output", "", "report file (stdout if empty)")
	cmd.Flags().StringVar(&flags.keys, "keys", "", "JSON file of related keys per table, used instead of the database")
	cmd.Flags().StringSliceVar(&flags.fields, "fields", nil, "fields to validate (default all)")
	cmd.Flags().StringSliceVar(&flags.exclude, "exclude", nil, "fields to skip")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "report data columns that are not model fields")
	cmd.Flags().BoolVar(&flags.sanitize, "sanitize", false, "strip HTML from text cells before validating")
	cmd.Flags().BoolVar(&flags.required, "required", false, "require values for fields that are neither nullable nor defaulted")
	cmd.Flags().BoolVar(&flags.pickFields, "pick-fields", false, "choose the fields interactively")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func (a *App) handleValidate(cmd *cobra.Command, flags *validateFlags) error {
	ctx := cmd.Context()
	rt, err := a.setup(ctx, flags.keys)
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

	req.Model = flags.model
	if req.Model == "" {
		if !a.interactive() {
			return fmt.Errorf("--model is required, available models: %v", registry.Names())
		}
		if req.Model, err = prompt.ChooseModel(ctx, a.prompt, registry.Names()); err != nil {
			return err
		}
	}

	req.Fields = flags.fields
	req.Exclude = flags.exclude
	if len(req.Fields) == 0 && flags.pickFields && a.interactive() {
		m, err := registry.Lookup(req.Model)
		if err != nil {
			return err
		}
		if req.Fields, err = prompt.ChooseFields(ctx, a.prompt, m.Name, m.FieldNames()); err != nil {
			return err
		}
	}

	if req.Data, err = readFrame(flags.data); err != nil {
		return err
	}
	if flags.strict {
		req.FormOptions = append(req.FormOptions, form.WithStrictColumns())
	}
	if flags.sanitize {
		req.FormOptions = append(req.FormOptions, form.WithSanitizer(bluemonday.StrictPolicy()))
	}
	if flags.required {
		req.FormOptions = append(req.FormOptions, form.WithRequiredChecks())
	}

	out, err := rt.orch.Validate(ctx, req)
	if err != nil {
		return err
	}

	w := io.Writer(cmd.OutOrStdout())
	if flags.output != "" {
		file, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		defer file.Close()
		w = file
	}
	if err := report.Write(w, flags.format, out); err != nil {
		return err
	}
	if !out.Valid {
		return errInvalid
	}
	return nil
}
