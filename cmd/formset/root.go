package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formset/internal/config"
	"github.com/goliatone/go-formset/internal/prompt"
)

// errInvalid marks a run whose data failed validation. The report has
// already been written, so nothing else is printed.
var errInvalid = errors.New("data failed validation")

type App struct {
	v           *viper.Viper
	configPath  string
	out         io.Writer
	prompt      prompt.Driver
	interactive func() bool
}

func newApp(out io.Writer) *App {
	return &App{
		v:           config.New(),
		out:         out,
		prompt:      prompt.Survey(),
		interactive: prompt.Interactive,
	}
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "formset",
		Short:         "Validate tabular data against model definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(app.out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "configuration file (yaml, json or toml)")
	flags.String("models", "", "model document path or URL")
	flags.String("models-format", "", "model document format (openapi, models, jsonschema); detected when empty")
	flags.String("preset", "", "JSON file with model field overrides")
	flags.String("log-level", "", "log level (debug, info, warning, error)")
	flags.String("locale", "", "language of error messages")
	app.bind(flags.Lookup("models"), "models.source")
	app.bind(flags.Lookup("models-format"), "models.format")
	app.bind(flags.Lookup("preset"), "models.preset")
	app.bind(flags.Lookup("log-level"), "logger.log_level")
	app.bind(flags.Lookup("locale"), "locale")

	cmd.AddCommand(
		newValidateCmd(app),
		newInspectCmd(app),
		newServeCmd(app),
	)
	return cmd
}

// Execute initializes and runs the root command. It is the single entry point
// for the command-line interface.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout)
	rootCmd := newRootCmd(app)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
