package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formset/internal/httpapi"
)

func newServeCmd(app *App) *cobra.Command {
	var keys string
	cmd := &cobra.Command{
		Use:   "serve --models <document>",
		Short: "Serve the validation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.handleServe(cmd, keys)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&keys, "keys", "", "JSON file of related keys per table, used instead of the database")
	app.bind(cmd.Flags().Lookup("addr"), "http.addr")
	return cmd
}

func (a *App) handleServe(cmd *cobra.Command, keys string) error {
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

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(rt.orch, registry, rt.logger)
	return httpapi.Serve(ctx, rt.settings.HTTP, router, rt.logger)
}
