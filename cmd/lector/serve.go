package main

import (
	"github.com/spf13/cobra"

	"github.com/japaniel/lector/pkg/server"
)

func newServeCommand() *cobra.Command {
	var addr string
	command := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.NewServer(server.RouterConfig{
				Handler:        server.NewHandler(a.articles, a.lookups, a.mindmaps, a.log),
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				Logger:         a.log,
			})
			a.log.Info("listening", "addr", addr, "database", a.cfg.Database.Path)
			return srv.Run(cmd.Context(), addr)
		},
	}
	command.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return command
}
