package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/quillribbon/internal/server"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		maxUpload int64
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion pipeline over HTTP",
		Long: `Serve the conversion pipeline over HTTP.

Routes:
  GET  /healthz      build information
  POST /v1/convert   archive in, JSON or OBJ out
  POST /v1/inspect   archive in, summary out
  POST /v1/scene     archive in, DOT or SVG scene diagram out

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  quillribbon serve --addr :8080
  curl --data-binary @painting.zip 'localhost:8080/v1/convert?format=obj'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Server.Addr = addr
			}
			if cmd.Flags().Changed("max-upload") {
				c.Config.Server.MaxUpload = maxUpload
			}

			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			s := server.New(runner, server.Config{
				Defaults:  c.Config.pipelineOptions(),
				MaxUpload: c.Config.Server.MaxUpload,
				Logger:    c.Logger,
			})
			printInfo("Serving on %s", StyleHighlight.Render(c.Config.Server.Addr))
			return s.ListenAndServe(cmd.Context(), c.Config.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().Int64Var(&maxUpload, "max-upload", defaultMaxUpload, "maximum request body size in bytes")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
