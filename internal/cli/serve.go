package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/verifyhub/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification HTTP API",
	Long: `Serve exposes verification over HTTP:

  POST /v1/verify                  verify a link pair or re-verify a stored submission
  GET  /v1/submissions/{id}        read a stored submission
  PUT  /v1/profiles/{requesterId}  set the full name used for re-verification
  GET  /healthz

Example:
  verifyhub serve --addr :8080
  VERIFYHUB_STORE_DIR=/var/lib/verifyhub verifyhub serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Bool("memory", false, "keep submissions in memory only")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("store.memory_only", serveCmd.Flags().Lookup("memory"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig

	svc, err := buildService(cfg, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(svc, cfg.Server).ListenAndServe(ctx)
}
