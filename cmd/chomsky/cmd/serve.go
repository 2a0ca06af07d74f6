package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msto63/chomsky/internal/checker"
	"github.com/msto63/chomsky/internal/server"
	"github.com/msto63/chomsky/internal/store"
)

var (
	serveHost       string
	serveGRPCPort   int
	serveHTTPPort   int
	serveReflection bool
	serveNoStore    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC and HTTP service",
	Long: `Start the network service.

Endpoints:
  gRPC  chomsky.v1.GrammarService/Check, grpc.health.v1.Health  (:9455)
  HTTP  POST /api/v1/check, GET /api/v1/lexicon, GET /api/v1/runs,
        GET /api/v1/runs/<id>, GET /api/v1/stats, GET /health      (:8455)
  WS    /ws  messages {"type":"check","payload":{"sentence":"..."}}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVar(&serveGRPCPort, "grpc-port", 0, "gRPC port (default from config)")
	serveCmd.Flags().IntVar(&serveHTTPPort, "http-port", 0, "HTTP port (default from config)")
	serveCmd.Flags().BoolVar(&serveReflection, "reflection", false, "enable gRPC server reflection")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "disable the run history endpoints")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := server.ConfigFrom(appConfig)
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if serveGRPCPort != 0 {
		cfg.GRPCPort = serveGRPCPort
	}
	if serveHTTPPort != 0 {
		cfg.HTTPPort = serveHTTPPort
	}
	if serveReflection {
		cfg.EnableReflection = true
	}
	if cfg.GRPCPort == cfg.HTTPPort {
		return fmt.Errorf("gRPC and HTTP ports must differ: %d", cfg.GRPCPort)
	}

	parser, err := newParser()
	if err != nil {
		return err
	}
	c := checker.New(checker.Options{Parser: parser, Workers: appConfig.Check.Workers})

	var st store.Store
	if !serveNoStore {
		sqlite, err := openStore()
		if err != nil {
			return err
		}
		defer sqlite.Close()
		st = sqlite
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, c, st)
	fmt.Fprintf(cmd.ErrOrStderr(), "chomsky serving gRPC on %s:%d, HTTP on %s:%d\n",
		cfg.Host, cfg.GRPCPort, cfg.Host, cfg.HTTPPort)

	if err := srv.Start(ctx); err != nil {
		return wrapError("server failed", err)
	}
	return nil
}
