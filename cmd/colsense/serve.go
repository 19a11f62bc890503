package colsense

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/colsense/colsense/internal/config"
	"github.com/colsense/colsense/internal/server"
	"github.com/colsense/colsense/internal/session"
)

var serveAddr string

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the classification API over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8080)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "deadline for one classification, retries included")
	cmd.Flags().StringVar(&flagModel, "model", "", "Gemini model (default gemini-1.5-flash)")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Gemini API endpoint")
	cmd.Flags().BoolVar(&flagReconcile, "reconcile", false, "log columns the model skipped or invented")
	cmd.Flags().IntVar(&flagSamples, "samples", 0, "default sample values per column (default 5)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	gcfg, lcfg := loadConfigs()
	// The server reads the key per request so a rotated env var takes
	// effect without a restart.
	f := currentClassifierFlags()
	f.apiKey = ""
	eng, err := buildEngine(f, gcfg, lcfg)
	if err != nil {
		return err
	}
	merged := config.Merge(gcfg, lcfg)

	limit := pickInt(0, lcfg.HistoryLimit, gcfg.HistoryLimit)
	if limit == 0 {
		limit = session.DefaultLimit
	}
	log := slog.Default()
	srv := server.New(server.Config{
		Classifier: eng.classifier,
		Session:    session.New(limit, session.WithLogger(log)),
		APIKey:     merged.APIKey,
		Extract:    extractOptions(nil, flagSamples, gcfg, lcfg),
		Guidance:   eng.guidance,
		Timeout:    eng.timeout,
		Logger:     log,
	})

	addr := serveAddr
	if addr == "" {
		addr = pickString("", lcfg.Addr, gcfg.Addr)
	}
	if addr == "" {
		addr = ":8080"
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, addr)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
