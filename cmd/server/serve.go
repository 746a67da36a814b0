package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ugaemi/safezone-server/internal/config"
	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/handler"
	"github.com/ugaemi/safezone-server/internal/room"
	"github.com/ugaemi/safezone-server/internal/store"
	"github.com/ugaemi/safezone-server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

var (
	flagPort  int
	flagStore string
	flagSeed  int64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebSocket game server",
	Long: `Start the game server. Clients connect to /ws; /health, /rooms and
/rounds expose read-only JSON for operators.

Examples:
  safezone serve
  safezone serve --port 9000 --store sqlite
  safezone serve --tuning tuning.yaml --log-format pretty`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (default: $PORT or 8080)")
	serveCmd.Flags().StringVar(&flagStore, "store", "", "Result store: memory, sqlite, postgres (default: $STORE)")
	serveCmd.Flags().Int64Var(&flagSeed, "seed", 0, "RNG seed for zones and spawns (0 = random)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagStore != "" {
		cfg.Store = flagStore
	}

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer results.Close()

	hub := ws.NewHub()
	rm := room.NewManager(room.Options{
		Zone:       tuning.Zone.ZoneConfig(),
		Settings:   tuning.Round,
		Results:    results,
		ResetDelay: game.ResetDelay,
		Seed:       flagSeed,
	})
	router := handler.NewRouter(rm)

	hub.OnMessage = router.HandleMessage
	hub.OnDisconnect = router.HandleDisconnect

	// The hub outlives ctx so rounds stopped during shutdown can still
	// broadcast game_over before clients are closed.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newHTTPHandler(hub, rm, results),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store, "mode", tuning.Round.Mode.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	shutdown(shutdownCtx, rm, hub, stopHub)
	return nil
}

// shutdown stops every round, saving results and sending game_over, and only
// then stops the hub and closes the remaining clients.
func shutdown(ctx context.Context, rm *room.Manager, hub *ws.Hub, stopHub context.CancelFunc) {
	rm.Shutdown()
	stopHub()
	select {
	case <-hub.Done():
	case <-ctx.Done():
		slog.Warn("hub did not stop in time")
	}
}

// openStore returns the result store selected by cfg.Store.
func openStore(ctx context.Context, cfg *config.Config) (store.ResultStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreSQLite:
		return store.NewSQLiteStore(ctx, cfg.SQLitePath)
	case config.StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%w: postgres store needs DATABASE_URL", config.ErrInvalidConfig)
		}
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("%w: unknown store %q", config.ErrInvalidConfig, cfg.Store)
	}
}
