package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/flowcanvas/flowcanvas/internal/server"
	"github.com/flowcanvas/flowcanvas/pkg/cache"
	"github.com/flowcanvas/flowcanvas/pkg/editor"
	"github.com/flowcanvas/flowcanvas/pkg/snapshot"
)

func newServeCmd() *cobra.Command {
	var (
		addr     string
		backend  string
		redisURL string
		mongoURI string
		dir      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve editor instances over HTTP",
		Long: `Serve starts the HTTP API: create editor instances, mutate their
graphs, run layouts, and save snapshots. Snapshot persistence is pluggable
with --backend: memory (default), file, redis, or mongo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			logger := loggerFromContext(ctx)

			snaps, closeStore, err := openSnapshotStore(ctx, backend, redisURL, mongoURI, dir)
			if err != nil {
				return err
			}
			defer closeStore()

			// One layout cache shared across instances.
			layoutCache := cache.NewMemoryCache()
			defer layoutCache.Close()

			srv, err := server.New(server.Options{
				Snapshots: snaps,
				Logger:    logger,
				NewEditor: func() (*editor.Editor, error) {
					return editor.New(editor.Options{
						Config:    cfg,
						NodeTypes: defaultNodeTypes(),
						Engine:    cfg.LayoutEngine(),
						Cache:     layoutCache,
						Logger:    logger,
					})
				},
			})
			if err != nil {
				return err
			}

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr, "snapshots", backend)
				errCh <- httpSrv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
				return ctx.Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8420", "listen address")
	cmd.Flags().StringVar(&backend, "backend", "memory", "snapshot backend: memory, file, redis, or mongo")
	cmd.Flags().StringVar(&redisURL, "redis-addr", "localhost:6379", "redis address for --backend redis")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "mongodb://localhost:27017", "mongo URI for --backend mongo")
	cmd.Flags().StringVar(&dir, "dir", "", "snapshot directory for --backend file")
	return cmd
}

// openSnapshotStore builds the snapshot backend selected by flags. The
// returned func releases backend connections; for local backends it is a
// no-op.
func openSnapshotStore(ctx context.Context, backend, redisAddr, mongoURI, dir string) (snapshot.Store, func(), error) {
	switch backend {
	case "memory":
		return snapshot.NewMemoryStore(), func() {}, nil
	case "file":
		s, err := snapshot.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "redis":
		s, err := snapshot.NewRedisStore(ctx, snapshot.RedisConfig{Addr: redisAddr})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "mongo":
		s, err := snapshot.NewMongoStore(ctx, snapshot.MongoConfig{URI: mongoURI})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", backend)
	}
}
