package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/api"
	"github.com/matzehuels/flowscope/pkg/cache"
	"github.com/matzehuels/flowscope/pkg/observability"
	"github.com/matzehuels/flowscope/pkg/pipeline"
	"github.com/matzehuels/flowscope/pkg/session"
	"github.com/matzehuels/flowscope/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	tracesDir string
	mongoURI  string
	mongoDB   string
	redisURL  string
	keyPrefix string
	noMetrics bool
	idleTTL   time.Duration
	maxBody   int64
	config    configFlags
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:      ":8080",
		mongoDB:   appName,
		keyPrefix: appName,
		idleTTL:   session.DefaultIdleTTL,
		maxBody:   api.DefaultMaxBodyBytes,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes stored traces and live sessions over HTTP. Sessions tick their
simulation in the background at the configured rate and are dropped after
--idle-ttl without requests.

Traces are kept on disk unless --mongo-uri is set. Rendered frames are cached
in memory, or in Redis when --redis-url is set.`,
		Example: `  flowscope serve --addr :9000
  flowscope serve --mongo-uri mongodb://localhost:27017 --redis-url redis://localhost:6379/0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", opts.addr, "listen address")
	f.StringVar(&opts.tracesDir, "traces", "", "trace directory (default: <data dir>/traces)")
	f.StringVar(&opts.mongoURI, "mongo-uri", "", "store traces in MongoDB instead of on disk")
	f.StringVar(&opts.mongoDB, "mongo-db", opts.mongoDB, "MongoDB database")
	f.StringVar(&opts.redisURL, "redis-url", "", "cache rendered frames in Redis")
	f.StringVar(&opts.keyPrefix, "key-prefix", opts.keyPrefix, "prefix of every cache key")
	f.BoolVar(&opts.noMetrics, "no-metrics", false, "disable /metrics")
	f.DurationVar(&opts.idleTTL, "idle-ttl", opts.idleTTL, "drop sessions idle for this long")
	f.Int64Var(&opts.maxBody, "max-body", opts.maxBody, "request body limit in bytes")
	opts.config.register(f)

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := opts.config.load(cmd.Flags())
	if err != nil {
		return err
	}

	st, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	rc, err := openRenderCache(ctx, opts.redisURL, logger)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(rc, cache.NewScopedKeyer(cache.NewDefaultKeyer(), opts.keyPrefix), logger)
	defer runner.Close()

	serverOpts := []api.Option{
		api.WithLogger(logger),
		api.WithRunner(runner),
		api.WithConfig(cfg),
		api.WithIdleTTL(opts.idleTTL),
		api.WithMaxBodyBytes(opts.maxBody),
	}
	if !opts.noMetrics {
		prom := observability.NewPrometheus(prometheus.NewRegistry())
		prom.Install()
		defer observability.Reset()
		serverOpts = append(serverOpts, api.WithMetrics(prom))
	}

	srv := api.New(st, serverOpts...)

	printSuccess("Listening on %s", opts.addr)
	printDetail("tick rate %.0f/s, sessions idle out after %s", cfg.Simulation.TickRate, opts.idleTTL)
	return srv.ListenAndServe(ctx, opts.addr)
}

// openStore opens MongoDB when a URI is given, else the trace directory.
func openStore(ctx context.Context, opts *serveOpts) (store.Store, error) {
	if opts.mongoURI != "" {
		return store.NewMongoStore(ctx, store.MongoConfig{URI: opts.mongoURI, Database: opts.mongoDB})
	}
	dir := opts.tracesDir
	if dir == "" {
		base, err := dataDir()
		if err != nil {
			return nil, fmt.Errorf("get data dir: %w", err)
		}
		dir = filepath.Join(base, "traces")
	}
	return store.NewFileStore(dir)
}

// openRenderCache returns the instrumented, snappy-compressed render cache:
// Redis when a URL is given, else memory.
func openRenderCache(ctx context.Context, redisURL string, logger *log.Logger) (cache.Cache, error) {
	var inner cache.Cache = cache.NewMemoryCache()
	if redisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: redisURL})
		if err != nil {
			return nil, err
		}
		logger.Info("using redis cache")
		inner = rc
	}
	return cache.NewInstrumentedCache(cache.NewCompressedCache(inner)), nil
}
