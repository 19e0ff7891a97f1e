// Package bootstrap wires configuration into a ready-to-use batch service.
// Both the HTTP server and the command line tool build their dependencies
// here.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ytclient "github.com/kkdai/youtube/v2"

	"github.com/jpp0ca/TrackFetch/internal/adapters"
	"github.com/jpp0ca/TrackFetch/internal/adapters/dryrun"
	"github.com/jpp0ca/TrackFetch/internal/adapters/id3"
	"github.com/jpp0ca/TrackFetch/internal/adapters/itunes"
	"github.com/jpp0ca/TrackFetch/internal/adapters/native"
	"github.com/jpp0ca/TrackFetch/internal/adapters/spotify"
	"github.com/jpp0ca/TrackFetch/internal/adapters/sqlite"
	"github.com/jpp0ca/TrackFetch/internal/adapters/wiki"
	"github.com/jpp0ca/TrackFetch/internal/adapters/youtube"
	"github.com/jpp0ca/TrackFetch/internal/adapters/ytdlp"
	"github.com/jpp0ca/TrackFetch/internal/app"
	"github.com/jpp0ca/TrackFetch/internal/config"
	"github.com/jpp0ca/TrackFetch/internal/matching"
	"github.com/jpp0ca/TrackFetch/internal/ports"
)

const httpTimeout = 30 * time.Second

// Runtime bundles the wired service with the resources it owns.
type Runtime struct {
	Service       *app.Service
	Sources       *adapters.SourceRegistry
	Materializers *adapters.MaterializerRegistry
	Materializer  ports.Materializer
	Store         *sqlite.Store
	DryRun        *dryrun.Materializer
}

// Options override configuration for a single invocation.
type Options struct {
	// Materializer replaces cfg.Materializer when set.
	Materializer string
	// OutputDir replaces cfg.OutputDir when set.
	OutputDir string
	// NoStore skips opening the run database.
	NoStore bool
}

// Build creates every adapter named by cfg and the service on top of them.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Runtime, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	httpClient := &http.Client{Timeout: httpTimeout}

	search := youtube.NewProvider(httpClient, cfg.YouTubeAPIKey,
		youtube.WithRateLimit(cfg.SearchRatePerSec, cfg.SearchBurst),
	)

	sources := adapters.NewSourceRegistry()
	sources.Register(itunes.NewProvider(httpClient))
	sources.Register(wiki.NewProvider(httpClient))
	sources.Register(search)
	if cfg.HasSpotify() {
		sources.Register(spotify.NewProvider(spotify.NewClientCredentials(ctx, cfg.SpotifyID, cfg.SpotifySecret)))
	}

	rt := &Runtime{
		Sources:       sources,
		Materializers: adapters.NewMaterializerRegistry(),
		DryRun:        dryrun.New(logger),
	}
	rt.Materializers.Register(ytdlp.New(cfg.YTDLPPath, cfg.FFmpegPath))
	rt.Materializers.Register(native.New(&ytclient.Client{HTTPClient: httpClient}, httpClient, cfg.FFmpegPath))
	rt.Materializers.Register(rt.DryRun)

	name := cfg.Materializer
	if opts.Materializer != "" {
		name = opts.Materializer
	}
	materializer, err := rt.Materializers.Get(name)
	if err != nil {
		return nil, fmt.Errorf("materializer: %w", err)
	}
	rt.Materializer = materializer

	scorer, err := matching.NewScorer(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	var post []ports.PostProcessor
	if cfg.TagOutput && name != config.MaterializerDryRun && cfg.AudioFormat == "mp3" {
		post = append(post, id3.New())
	}

	outputDir := cfg.OutputDir
	if opts.OutputDir != "" {
		outputDir = opts.OutputDir
	}

	resolver := app.NewResolver(search, scorer, cfg.MaxResults, logger)
	executor := app.NewExecutor(materializer, search, outputDir, cfg.AudioFormat, logger, post...)

	serviceOpts := []app.Option{
		app.WithSources(sources),
		app.WithBatchTimeout(cfg.BatchTimeout),
		app.WithLogger(logger),
	}
	if !opts.NoStore {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open run store: %w", err)
		}
		rt.Store = store
		serviceOpts = append(serviceOpts, app.WithStore(store))
	}

	rt.Service = app.NewService(resolver, executor, search, cfg.Workers, serviceOpts...)

	logger.Debug("runtime ready",
		"materializer", materializer.Name(),
		"sources", sources.Available(),
		"output_dir", outputDir,
		"store", !opts.NoStore,
	)
	return rt, nil
}

// Close releases the run database.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	return r.Store.Close()
}
