// Package loader fetches the static GeoJSON layers once, isolating failures
// per layer.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/joeblew999/plat-metro/internal/layer"
	"github.com/joeblew999/plat-metro/internal/metrics"
)

// Result holds one collection per layer; nil marks a layer that failed to load.
type Result map[layer.ID]*geojson.FeatureCollection

// Loader owns the raw layer collections.
type Loader struct {
	src Source
	log *slog.Logger

	mu        sync.RWMutex
	gen       uint64
	loading   bool
	data      Result
	listeners []func(Result)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for per-layer failures.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) { ld.log = l }
}

// New creates a loader. It reports loading until the first LoadAll completes.
func New(src Source, opts ...Option) *Loader {
	l := &Loader{
		src:     src,
		log:     slog.Default(),
		loading: true,
		data:    Result{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnComplete registers fn to run after every LoadAll, once all fetches have
// resolved and the loading flag is cleared.
func (l *Loader) OnComplete(fn func(Result)) {
	l.mu.Lock()
	l.listeners = append(l.listeners, fn)
	l.mu.Unlock()
}

// Loading reports whether a load is in flight (or none has completed yet).
func (l *Loader) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

// Data returns the current result. The map is a copy; collections are shared
// and must not be mutated.
func (l *Loader) Data() Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(Result, len(l.data))
	for k, v := range l.data {
		out[k] = v
	}
	return out
}

// LoadAll fetches every layer concurrently and joins. A layer that fails is
// logged and left nil; the others still load. The result replaces the
// previous one as a whole. When loads overlap only the newest one applies
// its result, clears the loading flag and notifies listeners.
func (l *Loader) LoadAll(ctx context.Context, files map[layer.ID]string) Result {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.loading = true
	l.mu.Unlock()

	start := time.Now()
	result := make(Result, len(files))
	var mu sync.Mutex

	// Per-layer errors are absorbed, so the group never cancels siblings.
	var g errgroup.Group
	for id, file := range files {
		g.Go(func() error {
			fc, err := l.loadOne(ctx, file)
			metrics.LayerLoads.WithLabelValues(string(id), metrics.Result(err)).Inc()
			if err != nil {
				l.log.Error("layer load failed", "layer", id, "file", file, "error", err)
			} else {
				l.log.Debug("layer loaded", "layer", id, "features", len(fc.Features))
			}
			mu.Lock()
			result[id] = fc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	metrics.LayerLoadDuration.Observe(time.Since(start).Seconds())

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		l.log.Debug("discarding superseded layer load", "generation", gen)
		return result
	}
	l.data = result
	l.loading = false
	listeners := append([]func(Result){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(result)
	}
	return result
}

func (l *Loader) loadOne(ctx context.Context, file string) (*geojson.FeatureCollection, error) {
	data, err := l.src.Fetch(ctx, file)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a GeoJSON FeatureCollection.
func Parse(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("parsing geojson: type %q is not a FeatureCollection", fc.Type)
	}
	return fc, nil
}
