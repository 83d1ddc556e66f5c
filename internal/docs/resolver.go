package docs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/starford/dox/internal/apperr"
	"github.com/starford/dox/internal/logfields"
	"github.com/starford/dox/internal/metrics"
	"github.com/starford/dox/internal/models"
	"github.com/starford/dox/internal/storage"
)

// SourceExt is the extension of content source files.
const SourceExt = ".mdx"

// homeName replaces the empty key during filesystem discovery.
const homeName = "home"

// Compiler compiles a document source served at slug.
type Compiler interface {
	Compile(ctx context.Context, source []byte, slug []string) (*models.DocumentEntry, error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(m metrics.Recorder) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithOnCompiled registers a hook called after each successful dynamic
// compilation, from the goroutine that performed it.
func WithOnCompiled(fn func(*models.DocumentEntry)) Option {
	return func(r *Resolver) { r.onCompiled = fn }
}

// pending is a shared in-flight-or-completed resolution. entry and err are
// written once before done is closed.
type pending struct {
	done  chan struct{}
	entry *models.DocumentEntry
	err   error
}

// Resolver maps slug paths to document entries.
type Resolver struct {
	index      *Index
	roots      []storage.Provider
	compiler   Compiler
	logger     *slog.Logger
	metrics    metrics.Recorder
	onCompiled func(*models.DocumentEntry)

	mu    sync.Mutex
	cache map[string]*pending
}

// NewResolver returns a resolver over the static index and the content roots,
// searched in the given order.
func NewResolver(index *Index, roots []storage.Provider, compiler Compiler, opts ...Option) *Resolver {
	r := &Resolver{
		index:    index,
		roots:    roots,
		compiler: compiler,
		logger:   slog.Default(),
		metrics:  metrics.NoopRecorder{},
		cache:    make(map[string]*pending),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Index returns the static index.
func (r *Resolver) Index() *Index {
	return r.index
}

// Key normalizes slug segments by dropping empty ones and joins them with "/".
func Key(slug []string) (string, []string) {
	segs := nonEmpty(slug)
	return strings.Join(segs, "/"), segs
}

// Resolve returns the document for slug, or an error wrapping
// apperr.ErrNotFound when none exists. Static entries are returned without
// touching the filesystem. Dynamic resolutions are memoized per key: callers
// arriving while a compilation is running share its result, and at most one
// compilation runs per key. Not-found results are memoized; failures are not.
func (r *Resolver) Resolve(ctx context.Context, slug []string) (*models.DocumentEntry, error) {
	key, segs := Key(slug)
	if e, ok := r.index.BySlug(key); ok {
		r.metrics.IncResolution(metrics.SourceStatic)
		return e, nil
	}

	r.mu.Lock()
	p, cached := r.cache[key]
	if !cached {
		p = &pending{done: make(chan struct{})}
		r.cache[key] = p
	}
	size := len(r.cache)
	r.mu.Unlock()

	if cached {
		r.metrics.IncResolution(metrics.SourceCache)
	} else {
		r.metrics.SetCachedKeys(size)
		// Detached so one caller's cancellation cannot fail the shared result.
		go r.load(context.WithoutCancel(ctx), key, segs, p)
	}

	select {
	case <-p.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, fmt.Errorf("docs: resolve %q: %w: %w", key, apperr.ErrNotFound, p.err)
	}
	if p.entry == nil {
		return nil, fmt.Errorf("docs: resolve %q: %w", key, apperr.ErrNotFound)
	}
	return p.entry, nil
}

// Forget drops the cached resolution for key so the next request resolves
// it again.
func (r *Resolver) Forget(key string) {
	r.mu.Lock()
	delete(r.cache, key)
	size := len(r.cache)
	r.mu.Unlock()
	r.metrics.SetCachedKeys(size)
}

// Cached reports whether key has an in-flight or completed resolution.
func (r *Resolver) Cached(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cache[key]
	return ok
}

func (r *Resolver) load(ctx context.Context, key string, segs []string, p *pending) {
	defer close(p.done)
	// A panic in the detached load is reported as a failed compile.
	defer func() {
		if v := recover(); v != nil {
			p.entry = nil
			p.err = fmt.Errorf("docs: resolve %q: panic: %v", key, v)
			r.metrics.IncResolution(metrics.SourceFailed)
			r.logger.Error("docs: compile panicked", logfields.DocKey(key), logfields.Error(p.err))
			r.evict(key, p)
		}
	}()

	root, name, ok := r.find(key)
	if !ok {
		r.metrics.IncResolution(metrics.SourceNotFound)
		r.logger.Debug("docs: no source found", logfields.DocKey(key))
		return
	}

	start := time.Now()
	entry, err := r.compile(ctx, root, name, segs)
	r.metrics.ObserveCompileDuration(time.Since(start), err == nil)
	if err != nil {
		p.err = err
		r.metrics.IncResolution(metrics.SourceFailed)
		r.logger.Warn("docs: compile failed",
			logfields.DocKey(key),
			logfields.Root(root.Root()),
			logfields.Path(name),
			logfields.Error(err))
		r.evict(key, p)
		return
	}

	p.entry = entry
	r.metrics.IncResolution(metrics.SourceCompiled)
	r.logger.Debug("docs: compiled",
		logfields.DocKey(key),
		logfields.Path(name),
		logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	if r.onCompiled != nil {
		r.onCompiled(entry)
	}
}

// evict drops p from the cache unless a newer resolution replaced it.
func (r *Resolver) evict(key string, p *pending) {
	r.mu.Lock()
	if r.cache[key] == p {
		delete(r.cache, key)
	}
	r.mu.Unlock()
}

func (r *Resolver) compile(ctx context.Context, root storage.Provider, name string, segs []string) (*models.DocumentEntry, error) {
	data, err := root.Read(name)
	if err != nil {
		return nil, err
	}
	entry, err := r.compiler.Compile(ctx, data, segs)
	if err != nil {
		return nil, err
	}
	entry.Source = name
	return entry, nil
}

// HasSource reports whether some content root holds a source for key.
func (r *Resolver) HasSource(key string) bool {
	_, _, ok := r.find(key)
	return ok
}

// SourceDoc is a document source found in a content root.
type SourceDoc struct {
	Key       string
	Href      string
	Root      string
	Path      string
	UpdatedAt time.Time
}

// Discover lists the dynamic documents the content roots can serve, in root
// order then path order. A key claimed by an earlier root or by the static
// index is skipped, matching what Resolve would return for it.
func (r *Resolver) Discover() ([]SourceDoc, error) {
	seen := make(map[string]struct{})
	var out []SourceDoc
	for _, root := range r.roots {
		files, err := root.List(".", SourceExt)
		if err != nil {
			return nil, fmt.Errorf("docs: discover in %s: %w", root.Root(), err)
		}
		for _, f := range files {
			keys := KeysForSource(f.Path)
			if len(keys) == 0 {
				continue
			}
			key := keys[len(keys)-1]
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if _, static := r.index.BySlug(key); static {
				continue
			}
			out = append(out, SourceDoc{
				Key:       key,
				Href:      "/" + key,
				Root:      root.Root(),
				Path:      f.Path,
				UpdatedAt: f.UpdatedAt,
			})
		}
	}
	return out, nil
}

// find returns the first existing candidate: roots in order, and within a
// root "<key>.mdx" before "<key>/index.mdx". Any stat error counts as a miss.
func (r *Resolver) find(key string) (storage.Provider, string, bool) {
	for _, root := range r.roots {
		for _, name := range candidates(key) {
			ok, err := root.Exists(name)
			if err != nil {
				r.logger.Debug("docs: candidate unreadable",
					logfields.Root(root.Root()),
					logfields.Path(name),
					logfields.Error(err))
				continue
			}
			if ok {
				return root, name, true
			}
		}
	}
	return nil, "", false
}

func candidates(key string) []string {
	if key == "" {
		key = homeName
	}
	if strings.HasSuffix(key, SourceExt) {
		return []string{key}
	}
	return []string{key + SourceExt, key + "/index" + SourceExt}
}

// KeysForSource returns every resolver key whose lookup can land on the
// source at rel, a slash-separated path relative to a content root.
func KeysForSource(rel string) []string {
	rel = strings.TrimPrefix(rel, "/")
	if !strings.HasSuffix(rel, SourceExt) {
		return nil
	}
	base := strings.TrimSuffix(rel, SourceExt)
	keys := []string{rel, base}
	if dir, ok := strings.CutSuffix(base, "/index"); ok {
		keys = append(keys, dir)
		base = dir
	}
	if base == homeName {
		keys = append(keys, "")
	}
	return keys
}
