package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/dox/internal/apperr"
	"github.com/starford/dox/internal/content"
	"github.com/starford/dox/internal/models"
	"github.com/starford/dox/internal/storage"
)

// countingCompiler counts compilations and can hold them until released.
type countingCompiler struct {
	inner *content.Compiler
	calls atomic.Int32
	gate  chan struct{}
	fail  error
	panic atomic.Bool
}

func (c *countingCompiler) Compile(ctx context.Context, src []byte, slug []string) (*models.DocumentEntry, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	if c.panic.CompareAndSwap(true, false) {
		panic("compiler bug")
	}
	if c.fail != nil {
		return nil, c.fail
	}
	return c.inner.Compile(ctx, src, slug)
}

// recordingProvider wraps a provider and counts filesystem calls.
type recordingProvider struct {
	storage.Provider
	calls atomic.Int32
}

func (p *recordingProvider) Exists(path string) (bool, error) {
	p.calls.Add(1)
	return p.Provider.Exists(path)
}

func (p *recordingProvider) Read(path string) ([]byte, error) {
	p.calls.Add(1)
	return p.Provider.Read(path)
}

func newRoot(t *testing.T, files map[string]string) *recordingProvider {
	t.Helper()
	dir := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	fs, err := storage.NewFS(dir)
	require.NoError(t, err)
	return &recordingProvider{Provider: fs}
}

func staticIndex(t *testing.T, entries ...*models.DocumentEntry) *Index {
	t.Helper()
	ix, err := NewIndex(entries)
	require.NoError(t, err)
	return ix
}

func TestResolve_StaticEntryNoFilesystemAccess(t *testing.T) {
	intro := &models.DocumentEntry{ID: "introduction", Title: "Introduction", Slug: []string{}, Href: "/"}
	quick := &models.DocumentEntry{ID: "quickstart", Title: "Quickstart", Slug: []string{"quickstart"}, Href: "/quickstart"}
	root := newRoot(t, map[string]string{"quickstart.mdx": "dynamic"})
	cc := &countingCompiler{inner: content.NewCompiler(nil)}
	r := NewResolver(staticIndex(t, intro, quick), []storage.Provider{root}, cc)

	got, err := r.Resolve(context.Background(), []string{"quickstart"})
	require.NoError(t, err)
	require.Same(t, quick, got)

	got, err = r.Resolve(context.Background(), []string{"", ""})
	require.NoError(t, err)
	require.Same(t, intro, got)

	require.Zero(t, root.calls.Load())
	require.Zero(t, cc.calls.Load())
	require.False(t, r.Cached("quickstart"))
}

func TestResolve_DynamicHrefAndSharedCompilation(t *testing.T) {
	root := newRoot(t, map[string]string{"guides/setup.mdx": "---\ntitle: Setup\n---\nBody\n"})
	cc := &countingCompiler{inner: content.NewCompiler(nil), gate: make(chan struct{})}
	r := NewResolver(staticIndex(t), []storage.Provider{root}, cc)

	const callers = 8
	results := make([]*models.DocumentEntry, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.Resolve(context.Background(), []string{"guides", "setup"})
		}(i)
	}
	// Every caller has either joined the pending result or will find it.
	require.Eventually(t, func() bool { return r.Cached("guides/setup") }, time.Second, 5*time.Millisecond)
	close(cc.gate)
	wg.Wait()

	require.Equal(t, int32(1), cc.calls.Load())
	for i, e := range results {
		require.NoError(t, errs[i])
		require.Same(t, results[0], e)
	}
	require.Equal(t, "/guides/setup", results[0].Href)
	require.Equal(t, "Setup", results[0].Title)

	// Later calls reuse the completed result.
	again, err := r.Resolve(context.Background(), []string{"guides", "setup"})
	require.NoError(t, err)
	require.Same(t, results[0], again)
	require.Equal(t, int32(1), cc.calls.Load())
}

func TestResolve_NotFoundIsMemoized(t *testing.T) {
	root := newRoot(t, nil)
	cc := &countingCompiler{inner: content.NewCompiler(nil)}
	r := NewResolver(staticIndex(t), []storage.Provider{root}, cc)

	_, err := r.Resolve(context.Background(), []string{"missing"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	scans := root.calls.Load()
	require.Equal(t, int32(2), scans)

	_, err = r.Resolve(context.Background(), []string{"missing"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.Equal(t, scans, root.calls.Load(), "second lookup must not rescan")
	require.Zero(t, cc.calls.Load())
}

func TestResolve_FailureIsNotMemoized(t *testing.T) {
	root := newRoot(t, map[string]string{"flaky.mdx": "x"})
	cc := &countingCompiler{inner: content.NewCompiler(nil), fail: errors.New("compile exploded")}
	r := NewResolver(staticIndex(t), []storage.Provider{root}, cc)

	_, err := r.Resolve(context.Background(), []string{"flaky"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.False(t, r.Cached("flaky"))

	cc.fail = nil
	e, err := r.Resolve(context.Background(), []string{"flaky"})
	require.NoError(t, err)
	require.Equal(t, "/flaky", e.Href)
	require.Equal(t, int32(2), cc.calls.Load())
}

func TestResolve_CompilePanicIsAFailure(t *testing.T) {
	root := newRoot(t, map[string]string{"fragile.mdx": "---\ntitle: Fragile\n---\n"})
	cc := &countingCompiler{inner: content.NewCompiler(nil)}
	cc.panic.Store(true)
	r := NewResolver(staticIndex(t), []storage.Provider{root}, cc)

	_, err := r.Resolve(context.Background(), []string{"fragile"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.ErrorContains(t, err, "compiler bug")
	require.False(t, r.Cached("fragile"))

	e, err := r.Resolve(context.Background(), []string{"fragile"})
	require.NoError(t, err)
	require.Equal(t, "Fragile", e.Title)
	require.Equal(t, int32(2), cc.calls.Load())
}

func TestResolve_RootOrderAndCandidateOrder(t *testing.T) {
	first := newRoot(t, map[string]string{"api/index.mdx": "---\ntitle: First Index\n---\n"})
	second := newRoot(t, map[string]string{"api.mdx": "---\ntitle: Second File\n---\n"})
	r := NewResolver(staticIndex(t), []storage.Provider{first, second}, content.NewCompiler(nil))

	e, err := r.Resolve(context.Background(), []string{"api"})
	require.NoError(t, err)
	require.Equal(t, "First Index", e.Title, "first root wins over later roots")

	both := newRoot(t, map[string]string{
		"api.mdx":       "---\ntitle: File\n---\n",
		"api/index.mdx": "---\ntitle: Index\n---\n",
	})
	r = NewResolver(staticIndex(t), []storage.Provider{both}, content.NewCompiler(nil))
	e, err = r.Resolve(context.Background(), []string{"api"})
	require.NoError(t, err)
	require.Equal(t, "File", e.Title, "<key>.mdx wins over <key>/index.mdx")
}

func TestResolve_EmptyKeyUsesHome(t *testing.T) {
	root := newRoot(t, map[string]string{"home/index.mdx": "---\ntitle: Welcome\n---\n"})
	r := NewResolver(staticIndex(t), []storage.Provider{root}, content.NewCompiler(nil))
	e, err := r.Resolve(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "Welcome", e.Title)
	require.Equal(t, "/", e.Href)
}

func TestResolve_TraversalIsNotFound(t *testing.T) {
	root := newRoot(t, nil)
	r := NewResolver(staticIndex(t), []storage.Provider{root}, content.NewCompiler(nil))
	_, err := r.Resolve(context.Background(), []string{"..", "..", "etc", "passwd"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolve_CallerCancellationDoesNotPoisonKey(t *testing.T) {
	root := newRoot(t, map[string]string{"slow.mdx": "x"})
	cc := &countingCompiler{inner: content.NewCompiler(nil), gate: make(chan struct{})}
	r := NewResolver(staticIndex(t), []storage.Provider{root}, cc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Resolve(ctx, []string{"slow"})
	require.ErrorIs(t, err, context.Canceled)

	close(cc.gate)
	e, err := r.Resolve(context.Background(), []string{"slow"})
	require.NoError(t, err)
	require.Equal(t, "/slow", e.Href)
	require.Equal(t, int32(1), cc.calls.Load())
}

func TestResolve_OnCompiledHookAndForget(t *testing.T) {
	root := newRoot(t, map[string]string{"a.mdx": "a"})
	var seen atomic.Int32
	r := NewResolver(staticIndex(t), []storage.Provider{root}, content.NewCompiler(nil),
		WithOnCompiled(func(*models.DocumentEntry) { seen.Add(1) }))

	_, err := r.Resolve(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, int32(1), seen.Load())

	r.Forget("a")
	require.False(t, r.Cached("a"))
	_, err = r.Resolve(context.Background(), []string{"a"})
	require.NoError(t, err)
	require.Equal(t, int32(2), seen.Load())
}

func TestCandidates(t *testing.T) {
	require.Equal(t, []string{"home.mdx", "home/index.mdx"}, candidates(""))
	require.Equal(t, []string{"a/b.mdx", "a/b/index.mdx"}, candidates("a/b"))
	require.Equal(t, []string{"a/b.mdx"}, candidates("a/b.mdx"))
}

func TestKeysForSource(t *testing.T) {
	require.Equal(t, []string{"a/b.mdx", "a/b"}, KeysForSource("a/b.mdx"))
	require.Equal(t, []string{"a/index.mdx", "a/index", "a"}, KeysForSource("/a/index.mdx"))
	require.Equal(t, []string{"home.mdx", "home", ""}, KeysForSource("home.mdx"))
	require.Equal(t, []string{"home/index.mdx", "home/index", "home", ""}, KeysForSource("home/index.mdx"))
	require.Nil(t, KeysForSource("notes.txt"))
}

func TestDiscover(t *testing.T) {
	first := newRoot(t, map[string]string{
		"guides/setup.mdx":        "a",
		"guides/deploy/index.mdx": "b",
		"quickstart.mdx":          "static",
		"notes.txt":               "ignored",
	})
	second := newRoot(t, map[string]string{
		"guides/setup.mdx": "shadowed",
		"home.mdx":         "c",
	})
	quick := &models.DocumentEntry{ID: "quickstart", Slug: []string{"quickstart"}, Href: "/quickstart"}
	r := NewResolver(staticIndex(t, quick), []storage.Provider{first, second}, content.NewCompiler(nil))

	docs, err := r.Discover()
	require.NoError(t, err)

	var got [][2]string
	for _, d := range docs {
		got = append(got, [2]string{d.Href, d.Path})
		require.True(t, r.HasSource(d.Key), d.Key)
	}
	require.Equal(t, [][2]string{
		{"/guides/deploy", "guides/deploy/index.mdx"},
		{"/guides/setup", "guides/setup.mdx"},
		{"/", "home.mdx"},
	}, got)
	require.Equal(t, first.Root(), docs[1].Root, "first root wins")
	require.False(t, docs[0].UpdatedAt.IsZero())
	require.False(t, r.HasSource("missing"))
}
