package medium

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"snippetmanager/internal/kv"
)

func TestSelect(t *testing.T) {
	cases := []struct {
		name string
		env  Environment
		want Kind
	}{
		{"default keyvalue", Environment{}, KindKeyValue},
		{"desktop shell", Environment{Shell: DesktopShell}, KindFilesystem},
		{"other shell", Environment{Shell: "browser"}, KindKeyValue},
		{"explicit wins", Environment{Shell: DesktopShell, Medium: KindKeyValue}, KindKeyValue},
		{"explicit filesystem", Environment{Medium: KindFilesystem}, KindFilesystem},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Select(tc.env))
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	require.Equal(t, Kind(""), k)
	k, err = ParseKind("FileSystem")
	require.NoError(t, err)
	require.Equal(t, KindFilesystem, k)
	k, err = ParseKind("kv")
	require.NoError(t, err)
	require.Equal(t, KindKeyValue, k)
	_, err = ParseKind("floppy")
	require.Error(t, err)
}

func TestDetect_Filesystem(t *testing.T) {
	dir := t.TempDir()
	h := Detect(context.Background(), Environment{Shell: DesktopShell, DataDir: dir})
	require.Equal(t, KindFilesystem, h.Kind())

	c, err := h.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReady, h.State())
	require.Equal(t, KindFilesystem, c.Kind)
	require.NotNil(t, c.Files)
	got, err := c.Paths.AppDataDir(context.Background())
	require.NoError(t, err)
	require.Equal(t, dir, got)
	require.Nil(t, c.Store)
}

func TestDetect_KeyValueDefaultsSQLiteUnderDataDir(t *testing.T) {
	dir := t.TempDir()
	h := Detect(context.Background(), Environment{DataDir: dir})
	t.Cleanup(func() { _ = h.Close() })

	c, err := h.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, kv.DriverSQLite, c.Store.Driver())
	_, err = os.Stat(filepath.Join(dir, AppDirName, "store.db"))
	require.NoError(t, err)
}

func TestDetect_CapabilityArrivesLate(t *testing.T) {
	release := make(chan struct{})
	opener := func(ctx context.Context, cfg kv.Config) (kv.Store, error) {
		<-release
		return kv.NewMemory(), nil
	}
	h := Detect(context.Background(), Environment{KV: kv.Config{Driver: kv.DriverMemory}}, WithKVOpener(opener))
	require.Equal(t, KindKeyValue, h.Kind())
	require.Equal(t, StatePending, h.State())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, StatePending, h.State())

	close(release)
	c, err := h.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReady, h.State())
	require.Equal(t, kv.DriverMemory, c.Store.Driver())
}

func TestDetect_Failed(t *testing.T) {
	boom := errors.New("boom")
	opener := func(context.Context, kv.Config) (kv.Store, error) { return nil, boom }
	h := Detect(context.Background(), Environment{KV: kv.Config{Driver: kv.DriverMemory}}, WithKVOpener(opener))
	_, err := h.Await(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, StateFailed, h.State())
}

type closeCountingStore struct {
	kv.Store
	mu     sync.Mutex
	closed int
}

func (s *closeCountingStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *closeCountingStore) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestHandle_CloseReleasesStore(t *testing.T) {
	store := &closeCountingStore{Store: kv.NewMemory()}
	h := NewReady(Capability{Kind: KindKeyValue, Store: store})
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	require.Equal(t, 1, store.closes())
	_, err := h.Await(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestHandle_CloseBeforeResolve(t *testing.T) {
	h, resolve := NewPending(KindKeyValue)
	require.NoError(t, h.Close())
	store := &closeCountingStore{Store: kv.NewMemory()}
	resolve(Capability{Store: store}, nil)
	require.Equal(t, 1, store.closes())

	resolve(Capability{}, errors.New("ignored"))
	require.Equal(t, StateReady, h.State())
}

func TestDefault_Memoized(t *testing.T) {
	defaultOnce = sync.Once{}
	defaultHandle = nil
	t.Cleanup(func() {
		defaultOnce = sync.Once{}
		defaultHandle = nil
	})

	first := Default(context.Background(), Environment{Shell: DesktopShell, DataDir: t.TempDir()})
	second := Default(context.Background(), Environment{})
	require.Same(t, first, second)
	require.Equal(t, KindFilesystem, second.Kind())
}

func TestOSFileSystem(t *testing.T) {
	fs := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, fs.MkdirAll(dir))
	require.NoError(t, fs.MkdirAll(dir))

	name := filepath.Join(dir, "x.json")
	require.NoError(t, fs.WriteFile(name, []byte("one")))
	require.NoError(t, fs.WriteFile(name, []byte("two")))
	got, err := fs.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, "two", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = fs.ReadFile(filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
