package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koustreak/brewery/internal/database"
	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/filestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T, path string) *database.Connection {
	t.Helper()
	conn, err := database.Open(context.Background(), database.DefaultConfig(path), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// liveDB opens a database holding one table, so it has pages to snapshot.
func liveDB(t *testing.T) *database.Connection {
	t.Helper()
	conn := openDB(t, filepath.Join(t.TempDir(), "live.sqlite"))
	require.NoError(t, conn.Execute(database.Raw("CREATE TABLE Goblets(ID INTEGER PRIMARY KEY, Name TEXT)")))
	return conn
}

func newService(t *testing.T) (*Service, *memStore) {
	t.Helper()

	store := newMemStore()
	svc := New(store, DefaultConfig("brewery"), nil)

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, store
}

func TestBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	src := openDB(t, filepath.Join(t.TempDir(), "live.sqlite"))
	require.NoError(t, src.Execute(database.Raw(`
		CREATE TABLE Drinks(ID INTEGER PRIMARY KEY, Name TEXT);
		INSERT INTO Drinks VALUES (1, 'Stout'), (2, 'Mead');
	`)))

	info, err := svc.Backup(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/20240301T120001.000000000Z.sqlite", info.Key)
	assert.Equal(t, filestore.ContentTypeSQLite, info.ContentType)
	assert.Equal(t, []string{info.Key}, store.keys("brewery"))

	// Later writes are not part of the snapshot.
	require.NoError(t, src.Execute(database.Raw("INSERT INTO Drinks VALUES (3, 'Cider')")))

	target := filepath.Join(t.TempDir(), "restored.sqlite")
	require.NoError(t, svc.Restore(ctx, info.Key, target))

	restored := openDB(t, target)
	n, err := restored.Size("Drinks")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRestore_ReplacesExistingFile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	src := openDB(t, filepath.Join(t.TempDir(), "live.sqlite"))
	require.NoError(t, src.Execute(database.Raw("CREATE TABLE T(x INTEGER); INSERT INTO T VALUES (1);")))
	_, err := svc.Backup(ctx, src)
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "old.sqlite")
	old, err := database.Open(ctx, database.DefaultConfig(target), nil)
	require.NoError(t, err)
	require.NoError(t, old.Execute(database.Raw("CREATE TABLE Other(y INTEGER)")))
	require.NoError(t, old.Close())

	require.NoError(t, svc.Restore(ctx, Latest, target))

	restored := openDB(t, target)
	n, err := restored.Size("T")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = restored.Size("Other")
	assert.Error(t, err)

	matches, err := filepath.Glob(target + ".restore-*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	src := liveDB(t)

	for i := 0; i < 3; i++ {
		_, err := svc.Backup(ctx, src)
		require.NoError(t, err)
	}
	// Foreign objects under the prefix are ignored.
	_, err := store.PutObject(ctx, "brewery", "snapshots/readme.txt", stringsReader("hi"), 2, "text/plain")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "snapshots/20240301T120003.000000000Z.sqlite", list[0].Key)
	assert.Equal(t, "snapshots/20240301T120001.000000000Z.sqlite", list[2].Key)

	key, err := svc.Resolve(ctx, Latest)
	require.NoError(t, err)
	assert.Equal(t, list[0].Key, key)

	key, err = svc.Resolve(ctx, "20240301T120002.000000000Z.sqlite")
	require.NoError(t, err)
	assert.Equal(t, list[1].Key, key)
}

func TestRestore_Errors(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	target := filepath.Join(t.TempDir(), "x.sqlite")

	err := svc.Restore(ctx, Latest, target)
	assert.True(t, errs.IsNotFound(err))

	err = svc.Restore(ctx, "snapshots/missing.sqlite", target)
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, store.EnsureBucket(ctx, "brewery"))
	_, err = store.PutObject(ctx, "brewery", "snapshots/bogus.sqlite", stringsReader("not a database"), -1, "")
	require.NoError(t, err)

	err = svc.Restore(ctx, "snapshots/bogus.sqlite", target)
	assert.True(t, errs.IsInvalidInput(err))
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

type snapshotFunc func() ([]byte, error)

func (f snapshotFunc) Snapshot() ([]byte, error) { return f() }

func TestBackup_Errors(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	boom := errors.New("disk gone")
	_, err := svc.Backup(ctx, snapshotFunc(func() ([]byte, error) { return nil, boom }))
	assert.ErrorIs(t, err, boom)

	_, err = svc.Backup(ctx, snapshotFunc(func() ([]byte, error) { return []byte("garbage"), nil }))
	assert.True(t, errs.IsInvalidInput(err))

	store.putErr = errs.New(errs.ErrKindPermissionDenied, "denied")
	src := liveDB(t)
	_, err = svc.Backup(ctx, src)
	assert.True(t, errs.IsPermissionDenied(err))
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	src := liveDB(t)

	n, err := svc.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 0; i < 5; i++ {
		_, err := svc.Backup(ctx, src)
		require.NoError(t, err)
	}

	svc.cfg.Keep = 2
	n, err = svc.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{
		"snapshots/20240301T120004.000000000Z.sqlite",
		"snapshots/20240301T120005.000000000Z.sqlite",
	}, store.keys("brewery"))
}

func TestLink(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	src := liveDB(t)

	info, err := svc.Backup(ctx, src)
	require.NoError(t, err)

	url, err := svc.Link(ctx, Latest)
	require.NoError(t, err)
	assert.Equal(t, "https://store.local/brewery/"+info.Key+"?ttl=15m0s", url)

	_, err = svc.Link(ctx, "snapshots/nope.sqlite")
	assert.True(t, errs.IsNotFound(err))
}
