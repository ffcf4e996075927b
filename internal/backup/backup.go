// Package backup ships database snapshots to object storage and restores
// them into database files.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/filestore"
	"github.com/koustreak/brewery/internal/logger"
)

const (
	// Extension is appended to every snapshot key.
	Extension = ".sqlite"

	// Latest may be passed to Restore in place of a key.
	Latest = "latest"

	keyLayout = "20060102T150405.000000000Z"
)

// header opens every SQLite database file.
var header = []byte("SQLite format 3\x00")

// Snapshotter produces a consistent image of a database.
// *database.Connection and the server session implement it.
type Snapshotter interface {
	Snapshot() ([]byte, error)
}

// Config selects where snapshots live.
type Config struct {
	Bucket string
	Prefix string

	// Keep is how many snapshots Prune retains. Zero keeps everything.
	Keep int

	// LinkTTL is the lifetime of download links.
	LinkTTL time.Duration
}

// DefaultConfig returns the settings used when only a bucket is known.
func DefaultConfig(bucket string) *Config {
	return &Config{
		Bucket:  bucket,
		Prefix:  "snapshots/",
		LinkTTL: 15 * time.Minute,
	}
}

// Service uploads, lists and restores snapshots.
type Service struct {
	store filestore.Store
	cfg   Config
	log   *logger.Logger
	now   func() time.Time
}

// New returns a Service storing snapshots in store.
func New(store filestore.Store, cfg *Config, log *logger.Logger) *Service {
	if cfg == nil {
		cfg = DefaultConfig("brewery")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store: store,
		cfg:   *cfg,
		log:   log.Component("backup").With().Str("bucket", cfg.Bucket).Logger(),
		now:   time.Now,
	}
}

// Backup uploads a fresh snapshot of src under <prefix><timestamp>.sqlite.
func (s *Service) Backup(ctx context.Context, src Snapshotter) (*filestore.ObjectInfo, error) {
	data, err := src.Snapshot()
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, header) {
		return nil, errs.New(errs.ErrKindInvalidInput, "snapshot is not an SQLite database image")
	}

	if err := s.store.EnsureBucket(ctx, s.cfg.Bucket); err != nil {
		return nil, err
	}

	key := s.cfg.Prefix + s.now().UTC().Format(keyLayout) + Extension
	info, err := s.store.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), filestore.ContentTypeSQLite)
	if err != nil {
		return nil, err
	}

	s.log.With().Str("key", key).Int("bytes", len(data)).Logger().Info("snapshot uploaded")
	return info, nil
}

// List returns the stored snapshots, newest first.
func (s *Service) List(ctx context.Context) ([]filestore.ObjectInfo, error) {
	objects, err := s.store.ListObjects(ctx, s.cfg.Bucket, filestore.ListOptions{
		Prefix:    s.cfg.Prefix,
		Recursive: true,
	})
	if err != nil {
		return nil, err
	}

	snapshots := make([]filestore.ObjectInfo, 0, len(objects))
	for _, o := range objects {
		if o.IsDir || !strings.HasSuffix(o.Key, Extension) {
			continue
		}
		snapshots = append(snapshots, o)
	}
	// Keys embed a UTC timestamp, so lexical order is chronological.
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Key > snapshots[j].Key
	})
	return snapshots, nil
}

// Resolve maps Latest to the newest snapshot key and checks that other
// keys belong to this service's prefix.
func (s *Service) Resolve(ctx context.Context, key string) (string, error) {
	if key != Latest {
		if !strings.HasPrefix(key, s.cfg.Prefix) {
			key = s.cfg.Prefix + key
		}
		return key, nil
	}

	snapshots, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	if len(snapshots) == 0 {
		return "", errs.Newf(errs.ErrKindNotFound, "no snapshots under %s/%s", s.cfg.Bucket, s.cfg.Prefix)
	}
	return snapshots[0].Key, nil
}

// Restore downloads snapshot key into the database file at path, replacing
// it. The database must not be open while it is restored.
func (s *Service) Restore(ctx context.Context, key, path string) error {
	key, err := s.Resolve(ctx, key)
	if err != nil {
		return err
	}

	obj, err := s.store.GetObject(ctx, s.cfg.Bucket, key)
	if err != nil {
		return err
	}
	defer obj.Close()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".restore-*")
	if err != nil {
		return errs.Wrap(errs.ErrKindPermissionDenied, fmt.Sprintf("create temp file in %s", dir), err)
	}
	defer os.Remove(tmp.Name())

	if err := copySnapshot(tmp, obj); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrKindPermissionDenied, "close restored file", err)
	}

	// Stale WAL sidecars would be replayed over the restored image.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !os.IsNotExist(err) {
			return errs.Wrap(errs.ErrKindPermissionDenied, "remove "+path+suffix, err)
		}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errs.Wrap(errs.ErrKindPermissionDenied, "replace "+path, err)
	}

	s.log.With().Str("key", key).Str("path", path).Logger().Info("snapshot restored")
	return nil
}

func copySnapshot(dst io.Writer, src io.Reader) error {
	head := make([]byte, len(header))
	if _, err := io.ReadFull(src, head); err != nil || !bytes.Equal(head, header) {
		return errs.New(errs.ErrKindInvalidInput, "object is not an SQLite database image")
	}
	if _, err := dst.Write(head); err != nil {
		return errs.Wrap(errs.ErrKindPermissionDenied, "write restored file", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return errs.Wrap(errs.ErrKindConnectionFailed, "download snapshot", err)
	}
	return nil
}

// Link returns a time-limited download URL for snapshot key.
func (s *Service) Link(ctx context.Context, key string) (string, error) {
	key, err := s.Resolve(ctx, key)
	if err != nil {
		return "", err
	}
	if _, err := s.store.StatObject(ctx, s.cfg.Bucket, key); err != nil {
		return "", err
	}
	return s.store.PresignGetURL(ctx, s.cfg.Bucket, key, s.cfg.LinkTTL)
}

// Prune deletes all but the newest Keep snapshots and returns how many it
// removed.
func (s *Service) Prune(ctx context.Context) (int, error) {
	if s.cfg.Keep <= 0 {
		return 0, nil
	}

	snapshots, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, o := range snapshots[min(s.cfg.Keep, len(snapshots)):] {
		if err := s.store.RemoveObject(ctx, s.cfg.Bucket, o.Key); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		s.log.With().Int("removed", removed).Logger().Info("old snapshots pruned")
	}
	return removed, nil
}
