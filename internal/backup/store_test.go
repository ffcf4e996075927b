package backup

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/koustreak/brewery/internal/errs"
	"github.com/koustreak/brewery/internal/filestore"
)

// memStore is an in-memory filestore.Store.
type memStore struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{buckets: make(map[string]map[string][]byte)}
}

var _ filestore.Store = (*memStore)(nil)

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error               { return nil }

func (m *memStore) EnsureBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.buckets[bucket] == nil {
		m.buckets[bucket] = make(map[string][]byte)
	}
	return nil
}

func (m *memStore) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, contentType string) (*filestore.ObjectInfo, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	b[key] = data
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: contentType, LastModified: time.Now()}, nil
}

func (m *memStore) ListObjects(_ context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []filestore.ObjectInfo{}
	for key, data := range m.buckets[bucket] {
		if strings.HasPrefix(key, opts.Prefix) {
			out = append(out, filestore.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memStore) GetObject(_ context.Context, bucket, key string) (filestore.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.buckets[bucket][key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "no such key %s", key)
	}
	return &memObject{
		Reader: bytes.NewReader(data),
		info:   &filestore.ObjectInfo{Key: key, Size: int64(len(data))},
	}, nil
}

func (m *memStore) StatObject(_ context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.buckets[bucket][key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "no such key %s", key)
	}
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (m *memStore) RemoveObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buckets[bucket], key)
	return nil
}

func (m *memStore) PresignGetURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "https://store.local/" + bucket + "/" + key + "?ttl=" + ttl.String(), nil
}

func (m *memStore) keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.buckets[bucket] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type memObject struct {
	*bytes.Reader
	info *filestore.ObjectInfo
}

func (o *memObject) Close() error                  { return nil }
func (o *memObject) Info() *filestore.ObjectInfo { return o.info }

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
