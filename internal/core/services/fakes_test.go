package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/adapters/driven/storage/memory"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
)

var errStoreDown = errors.New("store down")

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier remembers every notified resource.
type recordingNotifier struct {
	mu   sync.Mutex
	keys []string
}

func (n *recordingNotifier) Notify(resource string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.keys = append(n.keys, resource)
}

func (n *recordingNotifier) Keys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.keys...)
}

// flakyStore wraps a memory store and fails writes while setErr is set.
type flakyStore struct {
	*memory.KeyValueStore
	setErr error
	getErr error
}

func newFlakyStore() *flakyStore {
	return &flakyStore{KeyValueStore: memory.NewKeyValueStore()}
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	return s.KeyValueStore.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.setErr != nil {
		return s.setErr
	}
	return s.KeyValueStore.Set(ctx, key, value)
}

// stubProber reports fixed image sizes and fails for unknown images.
type stubProber struct {
	images map[string]domain.ImageInfo
}

func (p *stubProber) Probe(_ context.Context, src string) (domain.ImageInfo, error) {
	info, ok := p.images[src]
	if !ok {
		return domain.ImageInfo{}, domain.ErrNotFound
	}
	return info, nil
}

// stubUploader returns result or err and records the payload.
type stubUploader struct {
	result domain.UploadResult
	err    error
	got    []byte
}

func (u *stubUploader) Upload(_ context.Context, _ string, r io.Reader) (domain.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.UploadResult{}, err
	}
	u.got = data
	if u.err != nil {
		return domain.UploadResult{}, u.err
	}
	return u.result, nil
}

// recordingMetrics counts observations.
type recordingMetrics struct {
	mu       sync.Mutex
	hits     int
	misses   int
	outcomes []driven.RebuildOutcome
}

func (m *recordingMetrics) ObserveQuery(cached bool, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cached {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *recordingMetrics) ObserveRebuild(outcome driven.RebuildOutcome, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

var (
	_ driven.Clock          = (*fakeClock)(nil)
	_ driven.ChangeNotifier = (*recordingNotifier)(nil)
	_ driven.KeyValueStore  = (*flakyStore)(nil)
	_ driven.ImageProber    = (*stubProber)(nil)
	_ driven.Uploader       = (*stubUploader)(nil)
	_ driven.SearchMetrics  = (*recordingMetrics)(nil)
)
