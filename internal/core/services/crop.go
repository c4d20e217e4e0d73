package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driven"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/ports/driving"
	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/logger"
)

// Ensure CropService implements the interface.
var _ driving.CropService = (*CropService)(nil)

// CropService manages committed banner crops and their edit sessions.
type CropService struct {
	store    driven.KeyValueStore
	engine   *TransformEngine
	uploader driven.Uploader
	prober   driven.ImageProber
	notifier driven.ChangeNotifier
	clock    driven.Clock

	mu       sync.Mutex
	sessions map[string]*editSession
}

// NewCropService creates a crop service.
// Uploader, prober and notifier are optional and set separately.
func NewCropService(store driven.KeyValueStore, engine *TransformEngine) *CropService {
	if engine == nil {
		engine = NewTransformEngine(domain.DefaultCropSettings())
	}
	return &CropService{
		store:    store,
		engine:   engine,
		clock:    SystemClock{},
		sessions: make(map[string]*editSession),
	}
}

// SetUploader sets the upload endpoint used by Upload.
func (s *CropService) SetUploader(uploader driven.Uploader) {
	s.uploader = uploader
}

// SetImageProber sets the prober used by Render to check images load.
func (s *CropService) SetImageProber(prober driven.ImageProber) {
	s.prober = prober
}

// SetNotifier sets the notifier told about committed saves and deletes.
func (s *CropService) SetNotifier(notifier driven.ChangeNotifier) {
	s.notifier = notifier
}

// SetClock sets the time source for UpdatedAt stamps.
func (s *CropService) SetClock(clock driven.Clock) {
	if clock != nil {
		s.clock = clock
	}
}

// Engine returns the transform engine shared by sessions and renders.
func (s *CropService) Engine() *TransformEngine {
	return s.engine
}

// Open starts an edit session for slot.
func (s *CropService) Open(
	ctx context.Context,
	slot string,
	role domain.BannerRole,
	image domain.ImageInfo,
	viewport domain.Size,
) (driving.EditSession, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return nil, fmt.Errorf("%w: slot is required", domain.ErrInvalidInput)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}
	if strings.TrimSpace(image.Src) == "" {
		return nil, fmt.Errorf("%w: image src is required", domain.ErrInvalidInput)
	}
	if !viewport.Valid() {
		ref, err := ReferenceViewport(role.Ratio())
		if err != nil {
			return nil, err
		}
		viewport = ref
	}

	committed, err := s.Committed(ctx, slot)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var start domain.Transform
	if committed != nil && committed.Src == image.Src {
		start = committed.Transform()
		logger.Debug("crop %s: restoring committed transform %+v", slot, start)
	} else {
		start, err = s.engine.InitializeFit(image.Size(), viewport, role.Policy())
		if err != nil {
			return nil, fmt.Errorf("fit %s: %w", slot, err)
		}
		logger.Debug("crop %s: %s fit scale %.4f", slot, role.Policy(), start.Scale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, open := s.sessions[slot]; open {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionInProgress, slot)
	}

	session := &editSession{
		svc:       s,
		slot:      slot,
		role:      role,
		image:     image,
		viewport:  viewport,
		committed: committed,
		history:   NewEditHistory(start),
		working:   start,
	}
	s.sessions[slot] = session

	return session, nil
}

// Upload sends the payload to the upload endpoint and opens a session on
// the returned image. Upload failures leave committed state untouched.
func (s *CropService) Upload(
	ctx context.Context,
	slot string,
	role domain.BannerRole,
	filename string,
	r io.Reader,
	viewport domain.Size,
) (driving.EditSession, error) {
	if s.uploader == nil {
		return nil, domain.ErrUploadUnavailable
	}

	result, err := s.uploader.Upload(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	logger.Info("uploaded %s as %s (%dx%d)", filename, result.URL, result.Width, result.Height)

	return s.Open(ctx, slot, role, result.ImageInfo(), viewport)
}

// Committed returns the saved crop for slot.
func (s *CropService) Committed(ctx context.Context, slot string) (*domain.CropMetadata, error) {
	raw, err := s.store.Get(ctx, s.key(slot))
	if err != nil {
		return nil, fmt.Errorf("load crop %s: %w", slot, err)
	}

	var meta domain.CropMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("%w: crop %s: %v", domain.ErrInvalidInput, slot, err)
	}
	return &meta, nil
}

// Render resolves the committed crop of slot into a render transform.
func (s *CropService) Render(ctx context.Context, slot string) (*domain.SlotRender, error) {
	meta, err := s.Committed(ctx, slot)
	if err != nil {
		return nil, err
	}

	out := &domain.SlotRender{
		Slot:     slot,
		Metadata: *meta,
		Render:   s.engine.ComputeRenderTransform(*meta),
	}

	if s.prober != nil {
		info, err := s.prober.Probe(ctx, meta.Src)
		if err != nil {
			logger.Warn("crop %s: image %s failed to load: %v", slot, meta.Src, err)
			out.Placeholder = true
			out.LoadError = err.Error()
		} else {
			out.Image = &info
		}
	}

	return out, nil
}

// Slots lists the slots with a committed crop.
func (s *CropService) Slots(ctx context.Context) ([]string, error) {
	prefix := s.engine.Settings().KeyPrefix
	keys, err := s.store.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list crops: %w", err)
	}
	slots := make([]string, 0, len(keys))
	for _, k := range keys {
		slots = append(slots, strings.TrimPrefix(k, prefix))
	}
	return slots, nil
}

// Delete removes the committed crop for slot.
func (s *CropService) Delete(ctx context.Context, slot string) error {
	if err := s.store.Remove(ctx, s.key(slot)); err != nil {
		return fmt.Errorf("delete crop %s: %w", slot, err)
	}
	s.notify(slot)
	return nil
}

func (s *CropService) key(slot string) string {
	return s.engine.Settings().KeyPrefix + slot
}

func (s *CropService) notify(slot string) {
	if s.notifier != nil {
		s.notifier.Notify(s.key(slot))
	}
}

func (s *CropService) release(slot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, slot)
}

// editSession implements driving.EditSession.
type editSession struct {
	svc       *CropService
	slot      string
	role      domain.BannerRole
	image     domain.ImageInfo
	viewport  domain.Size
	committed *domain.CropMetadata

	mu      sync.Mutex
	history *EditHistory
	working domain.Transform
	closed  bool
}

var _ driving.EditSession = (*editSession)(nil)

func (e *editSession) Slot() string {
	return e.slot
}

func (e *editSession) Metadata() domain.CropMetadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metadata()
}

func (e *editSession) metadata() domain.CropMetadata {
	return domain.CropMetadata{
		Src:   e.image.Src,
		Ratio: e.role.Ratio(),
	}.WithTransform(e.working)
}

func (e *editSession) Current() domain.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.working
}

func (e *editSession) Drag(dx, dy, containerWidth, containerHeight float64) (domain.Transform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.working, domain.ErrSessionClosed
	}
	e.working = e.svc.engine.ApplyDrag(e.working, dx, dy, containerWidth, containerHeight)
	return e.working, nil
}

func (e *editSession) EndDrag() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrSessionClosed
	}
	e.history.Push(e.working)
	return nil
}

func (e *editSession) Zoom(wheelDelta float64) (domain.Transform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.working, domain.ErrSessionClosed
	}
	e.working = e.svc.engine.ApplyZoom(e.working, wheelDelta)
	e.history.Push(e.working)
	return e.working, nil
}

func (e *editSession) Reset() (domain.Transform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.working, domain.ErrSessionClosed
	}
	fit, err := e.svc.engine.InitializeFit(e.image.Size(), e.viewport, e.role.Policy())
	if err != nil {
		return e.working, err
	}
	e.working = fit
	e.history.Push(fit)
	return e.working, nil
}

// Undo first records a drag that was never released so it can be redone.
func (e *editSession) Undo() (domain.Transform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.working, domain.ErrSessionClosed
	}
	e.history.Push(e.working)
	e.working = e.history.Undo()
	return e.working, nil
}

func (e *editSession) Redo() (domain.Transform, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return e.working, domain.ErrSessionClosed
	}
	if !e.working.Equal(e.history.Current()) {
		// An unreleased drag is newer than anything to redo.
		return e.working, nil
	}
	e.working = e.history.Redo()
	return e.working, nil
}

func (e *editSession) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo() || !e.working.Equal(e.history.Current())
}

func (e *editSession) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo() && e.working.Equal(e.history.Current())
}

func (e *editSession) Save(ctx context.Context) (domain.CropMetadata, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.CropMetadata{}, domain.ErrSessionClosed
	}

	meta := e.metadata()
	meta.UpdatedAt = e.svc.clock.Now().UTC()
	if err := meta.Validate(e.svc.engine.Settings().TranslateBound); err != nil {
		return domain.CropMetadata{}, err
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return domain.CropMetadata{}, fmt.Errorf("marshal crop %s: %w", e.slot, err)
	}
	if err := e.svc.store.Set(ctx, e.svc.key(e.slot), string(data)); err != nil {
		logger.Error("crop %s: save failed: %v", e.slot, err)
		return domain.CropMetadata{}, fmt.Errorf("save crop %s: %w", e.slot, err)
	}

	e.closed = true
	e.svc.release(e.slot)
	e.svc.notify(e.slot)
	logger.Info("crop %s saved: scale=%.4f tx=%.4f ty=%.4f", e.slot, meta.Scale, meta.TX, meta.TY)

	return meta, nil
}

func (e *editSession) Cancel() *domain.CropMetadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		e.svc.release(e.slot)
	}
	if e.committed == nil {
		return nil
	}
	c := *e.committed
	return &c
}

func (e *editSession) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
