package driving

import (
	"context"
	"io"

	"github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"
)

// CropService manages banner crops and their edit sessions.
type CropService interface {
	// Open starts an edit session for slot. When the slot's committed crop
	// belongs to the same image it is restored, otherwise the image is fitted
	// using the role's policy.
	Open(ctx context.Context, slot string, role domain.BannerRole, image domain.ImageInfo, viewport domain.Size) (EditSession, error)

	// Upload sends a new image to the upload endpoint and opens a session on it.
	Upload(ctx context.Context, slot string, role domain.BannerRole, filename string, r io.Reader, viewport domain.Size) (EditSession, error)

	// Committed returns the saved crop for slot, or domain.ErrNotFound.
	Committed(ctx context.Context, slot string) (*domain.CropMetadata, error)

	// Render resolves what a renderer needs for slot. Image load failures
	// produce a placeholder render and never alter the committed crop.
	Render(ctx context.Context, slot string) (*domain.SlotRender, error)

	// Slots lists the slots with a committed crop.
	Slots(ctx context.Context) ([]string, error)

	// Delete removes the committed crop for slot.
	Delete(ctx context.Context, slot string) error
}

// EditSession is one operator's in-progress edit of one slot.
type EditSession interface {
	// Slot returns the slot being edited.
	Slot() string

	// Metadata returns the working crop including the current transform.
	Metadata() domain.CropMetadata

	// Current returns the working transform.
	Current() domain.Transform

	// Drag moves the image by a pointer delta inside a container. It does not
	// record history; EndDrag does.
	Drag(dx, dy, containerWidth, containerHeight float64) (domain.Transform, error)

	// EndDrag records the gesture in history on pointer release.
	EndDrag() error

	// Zoom applies one wheel notch and records it in history.
	Zoom(wheelDelta float64) (domain.Transform, error)

	// Reset re-fits the image and records it in history.
	Reset() (domain.Transform, error)

	// Undo and Redo move through history. At a boundary they return the
	// current transform unchanged.
	Undo() (domain.Transform, error)
	Redo() (domain.Transform, error)

	CanUndo() bool
	CanRedo() bool

	// Save persists the working crop, notifies listeners and closes the
	// session. On failure the session stays open and unchanged.
	Save(ctx context.Context) (domain.CropMetadata, error)

	// Cancel discards the session and returns the last committed crop, if any.
	Cancel() *domain.CropMetadata

	// Closed reports whether Save or Cancel finished the session.
	Closed() bool
}
