package window

import (
	"errors"
	"testing"
)

func TestDragTracker(t *testing.T) {
	var d dragTracker
	if _, _, ok := d.move(10, 10); ok {
		t.Error("expected no drag before a press")
	}

	d.press(10, 10)
	dx, dy, ok := d.move(13, 6)
	if !ok || dx != 3 || dy != -4 {
		t.Errorf("expected (3, -4), got (%v, %v) ok=%v", dx, dy, ok)
	}
	dx, dy, _ = d.move(14, 6)
	if dx != 1 || dy != 0 {
		t.Errorf("expected deltas relative to the last move, got (%v, %v)", dx, dy)
	}

	d.release()
	if _, _, ok := d.move(20, 20); ok {
		t.Error("expected no drag after release")
	}
}

func TestResizedSkipsMinimized(t *testing.T) {
	w := &viewerWindow{}
	calls := 0
	w.SetResizeCallback(func(width, height int) { calls++ })

	w.resized(800, 600)
	w.resized(0, 0)
	if calls != 1 {
		t.Errorf("expected 1 resize callback, got %d", calls)
	}
	if w.Width() != 0 || w.Height() != 0 {
		t.Errorf("expected the stored size to track the framebuffer, got %dx%d", w.Width(), w.Height())
	}
}

func TestCloseUnopened(t *testing.T) {
	w := &viewerWindow{}
	if w.IsRunning() {
		t.Error("expected an unopened window to report not running")
	}
	if w.SurfaceDescriptor() != nil {
		t.Error("expected no surface descriptor")
	}
	if err := w.Close(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}
