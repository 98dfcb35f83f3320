// Package window wraps a GLFW window for the interactive viewer.
package window

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a GLFW-backed window that forwards input to viewer callbacks.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for vertical scroll events.
	//
	// Parameters:
	//   - callback: function receiving the scroll delta, positive is away from the user
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetDragCallback sets the callback for cursor movement while the left button is held.
	//
	// Parameters:
	//   - callback: function receiving the cursor delta in pixels since the last event
	SetDragCallback(callback func(dx, dy float32))

	// SurfaceDescriptor returns a platform surface descriptor for the window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: ErrNotInitialized if the window was already closed
	Close() error

	// ProcessMessages polls events and calls the update callback until the window closes.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

type viewerWindow struct {
	title         string
	width, height int
	minWidth      int
	minHeight     int

	native *glfwWindow
	drag   dragTracker

	onUpdate  func()
	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onDrag    func(dx, dy float32)
}

var _ Window = &viewerWindow{}

// NewWindow creates and shows a window.
// GLFW requires the calling goroutine to stay on the main OS thread, so the thread is locked here.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: error if GLFW could not be initialized or the window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &viewerWindow{
		title:     "oxy-gltf",
		width:     1280,
		height:    720,
		minWidth:  320,
		minHeight: 240,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := openNative(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *viewerWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *viewerWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *viewerWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *viewerWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *viewerWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *viewerWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.surfaceDescriptor()
}

func (w *viewerWindow) IsRunning() bool {
	return w.native != nil && w.native.running()
}

func (w *viewerWindow) Close() error {
	if w.native == nil {
		return ErrNotInitialized
	}
	w.native.destroy()
	w.native = nil
	return nil
}

func (w *viewerWindow) ProcessMessages() {
	for w.IsRunning() {
		w.native.poll()
		if !w.IsRunning() {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *viewerWindow) Width() int {
	return w.width
}

func (w *viewerWindow) Height() int {
	return w.height
}

func (w *viewerWindow) resized(width, height int) {
	w.width, w.height = width, height
	if w.onResize != nil && width > 0 && height > 0 {
		w.onResize(width, height)
	}
}

// dragTracker turns absolute cursor positions into deltas while a button is held.
type dragTracker struct {
	active       bool
	lastX, lastY float64
}

func (d *dragTracker) press(x, y float64) {
	d.active = true
	d.lastX, d.lastY = x, y
}

func (d *dragTracker) release() {
	d.active = false
}

// move returns the delta since the previous position and whether a drag is in progress.
func (d *dragTracker) move(x, y float64) (float32, float32, bool) {
	if !d.active {
		return 0, 0, false
	}
	dx, dy := x-d.lastX, y-d.lastY
	d.lastX, d.lastY = x, y
	return float32(dx), float32(dy), true
}
