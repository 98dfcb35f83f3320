package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var (
	ErrInit           = errors.New("failed to initialize GLFW")
	ErrCreate         = errors.New("failed to create GLFW window")
	ErrNotInitialized = errors.New("window is not initialized")
)

type glfwWindow struct {
	window *glfw.Window
	closed bool
}

func openNative(w *viewerWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrInit, err)
	}

	// The surface is driven by WebGPU; GLFW must not create a GL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("%w: %v", ErrCreate, err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, glfw.DontCare, glfw.DontCare)

	gw := &glfwWindow{window: win}
	w.native = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
			return
		}
		if (action == glfw.Press || action == glfw.Repeat) && w.onKeyDown != nil {
			w.onKeyDown(uint32(key))
		}
	})

	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.onScroll != nil {
			w.onScroll(float32(yoff))
		}
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		switch action {
		case glfw.Press:
			w.drag.press(win.GetCursorPos())
		case glfw.Release:
			w.drag.release()
		}
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if dx, dy, ok := w.drag.move(x, y); ok && w.onDrag != nil {
			w.onDrag(dx, dy)
		}
	})

	// Framebuffer size is in pixels, which is what surface configuration needs.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	w.width, w.height = win.GetFramebufferSize()
	return nil
}

func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) running() bool {
	return !g.closed && !g.window.ShouldClose()
}

func (g *glfwWindow) poll() {
	glfw.PollEvents()
}

func (g *glfwWindow) destroy() {
	g.closed = true
	g.window.Destroy()
	glfw.Terminate()
}
