package window

// WindowBuilderOption is a functional option for configuring a window before it is opened.
type WindowBuilderOption func(w *viewerWindow)

// WithTitle sets the window title.
//
// Parameters:
//   - title: the title bar text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *viewerWindow) {
		w.title = title
	}
}

// WithSize sets the requested window size. The framebuffer may differ on high-DPI displays.
//
// Parameters:
//   - width: width in screen coordinates
//   - height: height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *viewerWindow) {
		if width > 0 && height > 0 {
			w.width, w.height = width, height
		}
	}
}

// WithMinSize sets the smallest size the window can be resized to.
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *viewerWindow) {
		w.minWidth, w.minHeight = width, height
	}
}
