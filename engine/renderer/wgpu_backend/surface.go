package wgpu_backend

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
)

// DepthFormat is the format of the depth attachment created by Surface.Configure.
const DepthFormat = wgpu.TextureFormatDepth24Plus

var (
	ErrFrameInFlight = errors.New("previous frame has not been presented")
	ErrNoFrame       = errors.New("no frame in flight")
	ErrNotConfigured = errors.New("surface is not configured")
)

// Surface owns a WebGPU instance, adapter and device presenting to a window surface,
// together with the depth attachment and the per-frame encoder state.
type Surface struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	format      wgpu.TextureFormat
	presentMode wgpu.PresentMode
	clear       wgpu.Color
	depth       *wgpu.Texture
	depthView   *wgpu.TextureView
	configured  bool

	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder

	log *zap.Logger
}

// SurfaceBuilderOption is a functional option used to configure a Surface during construction.
type SurfaceBuilderOption func(*Surface)

// WithVSync selects FIFO presentation when enabled and immediate presentation otherwise.
//
// Parameters:
//   - vsync: whether presentation waits for vertical blank
//
// Returns:
//   - SurfaceBuilderOption: the option
func WithVSync(vsync bool) SurfaceBuilderOption {
	return func(s *Surface) {
		s.presentMode = presentMode(vsync)
	}
}

// WithClearColor sets the color the frame is cleared to.
func WithClearColor(c wgpu.Color) SurfaceBuilderOption {
	return func(s *Surface) {
		s.clear = c
	}
}

func presentMode(vsync bool) wgpu.PresentMode {
	if vsync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}

// OpenSurface creates an instance, a surface for the descriptor and a device able to present to it.
//
// Parameters:
//   - descriptor: the platform surface descriptor, usually from window.Window.SurfaceDescriptor
//   - options: functional options
//
// Returns:
//   - *Surface: the surface, not yet configured
//   - error: error if no adapter or device could be acquired
func OpenSurface(descriptor *wgpu.SurfaceDescriptor, options ...SurfaceBuilderOption) (*Surface, error) {
	s := &Surface{
		presentMode: wgpu.PresentModeFifo,
		clear:       wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
		log:         logger.Named("surface"),
	}
	for _, opt := range options {
		opt(s)
	}

	s.instance = wgpu.CreateInstance(nil)
	s.surface = s.instance.CreateSurface(descriptor)

	adapter, err := s.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: s.surface,
	})
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	s.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Viewer Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		s.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	s.device = device
	s.queue = device.GetQueue()
	return s, nil
}

// Device wraps the surface's device in a loader Device.
//
// Parameters:
//   - options: device options
//
// Returns:
//   - *Device: the device
func (s *Surface) Device(options ...DeviceBuilderOption) *Device {
	return NewDevice(s.device, s.queue, options...)
}

// Format returns the color format chosen by the last Configure call.
func (s *Surface) Format() wgpu.TextureFormat {
	return s.format
}

// Configure (re)configures the swapchain and recreates the depth attachment.
// Zero sizes, as reported for minimized windows, are ignored.
//
// Parameters:
//   - width: framebuffer width in pixels
//   - height: framebuffer height in pixels
//
// Returns:
//   - error: error if the depth attachment cannot be created
func (s *Surface) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}

	capabilities := s.surface.GetCapabilities(s.adapter)
	s.format = capabilities.Formats[0]
	s.surface.Configure(s.adapter, s.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      s.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: s.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	s.releaseDepth()
	depth, err := s.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("depth texture: %w", err)
	}
	view, err := depth.CreateView(nil)
	if err != nil {
		depth.Release()
		return fmt.Errorf("depth view: %w", err)
	}
	s.depth, s.depthView = depth, view
	s.configured = true
	s.log.Debug("surface configured",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Uint32("format", uint32(s.format)),
	)
	return nil
}

// BeginFrame acquires the next swapchain image and opens a render pass that clears color and depth.
//
// Returns:
//   - *wgpu.RenderPassEncoder: the open pass
//   - error: ErrFrameInFlight, ErrNotConfigured or an acquisition error
func (s *Surface) BeginFrame() (*wgpu.RenderPassEncoder, error) {
	if s.frameTexture != nil {
		return nil, ErrFrameInFlight
	}
	if !s.configured {
		return nil, ErrNotConfigured
	}

	texture, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, err
	}
	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		texture.Release()
		return nil, err
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: s.clear,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            s.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})

	s.frameTexture = texture
	s.frameView = view
	s.frameEncoder = encoder
	s.framePass = pass
	return pass, nil
}

// EndFrame ends the pass, submits it and presents the image.
//
// Returns:
//   - error: ErrNoFrame when no frame was begun, or the encoder error
func (s *Surface) EndFrame() error {
	if s.framePass == nil {
		return ErrNoFrame
	}
	defer s.releaseFrame()

	s.framePass.End()
	commandBuffer, err := s.frameEncoder.Finish(nil)
	if err != nil {
		return err
	}
	s.queue.Submit(commandBuffer)
	commandBuffer.Release()
	s.surface.Present()
	return nil
}

func (s *Surface) releaseFrame() {
	if s.framePass != nil {
		s.framePass.Release()
		s.framePass = nil
	}
	if s.frameEncoder != nil {
		s.frameEncoder.Release()
		s.frameEncoder = nil
	}
	if s.frameView != nil {
		s.frameView.Release()
		s.frameView = nil
	}
	if s.frameTexture != nil {
		s.frameTexture.Release()
		s.frameTexture = nil
	}
}

func (s *Surface) releaseDepth() {
	if s.depthView != nil {
		s.depthView.Release()
		s.depthView = nil
	}
	if s.depth != nil {
		s.depth.Release()
		s.depth = nil
	}
}

// Release frees every object the surface owns. Resources created on the device must be
// released first.
func (s *Surface) Release() {
	s.releaseFrame()
	s.releaseDepth()
	if s.queue != nil {
		s.queue.Release()
		s.queue = nil
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
	if s.adapter != nil {
		s.adapter.Release()
		s.adapter = nil
	}
	if s.surface != nil {
		s.surface.Release()
		s.surface = nil
	}
	if s.instance != nil {
		s.instance.Release()
		s.instance = nil
	}
}
