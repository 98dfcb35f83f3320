package main

import (
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/common"
	"github.com/Carmen-Shannon/oxy-gltf/engine/camera"
	"github.com/Carmen-Shannon/oxy-gltf/engine/config"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
	"github.com/Carmen-Shannon/oxy-gltf/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
	"github.com/Carmen-Shannon/oxy-gltf/engine/window"
)

const orbitSpeed = 0.01 // radians per dragged pixel

// viewer owns every GPU object of one loaded scene and drives the frame loop.
type viewer struct {
	win       window.Window
	surface   *wgpu_backend.Surface
	loader    loader.Loader
	scene     *scene.Scene
	bindings  *wgpu_backend.BindingContext
	pipelines *wgpu_backend.ScenePipelines

	camera      camera.Camera
	cameraBuf   *wgpu_backend.UniformBuffer
	cameraGroup *wgpu.BindGroup

	playback *playback
	profiler *profiler.Profiler
	last     time.Time
	err      error

	log *zap.Logger
}

func newViewer(win window.Window, cfg *config.Config, path string) (*viewer, error) {
	v := &viewer{win: win, log: logger.Named("viewer"), last: time.Now()}
	if err := v.open(cfg, path); err != nil {
		v.release()
		return nil, err
	}
	win.SetUpdateCallback(v.frame)
	win.SetResizeCallback(v.resize)
	win.SetScrollCallback(v.camera.Zoom)
	win.SetDragCallback(func(dx, dy float32) {
		v.camera.Orbit(-dx*orbitSpeed, dy*orbitSpeed)
	})
	win.SetKeyDownCallback(v.key)
	return v, nil
}

func (v *viewer) open(cfg *config.Config, path string) error {
	surface, err := wgpu_backend.OpenSurface(v.win.SurfaceDescriptor(), wgpu_backend.WithVSync(cfg.Viewer.VSync))
	if err != nil {
		return err
	}
	v.surface = surface
	if err := surface.Configure(v.win.Width(), v.win.Height()); err != nil {
		return err
	}

	dev := surface.Device(wgpu_backend.WithMaxAnisotropy(uint16(cfg.Loader.MaxAnisotropy)))
	loaderCfg := cfg.Loader
	loaderCfg.MeshSetIndex = wgpu_backend.MeshSet
	v.loader = loader.NewLoader(loader.BackendTypeGLTF,
		loader.WithDevice(dev),
		loader.WithLoaderConfig(loaderCfg),
	)
	s, err := v.loader.LoadFromFile(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	v.scene = s
	for _, d := range s.Diagnostics {
		v.log.Info("load diagnostic", zap.Stringer("diagnostic", d))
	}

	if v.bindings, err = wgpu_backend.NewBindingContext(dev); err != nil {
		return err
	}
	if err := v.bindings.Bind(s); err != nil {
		return err
	}
	if v.pipelines, err = wgpu_backend.NewScenePipelines(dev, v.bindings, surface.Format()); err != nil {
		return err
	}

	buf, err := dev.CreateUniformBuffer("Camera", uint64(camera.CameraUniformSize))
	if err != nil {
		return err
	}
	v.cameraBuf = buf.(*wgpu_backend.UniformBuffer)
	if v.cameraGroup, err = v.pipelines.BindCamera(v.cameraBuf); err != nil {
		return err
	}

	v.camera = camera.NewCamera(camera.WithAspect(aspect(v.win.Width(), v.win.Height())))
	v.camera.Frame(s.Bounds)

	v.playback = newPlayback(cfg.Viewer.Animation, cfg.Viewer.AnimationSpeed, len(s.Animations))
	if cfg.Viewer.Profiling {
		v.profiler = profiler.NewProfiler(profiler.WithLogger(v.log))
	}

	st := s.Stats()
	v.log.Info("scene ready",
		zap.String("path", path),
		zap.Int("nodes", len(s.Nodes)),
		zap.Int("primitives", st.Primitives),
		zap.Int("animations", len(s.Animations)),
	)
	return nil
}

func (v *viewer) frame() {
	now := time.Now()
	dt := float32(now.Sub(v.last).Seconds())
	v.last = now

	if v.playback.active() {
		t := v.playback.advance(dt, &v.scene.Animations[v.playback.index])
		if err := v.scene.UpdateAnimation(v.playback.index, t); err != nil {
			v.log.Warn("animation update failed", zap.Error(err))
		}
	}

	block := v.camera.Uniform()
	if err := v.cameraBuf.Write(0, common.StructToBytes(&block)); err != nil {
		v.fail(err)
		return
	}

	pass, err := v.surface.BeginFrame()
	if err != nil {
		v.log.Warn("frame skipped", zap.Error(err))
		return
	}
	pass.SetBindGroup(wgpu_backend.CameraSet, v.cameraGroup, nil)
	draws := v.pipelines.Draw(pass, v.scene)
	if err := v.surface.EndFrame(); err != nil {
		v.fail(err)
		return
	}

	if v.profiler != nil {
		v.profiler.AddDraws(draws)
		v.profiler.Tick()
	}
}

func (v *viewer) fail(err error) {
	v.log.Error("frame failed", zap.Error(err))
	v.err = err
	v.win.Close()
}

func (v *viewer) resize(width, height int) {
	if err := v.surface.Configure(width, height); err != nil {
		v.fail(err)
		return
	}
	v.camera.SetAspect(aspect(width, height))
}

func (v *viewer) key(code uint32) {
	switch glfw.Key(code) {
	case glfw.KeySpace:
		v.playback.paused = !v.playback.paused
	case glfw.KeyN:
		v.playback.next(len(v.scene.Animations))
		if v.playback.active() {
			v.log.Info("animation selected",
				zap.Int("index", v.playback.index),
				zap.String("name", v.scene.Animations[v.playback.index].Name),
			)
		}
	case glfw.KeyF:
		v.camera.Frame(v.scene.Bounds)
	}
}

// release frees GPU objects in reverse creation order. Scenes are destroyed by the loader.
func (v *viewer) release() {
	if v.surface != nil {
		if dev := v.surface.Device(); dev != nil {
			dev.WaitIdle()
		}
	}
	if v.cameraGroup != nil {
		v.cameraGroup.Release()
	}
	if v.cameraBuf != nil {
		v.cameraBuf.Destroy()
	}
	if v.pipelines != nil {
		v.pipelines.Release()
	}
	if v.bindings != nil {
		v.bindings.Destroy()
	}
	if v.loader != nil {
		v.loader.Close()
	}
	if v.surface != nil {
		v.surface.Release()
	}
}

func aspect(width, height int) float32 {
	if height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
