// Package loader builds scene.Scene values from glTF 2.0 assets.
//
// A Loader parses .gltf and .glb files, converts their meshes into one scene-wide vertex and
// index array, uploads geometry, uniform buffers and textures through a renderer.Device and
// caches the result by path. Degraded input is recorded in Scene.Diagnostics rather than
// failing the load.
package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/engine/logger"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

var (
	// ErrNoDevice is returned when a scene is loaded without a renderer.Device.
	ErrNoDevice = errors.New("loader has no device")
	// ErrUnsupportedFormat is returned for files whose extension no backend handles.
	ErrUnsupportedFormat = errors.New("unsupported scene format")
)

// LoaderBackendType identifies the scene file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	settings loadSettings

	sceneCache map[string]*scene.Scene

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching glTF scenes.
type Loader interface {
	// LoadFromFile imports a .gltf or .glb file and caches the result by its cleaned path.
	// A cached scene is returned without touching the file again.
	//
	// Parameters:
	//   - path: the file path to the scene
	//
	// Returns:
	//   - *scene.Scene: the loaded scene
	//   - error: error if parsing fails, a referenced file is missing or a GPU allocation fails
	LoadFromFile(path string) (*scene.Scene, error)

	// LoadReader imports a glTF JSON or GLB stream and caches it by name.
	// Relative buffer and image URIs resolve against baseDir.
	//
	// Parameters:
	//   - name: the cache key and scene name
	//   - r: the reader providing the document
	//   - baseDir: directory for relative URIs
	//
	// Returns:
	//   - *scene.Scene: the loaded scene
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, baseDir string) (*scene.Scene, error)

	// Get retrieves a cached scene by key. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *scene.Scene: the cached scene or nil
	Get(name string) *scene.Scene

	// Scenes returns a copy of the scene cache.
	//
	// Returns:
	//   - map[string]*scene.Scene: all cached scenes keyed by name
	Scenes() map[string]*scene.Scene

	// Evict removes a scene from the cache and destroys its GPU resources.
	//
	// Parameters:
	//   - name: the cache key to evict
	//
	// Returns:
	//   - bool: true if a scene was evicted
	Evict(name string) bool

	// Close destroys every cached scene.
	Close()

	// Flags returns the load flags applied to new loads.
	Flags() LoadFlags
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		settings:   defaultLoadSettings(),
		sceneCache: make(map[string]*scene.Scene),
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	if l.settings.log == nil {
		l.settings.log = logger.Named("loader")
	}
	return l
}

func (l *loader) LoadFromFile(path string) (*scene.Scene, error) {
	key := filepath.Clean(path)

	l.mu.RLock()
	if cached, ok := l.sceneCache[key]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	if l.settings.device == nil {
		return nil, ErrNoDevice
	}

	s, err := backend.Load(path, l.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.store(key, s), nil
}

func (l *loader) LoadReader(name string, r io.Reader, baseDir string) (*scene.Scene, error) {
	l.mu.RLock()
	if cached, ok := l.sceneCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	if l.settings.device == nil {
		return nil, ErrNoDevice
	}

	s, err := l.backend.LoadReader(name, r, baseDir, l.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.store(name, s), nil
}

// store caches s under key. When a concurrent load of the same key finished first, s is
// destroyed and the cached scene is returned instead.
func (l *loader) store(key string, s *scene.Scene) *scene.Scene {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.sceneCache[key]; ok {
		s.Destroy()
		return cached
	}
	l.sceneCache[key] = s
	l.settings.log.Info("scene loaded",
		zap.String("key", key),
		zap.Int("nodes", len(s.Nodes)),
		zap.Uint32("vertices", s.VertexCount),
		zap.Uint32("indices", s.IndexCount),
		zap.Int("diagnostics", len(s.Diagnostics)),
	)
	return s
}

func (l *loader) Get(name string) *scene.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s, ok := l.sceneCache[name]; ok {
		return s
	}
	return l.sceneCache[filepath.Clean(name)]
}

func (l *loader) Scenes() map[string]*scene.Scene {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*scene.Scene, len(l.sceneCache))
	for k, v := range l.sceneCache {
		result[k] = v
	}
	return result
}

func (l *loader) Evict(name string) bool {
	l.mu.Lock()
	s, ok := l.sceneCache[name]
	if !ok {
		name = filepath.Clean(name)
		s, ok = l.sceneCache[name]
	}
	if ok {
		delete(l.sceneCache, name)
	}
	l.mu.Unlock()

	if ok {
		s.Destroy()
	}
	return ok
}

func (l *loader) Close() {
	l.mu.Lock()
	cache := l.sceneCache
	l.sceneCache = make(map[string]*scene.Scene)
	l.mu.Unlock()

	for _, s := range cache {
		s.Destroy()
	}
}

func (l *loader) Flags() LoadFlags {
	return l.settings.flags
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
