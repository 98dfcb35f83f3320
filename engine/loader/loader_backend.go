package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// loaderBackend defines the generic interface for loading scenes from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full scene import from the given file path.
	//
	// Parameters:
	//   - path: the file path to load
	//   - settings: the device, flags and logger to build with
	//
	// Returns:
	//   - *scene.Scene: the built scene with its GPU resources
	//   - error: error if loading fails
	Load(path string, settings loadSettings) (*scene.Scene, error)

	// LoadReader imports a scene from a reader stream.
	//
	// Parameters:
	//   - name: the scene name
	//   - r: the reader providing the document
	//   - baseDir: directory for relative URIs
	//   - settings: the device, flags and logger to build with
	//
	// Returns:
	//   - *scene.Scene: the built scene with its GPU resources
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, baseDir string, settings loadSettings) (*scene.Scene, error)
}
