package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
// It delegates to the gltfImporter for parsing and scene building.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend() gltfLoaderBackend {
	return &gltfLoaderBackendImpl{
		importer: newGLTFImporter(),
	}
}

func (b *gltfLoaderBackendImpl) Load(path string, settings loadSettings) (*scene.Scene, error) {
	return b.importer.Import(path, settings)
}

func (b *gltfLoaderBackendImpl) LoadReader(name string, r io.Reader, baseDir string, settings loadSettings) (*scene.Scene, error) {
	return b.importer.ImportReader(name, r, baseDir, settings)
}
