package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and the scene builder to produce a Scene with its GPU resources.
type gltfImporter interface {
	// Import loads a glTF/GLB file and builds a scene from it.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//   - settings: the device, flags and logger to build with
	//
	// Returns:
	//   - *scene.Scene: the built scene
	//   - error: error if import fails
	Import(path string, settings loadSettings) (*scene.Scene, error)

	// ImportReader loads a glTF document from a reader and builds a scene from it.
	// The reader should provide a complete glTF JSON or GLB binary stream.
	//
	// Parameters:
	//   - name: the scene name
	//   - r: the reader providing glTF/GLB data
	//   - baseDir: directory for relative URIs
	//   - settings: the device, flags and logger to build with
	//
	// Returns:
	//   - *scene.Scene: the built scene
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, baseDir string, settings loadSettings) (*scene.Scene, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string, settings loadSettings) (*scene.Scene, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	s, err := newSceneBuilder(parser, settings).build(gltfExtractSceneName(parser.Document(), path))
	if err != nil {
		return nil, err
	}
	s.Path = path
	return s, nil
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, baseDir string, settings loadSettings) (*scene.Scene, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, baseDir); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}

	return newSceneBuilder(parser, settings).build(gltfExtractSceneName(parser.Document(), name))
}

// gltfExtractSceneName derives a scene name from the default scene or a path fallback.
func gltfExtractSceneName(doc *gltfDocument, fallback string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	if fallback != "" {
		base := filepath.Base(fallback)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}

	return "unnamed_scene"
}
