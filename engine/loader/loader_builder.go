package loader

import (
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-gltf/engine/config"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gltf/engine/scene"
)

// loadSettings is the per-loader configuration handed to the backend for every load.
type loadSettings struct {
	device        renderer.Device
	flags         LoadFlags
	scale         float32
	imageWorkers  int
	meshSet       uint32
	maxAnisotropy float32
	log           *zap.Logger
}

func defaultLoadSettings() loadSettings {
	return loadSettings{
		scale:         1,
		imageWorkers:  4,
		meshSet:       scene.DefaultMeshSetIndex,
		maxAnisotropy: 8,
	}
}

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDevice is an option builder that sets the Device scenes are uploaded to.
//
// Parameters:
//   - d: the device instance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the device option to a loader
func WithDevice(d renderer.Device) LoaderBuilderOption {
	return func(l *loader) {
		l.settings.device = d
	}
}

// WithLogger is an option builder that sets the logger used by the loader and the scenes it builds.
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(log *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.settings.log = log
	}
}

// WithFlags is an option builder that sets the load flags.
//
// Parameters:
//   - flags: the post-processing flags
//
// Returns:
//   - LoaderBuilderOption: a function that applies the flags option to a loader
func WithFlags(flags LoadFlags) LoaderBuilderOption {
	return func(l *loader) {
		l.settings.flags = flags
	}
}

// WithScale records a scale factor on every loaded scene. Values <= 0 are ignored.
func WithScale(scale float32) LoaderBuilderOption {
	return func(l *loader) {
		if scale > 0 {
			l.settings.scale = scale
		}
	}
}

// WithImageWorkers sets how many images are decoded in parallel. 1 decodes inline.
func WithImageWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.settings.imageWorkers = n
		}
	}
}

// WithMeshSetIndex sets the descriptor set index scenes bind mesh uniform sets at.
func WithMeshSetIndex(set uint32) LoaderBuilderOption {
	return func(l *loader) {
		l.settings.meshSet = set
	}
}

// WithMaxAnisotropy sets the anisotropy requested for every texture sampler.
func WithMaxAnisotropy(a float32) LoaderBuilderOption {
	return func(l *loader) {
		if a > 0 {
			l.settings.maxAnisotropy = a
		}
	}
}

// WithLoaderConfig is an option builder that applies every field of a config.LoaderConfig.
//
// Parameters:
//   - cfg: the loader section of the configuration file
//
// Returns:
//   - LoaderBuilderOption: a function that applies the configuration to a loader
func WithLoaderConfig(cfg config.LoaderConfig) LoaderBuilderOption {
	return func(l *loader) {
		l.settings.flags = FlagsFromConfig(cfg)
		WithScale(cfg.Scale)(l)
		WithImageWorkers(cfg.ImageWorkers)(l)
		WithMeshSetIndex(cfg.MeshSetIndex)(l)
		WithMaxAnisotropy(cfg.MaxAnisotropy)(l)
	}
}

// FlagsFromConfig converts the boolean load switches of cfg into a LoadFlags mask.
//
// Parameters:
//   - cfg: the loader configuration
//
// Returns:
//   - LoadFlags: the flags
func FlagsFromConfig(cfg config.LoaderConfig) LoadFlags {
	var f LoadFlags
	if cfg.PreTransformVertices {
		f |= PreTransformVertices
	}
	if cfg.PreMultiplyVertexColors {
		f |= PreMultiplyVertexColors
	}
	if cfg.FlipY {
		f |= FlipY
	}
	if cfg.DontLoadImages {
		f |= DontLoadImages
	}
	return f
}
