package scene

import "go.uber.org/zap"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *Scene)

// WithName sets the scene name.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *Scene) {
		s.Name = name
	}
}

// WithLogger sets the logger the scene reports diagnostics through.
// Defaults to the global logger named "scene".
//
// Parameters:
//   - log: the logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(log *zap.Logger) SceneBuilderOption {
	return func(s *Scene) {
		s.log = log
	}
}

// WithMeshSetIndex sets the set index Draw binds mesh uniform sets at. Defaults to 2.
//
// Parameters:
//   - set: the set index
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMeshSetIndex(set uint32) SceneBuilderOption {
	return func(s *Scene) {
		s.meshSet = set
	}
}

// WithScale records the scale requested at load time.
//
// Parameters:
//   - scale: the scale, values <= 0 are ignored
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithScale(scale float32) SceneBuilderOption {
	return func(s *Scene) {
		if scale > 0 {
			s.Scale = scale
		}
	}
}
