// Package config handles loader and viewer configuration.
package config

// Config holds every tunable of the loader and the bundled commands.
type Config struct {
	Loader  LoaderConfig  `yaml:"loader"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoaderConfig holds scene loading settings.
type LoaderConfig struct {
	PreTransformVertices    bool    `yaml:"pre_transform_vertices"`
	PreMultiplyVertexColors bool    `yaml:"pre_multiply_vertex_colors"`
	FlipY                   bool    `yaml:"flip_y"`
	DontLoadImages          bool    `yaml:"dont_load_images"`
	Scale                   float32 `yaml:"scale"`
	ImageWorkers            int     `yaml:"image_workers"` // 1 decodes inline
	MeshSetIndex            uint32  `yaml:"mesh_set_index"`
	MaxAnisotropy           float32 `yaml:"max_anisotropy"`
}

// ViewerConfig holds window and playback settings for the viewer command.
type ViewerConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	Title          string  `yaml:"title"`
	VSync          bool    `yaml:"vsync"`
	Animation      int     `yaml:"animation"` // -1 disables playback
	AnimationSpeed float32 `yaml:"animation_speed"`
	Profiling      bool    `yaml:"profiling"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			Scale:         1.0,
			ImageWorkers:  4,
			MeshSetIndex:  2,
			MaxAnisotropy: 8,
		},
		Viewer: ViewerConfig{
			Width:          1280,
			Height:         720,
			Title:          "oxy-gltf viewer",
			VSync:          true,
			Animation:      0,
			AnimationSpeed: 1.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
