// Package config handles workbench configuration loading and management.
package config

// Config holds all workbench settings.
type Config struct {
	Brush   BrushConfig   `yaml:"brush"`
	Carve   CarveConfig   `yaml:"carve"`
	Bench   BenchConfig   `yaml:"bench"`
	Logging LoggingConfig `yaml:"logging"`
}

// BrushConfig holds sculpt brush settings.
type BrushConfig struct {
	Radius      float32 `yaml:"radius"`
	Intensity   float32 `yaml:"intensity"`
	SubdivRatio float32 `yaml:"subdiv_ratio"`
	Reduce      bool    `yaml:"reduce"`
}

// CarveConfig holds carve brush settings.
type CarveConfig struct {
	Radius      float32 `yaml:"radius"`
	Height      float32 `yaml:"height"`
	Exponent    float32 `yaml:"exponent"`
	SubdivRatio float32 `yaml:"subdiv_ratio"`
}

// BenchConfig holds the seed mesh and stroke schedule of a bench run.
type BenchConfig struct {
	Shape        string  `yaml:"shape"` // icosphere or hull
	MeshRadius   float32 `yaml:"mesh_radius"`
	Subdivisions int     `yaml:"subdivisions"`
	HullSamples  int     `yaml:"hull_samples"`
	Strokes      int     `yaml:"strokes"`
	SmoothRounds int     `yaml:"smooth_rounds"`
	Seed         int64   `yaml:"seed"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Brush: BrushConfig{
			Radius:      0.4,
			Intensity:   1.0,
			SubdivRatio: 0.35,
			Reduce:      false,
		},
		Carve: CarveConfig{
			Radius:      0.3,
			Height:      0.03,
			Exponent:    2.0,
			SubdivRatio: 0.3,
		},
		Bench: BenchConfig{
			Shape:        "icosphere",
			MeshRadius:   1.0,
			Subdivisions: 3,
			HullSamples:  500,
			Strokes:      10,
			SmoothRounds: 1,
			Seed:         1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
