package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagRadius    = flag.Float64("radius", 0, "Sculpt brush radius")
	flagIntensity = flag.Float64("intensity", 0, "Reduce-mode intensity")
	flagReduce    = flag.Bool("reduce", false, "Use decimation strokes")
	flagStrokes   = flag.Int("strokes", 0, "Number of strokes to run")
	flagShape     = flag.String("shape", "", "Seed mesh shape (icosphere or hull)")
	flagSeed      = flag.Int64("seed", 0, "Stroke placement seed")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagRadius > 0 {
		cfg.Brush.Radius = float32(*flagRadius)
		cfg.Carve.Radius = float32(*flagRadius)
	}
	if *flagIntensity > 0 {
		cfg.Brush.Intensity = float32(*flagIntensity)
	}
	if *flagReduce {
		cfg.Brush.Reduce = true
	}
	if *flagStrokes > 0 {
		cfg.Bench.Strokes = *flagStrokes
	}
	if *flagShape != "" {
		cfg.Bench.Shape = *flagShape
	}
	if *flagSeed != 0 {
		cfg.Bench.Seed = *flagSeed
	}
}
