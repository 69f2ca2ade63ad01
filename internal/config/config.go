// Package config handles tool configuration loading and management.
package config

// Config holds all sktransfer settings.
type Config struct {
	Raster  RasterConfig  `yaml:"raster"`
	Debug   DebugConfig   `yaml:"debug"`
	Logging LoggingConfig `yaml:"logging"`
}

// RasterConfig holds the UV raster resolution. Memory use is dominated
// by two width*height vector buffers, so keep the product bounded.
type RasterConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DebugConfig controls diagnostic image dumps of the intermediate
// rasters.
type DebugConfig struct {
	SaveImages bool   `yaml:"save_images"`
	OutputDir  string `yaml:"output_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Raster: RasterConfig{
			Width:  256,
			Height: 256,
		},
		Debug: DebugConfig{
			SaveImages: false,
			OutputDir:  ".",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
