// Package config loads an optional YAML overlay for a benchmark harness's
// flags, in the shape novasql's internal/config.go uses: viper decoding
// into a mapstructure-tagged struct. The overlay only ever supplies
// defaults — a harness applies it after parsing its flags, and only to
// fields whose flag was not passed, so any flag actually given on the
// command line still wins.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads the YAML file at path into out, which must be a pointer to
// a mapstructure-tagged struct. An empty path is not an error: harnesses
// treat --config as optional and simply skip the overlay.
func Load(path string, out interface{}) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := v.Unmarshal(out); err != nil {
		return fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return nil
}
