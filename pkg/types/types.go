// Package types defines common types used across the trajectory viewer.
package types

import "path/filepath"

// Config holds the application configuration.
type Config struct {
	// TrajDir is the directory scanned for trajectory files.
	TrajDir string `json:"traj_dir"`

	// APIPort is the port the HTTP/websocket API listens on.
	APIPort int `json:"api_port"`

	// ShowDemo marks demo-flagged messages in rendered output.
	ShowDemo bool `json:"show_demo"`

	// Debug enables debug-level logging.
	Debug bool `json:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TrajDir:  ".",
		APIPort:  8080,
		ShowDemo: true,
	}
}

// Normalize cleans up the configuration in place.
func (c *Config) Normalize() {
	if c.TrajDir == "" {
		c.TrajDir = "."
	}
	c.TrajDir = filepath.Clean(c.TrajDir)
	if c.APIPort <= 0 {
		c.APIPort = 8080
	}
}
