// Package config loads colsense configuration from local and global YAML
// files and the process environment. CLI code applies the precedence
// flags > local > global > defaults.
package config
