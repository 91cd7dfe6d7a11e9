// Package config loads the standalone host's configuration.
//
// Values are layered: built-in defaults for the selected environment,
// then an optional YAML file, then REWARDS_-prefixed environment
// variables. The merged result is validated against an embedded CUE
// schema before use.
package config
