// Package config loads sparqlmd project files.
//
// A project file is sparqlmd.yaml, sparqlmd.yml or sparqlmd.cue. CUE files
// are checked against the embedded #Config schema; YAML files reject
// unknown fields. Command-line flags take precedence over file values.
package config
