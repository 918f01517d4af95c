// Package config loads clinprep configuration from global and local YAML
// files and from the environment (including a .env file) with precedence
// rules. It is internal; CLI code maps flags and files into the redactor,
// seed and encoder settings.
package config
