// Package configutil loads json5 configuration files with optional
// local overrides. Checked-in defaults go in <name>.json5, secrets like
// passwords and api tokens in <name>.local.json5 next to it.
package configutil

import (
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localName turns "strava.json5" into "strava.local.json5".
func localName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readInto[T any](path string, out *T) (bool, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json5.Unmarshal(raw, out)
}

// ReadConfig reads <name> and merges the local override file over it
// when one exists. Returns os.ErrNotExist when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var config T

	found, err := readInto(name, &config)
	if err != nil {
		return config, err
	}

	var overrides T
	foundLocal, err := readInto(localName(name), &overrides)
	if err != nil {
		return config, err
	}
	if foundLocal {
		if err := mergo.Merge(&config, overrides, mergo.WithOverride); err != nil {
			return config, err
		}
	}

	if !found && !foundLocal {
		return config, os.ErrNotExist
	}
	return config, nil
}

// ReadRecursively walks from the working directory up to the filesystem
// root looking for a config matching name, reading the first one found.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if !os.IsNotExist(err) {
			return config, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}
