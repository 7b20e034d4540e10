// Package configutil reads the json5 configuration files this
// project runs on: service configs, the selector table and the
// telemetry endpoints. A sibling <name>.local.<ext> file overrides
// individual keys, local overrides stay out of version control and
// hold machine-specific values like database paths and smtp
// credentials.
package configutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// localVariant maps "dir/config.json5" to "dir/config.local.json5".
func localVariant(path string) string {
	base := filepath.Base(path)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i] + ".local" + base[i:]
	} else {
		base += ".local"
	}
	return filepath.Join(filepath.Dir(path), base)
}

// decodeFile reports whether the file contributed anything. Absent
// and empty files both read as "nothing here", only real content may
// fail to decode.
func decodeFile[T any](path string, out *T) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if len(raw) == 0 {
		return false, nil
	}
	return true, json5.Unmarshal(raw, out)
}

// ReadConfig decodes the file at `path` and merges the local variant
// over it when one exists. When neither file exists the error is
// os.ErrNotExist, callers that cannot run unconfigured treat that as
// fatal.
func ReadConfig[T any](path string) (T, error) {
	var config T

	found, err := decodeFile(path, &config)
	if err != nil {
		return config, err
	}

	localPath := localVariant(path)
	var local T
	foundLocal, err := decodeFile(localPath, &local)
	if err != nil {
		return config, err
	}
	if foundLocal {
		err = mergo.Merge(&config, local, mergo.WithOverride)
		if err != nil {
			return config, err
		}
		slog.Info("applied local config overrides", "path", localPath)
	}

	if !found && !foundLocal {
		return config, os.ErrNotExist
	}
	return config, nil
}

// ReadRecursively looks for `name` in the working directory, then in
// each parent up to the filesystem root. Environment-wide files like
// telemetry.json5 sit above the individual service directories and
// are found this way from wherever a binary or test runs.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}
