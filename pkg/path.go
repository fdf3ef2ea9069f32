package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// debugBinary matches the executable name the dlv debugger builds by default.
var debugBinary = regexp.MustCompile(`^__debug_bin\d*$`)

// Prefix returns the identifier that names the configuration and cache
// directories and prefixes environment variables. It is the base name of the
// running executable without extension or leading dots, so a renamed
// interpreter keeps its own settings. Debugger builds and unnamed
// executables fall back to [Name].
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimLeft(strings.TrimSuffix(id, filepath.Ext(id)), ".")

		if id == "" || debugBinary.MatchString(id) {
			return Name
		}

		return id
	},
)

// EnvVar returns the environment variable name for setting key, such as
// "TLISP_CONFIG_DIR" for "config_dir".
func EnvVar(key string) string {
	return strings.ToUpper(Prefix() + "_" + key)
}

// ConfigDir returns the directory holding the configuration file. The
// <PREFIX>_CONFIG_DIR environment variable overrides the platform default.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(
	func() string {
		return userDir(EnvVar("config_dir"), os.UserConfigDir, ".config")
	},
)

// CacheDir returns the directory holding REPL history and profiles. The
// <PREFIX>_CACHE_DIR environment variable overrides the platform default.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(
	func() string {
		return userDir(EnvVar("cache_dir"), os.UserCacheDir, ".cache")
	},
)

// userDir resolves a per-user directory. A non-empty env variable is used
// verbatim. Otherwise the result is Prefix() under the platform directory,
// under home/hidden when the platform has none, or under the working
// directory as a last resort.
func userDir(env string, platform func() (string, error), hidden string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}

	dir, err := platform()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}
