package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/resgen/pkg"
)

// baseConfig is the base name of the configuration files and the top-level
// key of the YAML configuration.
const baseConfig = "config"

var defaultDirMode os.FileMode = 0o700

var executableRenames = []struct {
	rex *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`^__debug_bin\d+$`), pkg.Name}, // dlv output
	{regexp.MustCompile(`^\.+`), ""},
}

// basePrefix names the user configuration and cache directories after the
// executable, so that renamed builds keep separate settings.
var basePrefix = sync.OnceValue(func() string {
	id := os.Args[0]
	if exe, err := os.Executable(); err == nil {
		id = exe
	}

	id = filepath.Base(id)
	id = strings.TrimSuffix(id, filepath.Ext(id))

	for _, r := range executableRenames {
		id = r.rex.ReplaceAllString(id, r.rep)
	}

	if id == "" {
		return pkg.Name
	}

	return id
})

// userDir returns the per-user directory reported by primary, falling back
// to home/dot under the home directory and finally the working directory.
func userDir(primary func() (string, error), dot string) string {
	dir, err := primary()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, dot)
		} else if wd, werr := os.Getwd(); werr == nil {
			dir = wd
		} else {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

var configDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

var cacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// configPath joins elem to the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
