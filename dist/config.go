package dist

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/sysbind/sysbind/compiler"
	"github.com/sysbind/sysbind/errors"
)

// fileConfig mirrors Options in TOML-friendly form.
type fileConfig struct {
	ModuleName  string   `toml:"module_name"`
	SearchPaths []string `toml:"search_paths"`
	Toolchain   []string `toml:"toolchain"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}
	return fc, nil
}

// configPath returns $SYSBIND_CONFIG when set, else ~/.sysbind/config.toml.
func configPath() string {
	if p := os.Getenv("SYSBIND_CONFIG"); p != "" {
		return p
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".sysbind", "config.toml")
	}
	return ""
}

// OptionsFromEnvironment builds Options from the config file and
// environment overrides. Precedence: environment, then file, then the
// package defaults filled in by NewCache. A missing config file is not an
// error; an unreadable or malformed one is logged and skipped.
func OptionsFromEnvironment() Options {
	var opts Options

	if path := configPath(); path != "" {
		fc, err := loadFileConfig(path)
		switch {
		case err == nil:
			opts.ModuleName = fc.ModuleName
			opts.SearchPaths = fc.SearchPaths
			if len(fc.Toolchain) > 0 {
				opts.Compiler = &compiler.Compiler{Toolchain: fc.Toolchain}
			}
		case !os.IsNotExist(err):
			Logger().Warn("read config file", zap.String("path", path), zap.Error(err))
		}
	}

	if dir := os.Getenv("SYSBIND_PREBUILT"); dir != "" {
		opts.SearchPaths = append([]string{dir}, opts.SearchPaths...)
	}
	if tc := os.Getenv("SYSBIND_TOOLCHAIN"); tc != "" {
		opts.Compiler = &compiler.Compiler{Toolchain: strings.Fields(tc)}
	}

	return opts
}
