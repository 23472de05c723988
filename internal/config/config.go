// Package config loads oruby command configuration from YAML file.
//
//     require:
//       - world_module
//     journal: calls.db
//     verbose: false
//     debug: false
package config

import (
	"errors"
	"io"
	"os"

	"github.com/ygrebnov/errorc"
	"gopkg.in/yaml.v3"
)

// EnvVar names environment variable holding default config path
const EnvVar = "ORUBY_CONFIG"

var namespace = errorc.Namespace("config")

// Sentinel errors, use errors.Is to match.
var (
	ErrRead  = namespace.NewError("cannot read config")
	ErrParse = namespace.NewError("cannot parse config")
)

var newKey = errorc.KeyFactory("config")

// Structured error field keys
var (
	ErrorFieldPath  = newKey("path")  // config.path
	ErrorFieldCause = newKey("cause") // config.cause
)

// Config of oruby command
type Config struct {
	Require []string `yaml:"require"`
	Journal string   `yaml:"journal"`
	Verbose bool     `yaml:"verbose"`
	Debug   bool     `yaml:"debug"`
}

// Path returns path if set, otherwise value of ORUBY_CONFIG
func Path(path string) string {
	if path != "" {
		return path
	}
	return os.Getenv(EnvVar)
}

// Load reads config file. Empty path gives zero config.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, errorc.With(ErrRead, errorc.String(ErrorFieldPath, path), errorc.String(ErrorFieldCause, err.Error()))
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return Config{}, errorc.With(ErrParse, errorc.String(ErrorFieldPath, path), errorc.String(ErrorFieldCause, err.Error()))
	}

	return cfg, nil
}

// Decode parses YAML config, unknown keys are rejected
func Decode(r io.Reader) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	return cfg, nil
}

// Merge returns cfg with libraries from require appended. Flags given on
// command line override file values: non-empty journal, and verbose and
// debug when not nil.
func (cfg Config) Merge(require []string, journal string, verbose, debug *bool) Config {
	seen := make(map[string]bool, len(cfg.Require))
	libs := make([]string, 0, len(cfg.Require)+len(require))
	for _, lib := range append(append([]string{}, cfg.Require...), require...) {
		if !seen[lib] {
			seen[lib] = true
			libs = append(libs, lib)
		}
	}
	cfg.Require = libs

	if journal != "" {
		cfg.Journal = journal
	}
	if verbose != nil {
		cfg.Verbose = *verbose
	}
	if debug != nil {
		cfg.Debug = *debug
	}

	return cfg
}
