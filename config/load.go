package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
)

// DefaultPrefix is the environment variable prefix read by Load.
const DefaultPrefix = "PIPELINE_"

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	prefix   string
	dotenv   []string
	defaults Options
}

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) LoadOption {
	return func(o *loadOptions) { o.prefix = prefix }
}

// WithDotEnv loads the given .env files into the environment first. Missing
// files are skipped; variables already set are not overridden.
func WithDotEnv(files ...string) LoadOption {
	return func(o *loadOptions) { o.dotenv = append(o.dotenv, files...) }
}

// WithDefaults replaces Default() as the base layer.
func WithDefaults(defaults Options) LoadOption {
	return func(o *loadOptions) { o.defaults = defaults }
}

// Load builds Options from the defaults overlaid with the environment, then
// validates them.
func Load(opts ...LoadOption) (Options, error) {
	lo := loadOptions{prefix: DefaultPrefix, defaults: Default()}
	for _, opt := range opts {
		opt(&lo)
	}

	for _, file := range lo.dotenv {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Options{}, fmt.Errorf("config: failed to load %s: %w", file, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(lo.defaults, "koanf"), nil); err != nil {
		return Options{}, fmt.Errorf("config: failed to load defaults: %w", err)
	}

	prefix := lo.prefix
	err := k.Load(env.Provider(prefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, prefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		return Options{}, fmt.Errorf("config: failed to load environment: %w", err)
	}

	var out Options
	if err := k.Unmarshal("", &out); err != nil {
		return Options{}, fmt.Errorf("config: failed to decode: %w", err)
	}
	if err := out.Validate(); err != nil {
		return Options{}, err
	}
	return out, nil
}
