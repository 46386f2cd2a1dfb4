package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/podscribe/logger"
)

// FileSystem is the part of the filesystem the loader touches.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem reads the real filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv sets variables from path without overriding ones already set.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig collects the LoaderOptions.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

type LoaderOption func(*LoaderConfig)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile skips the search. The file must exist.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// SearchPaths lists the config file candidates for service, most specific
// first: the working directory, then the user config directory.
func SearchPaths(service string) []string {
	paths := []string{
		"./" + service + ".yml",
		"./config.yml",
		"./config/config.yml",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, service, "config.yml"))
	}
	return paths
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig fills cfg from, in increasing priority, the YAML config file,
// a .env file and the environment. Every mapstructure key of cfg can be set
// from the environment as KEY_PATH or SERVICE_KEY_PATH, e.g.
// TRANSCRIPTION_REMOTE_API_KEY or PODSCRIBE_TRANSCRIPTION_REMOTE_API_KEY for
// transcription.remote.api_key.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	configFile := lc.ConfigFile
	if configFile == "" {
		configFile = firstExisting(lc.FileSystem, SearchPaths(service))
	} else if !lc.FileSystem.Exists(configFile) {
		return fmt.Errorf("config file %s not found", configFile)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		logger.Debug("config file loaded", logger.Fields(logger.FieldPath, configFile))
	}

	envFile := lc.EnvFile
	if envFile == "" {
		envFile = firstExisting(lc.FileSystem, []string{".env." + service, ".env"})
	}
	if envFile != "" {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			logger.Warn("failed to load .env file", logger.Fields(logger.FieldPath, envFile, logger.FieldError, err.Error()))
		}
	}

	prefix := strings.ToUpper(service) + "_"
	for _, key := range Keys(cfg) {
		env := EnvName(key)
		if err := v.BindEnv(key, prefix+env, env); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to decode config for %s: %w", service, err)
	}
	return nil
}

// EnvName maps a dotted config key to its environment variable.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Keys lists the dotted mapstructure keys of the leaf fields in cfg.
// Squashed embeds contribute their keys at the parent level.
func Keys(cfg any) []string {
	t := reflect.TypeOf(cfg)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var keys []string
	collectKeys(t, "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		nested := ft.Kind() == reflect.Struct && ft.PkgPath() != "time"
		if nested && (opts == "squash" || (f.Anonymous && name == "")) {
			collectKeys(ft, prefix, keys)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		if nested {
			collectKeys(ft, prefix+name+".", keys)
			continue
		}
		*keys = append(*keys, prefix+name)
	}
}
