package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/quillribbon/pkg/errors"
	"github.com/matzehuels/quillribbon/pkg/pipeline"
	"github.com/matzehuels/quillribbon/pkg/ribbon"
)

// Cache backends selectable in the config file.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
	BackendNone  = "none"
)

// Server defaults.
const (
	defaultAddr      = "127.0.0.1:8080"
	defaultMaxUpload = 64 << 20
)

// Config is the optional TOML configuration file. Command-line flags override
// every value they name.
//
//	formats = ["json", "obj"]
//	workers = 8
//
//	[build]
//	orientation = "billboard"
//	primitive = "triangles"
//	grouping = "drawing"
//	half_width = false
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "24h"
//
//	[server]
//	addr = ":8080"
//	max_upload = 67108864
type Config struct {
	Formats []string       `toml:"formats"`
	Workers int            `toml:"workers"`
	Build   ribbon.Options `toml:"build"`
	Cache   CacheConfig    `toml:"cache"`
	Server  ServerConfig   `toml:"server"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"` // file (default), redis, mongo, none
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	TTL           string `toml:"ttl"` // Go duration; empty keeps the per-stage defaults
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr      string `toml:"addr"`
	MaxUpload int64  `toml:"max_upload"` // bytes
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Formats: []string{pipeline.DefaultFormat},
		Cache:   CacheConfig{Backend: BackendFile},
		Server:  ServerConfig{Addr: defaultAddr, MaxUpload: defaultMaxUpload},
	}
}

// LoadConfig reads the config file at path on top of [DefaultConfig]. An
// empty path reads the default location, where a missing file is not an
// error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every value and fills defaults for empty ones.
func (c *Config) Validate() error {
	if len(c.Formats) == 0 {
		c.Formats = []string{pipeline.DefaultFormat}
	}
	if err := pipeline.ValidateFormats(c.Formats); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidOption, "workers must be non-negative")
	}
	if err := pipeline.ValidateBuild(&c.Build); err != nil {
		return err
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if err := errors.ValidateOneOf("cache backend", c.Cache.Backend, BackendFile, BackendRedis, BackendMongo, BackendNone); err != nil {
		return err
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errors.New(errors.ErrCodeInvalidOption, "cache backend redis needs redis_addr")
	}
	if c.Cache.Backend == BackendMongo && c.Cache.MongoURI == "" {
		return errors.New(errors.ErrCodeInvalidOption, "cache backend mongo needs mongo_uri")
	}
	if c.Cache.TTL != "" {
		d, err := time.ParseDuration(c.Cache.TTL)
		if err != nil || d <= 0 {
			return errors.New(errors.ErrCodeInvalidOption, "invalid cache ttl %q", c.Cache.TTL)
		}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.MaxUpload <= 0 {
		c.Server.MaxUpload = defaultMaxUpload
	}
	return nil
}

// TTLDuration returns the configured TTL, or zero when unset.
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0
	}
	return d
}

// pipelineOptions returns the pipeline options described by the config.
func (c *Config) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Build:   c.Build,
		Workers: c.Workers,
		Formats: append([]string(nil), c.Formats...),
	}
}
