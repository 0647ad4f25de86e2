// Package config loads the ot3d configuration file.
//
// The file is TOML with one table per stage:
//
//	[extract]
//	scale = 0                 # 0: use the DEF UNITS value
//	placement_keywords = ["PLACED", "FIXED", "COVER"]
//
//	[cluster]
//	count = 16
//	mode = "exact"            # or "approx"
//	workers = 4
//
//	[hpl]
//	overhead = 0.0
//	pin_accurate = false
//
//	[feed]
//	delimiter = ","
//
//	[cache]
//	backend = "file"          # none, file or redis
//	ttl = "168h"
//
//	[store]
//	backend = "file"          # none, file or mongo
//
// Command-line flags override values from the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/OpenTraceLab/OpenTrace3D/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/def"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/feed"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/hpl"
	"github.com/OpenTraceLab/OpenTrace3D/pkg/pipeline"
)

// Backend names shared by [cache] and [store].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the whole configuration file.
type Config struct {
	Extract ExtractConfig `toml:"extract"`
	Cluster ClusterConfig `toml:"cluster"`
	HPL     HPLConfig     `toml:"hpl"`
	Feed    FeedConfig    `toml:"feed"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
}

type ExtractConfig struct {
	Scale             float64  `toml:"scale"`
	PlacementKeywords []string `toml:"placement_keywords"`
	SkipKeywords      []string `toml:"skip_keywords"`
}

type ClusterConfig struct {
	Count   int    `toml:"count"`
	Mode    string `toml:"mode"`
	Workers int    `toml:"workers"`

	mode connectivity.Mode
}

type HPLConfig struct {
	Overhead    float64 `toml:"overhead"`
	PinAccurate bool    `toml:"pin_accurate"`
}

type FeedConfig struct {
	Delimiter string `toml:"delimiter"`

	delimiter rune
}

type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"` // default ~/.cache/ot3d
	TTL           string `toml:"ttl"` // Go duration, "" or "0" for no expiry
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	ttl time.Duration
}

type StoreConfig struct {
	Backend    string `toml:"backend"`
	Dir        string `toml:"dir"` // default ~/.config/ot3d/reports
	MongoURI   string `toml:"mongo_uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	ext := def.DefaultConfig()
	return &Config{
		Extract: ExtractConfig{
			PlacementKeywords: ext.PlacementKeywords,
			SkipKeywords:      ext.SkipKeywords,
		},
		Cluster: ClusterConfig{
			Count:   pipeline.DefaultClusters,
			Mode:    connectivity.Exact.String(),
			Workers: pipeline.DefaultWorkers,
		},
		Feed:  FeedConfig{Delimiter: ","},
		Cache: CacheConfig{Backend: BackendFile, TTL: "168h"},
		Store: StoreConfig{Backend: BackendFile},
	}
}

// Validate normalises the configuration and rejects impossible values.
func (c *Config) Validate() error {
	if c.Extract.Scale < 0 {
		return fmt.Errorf("extract.scale must not be negative, got %g", c.Extract.Scale)
	}
	if len(c.Extract.PlacementKeywords) == 0 {
		c.Extract.PlacementKeywords = def.DefaultConfig().PlacementKeywords
	}

	if c.Cluster.Count < 1 {
		return fmt.Errorf("cluster.count must be at least 1, got %d", c.Cluster.Count)
	}
	mode, err := connectivity.ParseMode(c.Cluster.Mode)
	if err != nil {
		return fmt.Errorf("cluster.mode: %w", err)
	}
	c.Cluster.mode = mode
	if c.Cluster.Workers < 0 {
		return fmt.Errorf("cluster.workers must not be negative, got %d", c.Cluster.Workers)
	}

	if c.HPL.Overhead < 0 {
		return fmt.Errorf("hpl.overhead must not be negative, got %g", c.HPL.Overhead)
	}

	if c.Feed.delimiter, err = feed.ParseDelimiter(c.Feed.Delimiter); err != nil {
		return fmt.Errorf("feed.delimiter: %w", err)
	}

	if err := c.Cache.validate(); err != nil {
		return err
	}
	return c.Store.validate()
}

func (c *CacheConfig) validate() error {
	c.Backend = normalizeBackend(c.Backend)
	switch c.Backend {
	case BackendNone, BackendFile:
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be none, file or redis, got %q", c.Backend)
	}

	c.ttl = 0
	if c.TTL != "" {
		d, err := time.ParseDuration(c.TTL)
		if err != nil || d < 0 {
			return fmt.Errorf("cache.ttl must be a non-negative duration, got %q", c.TTL)
		}
		c.ttl = d
	}
	return nil
}

func (c *StoreConfig) validate() error {
	c.Backend = normalizeBackend(c.Backend)
	switch c.Backend {
	case BackendNone, BackendFile:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("store.mongo_uri is required for the mongo backend")
		}
	default:
		return fmt.Errorf("store.backend must be none, file or mongo, got %q", c.Backend)
	}
	return nil
}

func normalizeBackend(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BackendNone
	}
	return s
}

// Expiry returns the parsed cache TTL. Only valid after Validate.
func (c *CacheConfig) Expiry() time.Duration { return c.ttl }

// FeedOptions returns the feed reader and writer options. Only valid after
// Validate.
func (c *Config) FeedOptions() feed.Options {
	return feed.Options{Delimiter: c.Feed.delimiter}
}

// Pipeline converts the file settings into a pipeline configuration. Only
// valid after Validate.
func (c *Config) Pipeline() *pipeline.Config {
	ext := def.DefaultConfig()
	ext.Scale = c.Extract.Scale
	ext.PlacementKeywords = c.Extract.PlacementKeywords
	if c.Extract.SkipKeywords != nil {
		ext.SkipKeywords = c.Extract.SkipKeywords
	}
	return &pipeline.Config{
		Extract:     ext,
		Clusters:    c.Cluster.Count,
		Mode:        c.Cluster.mode,
		PinAccurate: c.HPL.PinAccurate,
		Workers:     c.Cluster.Workers,
		HPL:         hpl.Config{Overhead: c.HPL.Overhead},
	}
}

// DefaultPath returns the platform configuration file location.
func DefaultPath() (string, error) {
	if dir := os.Getenv("APPDATA"); dir != "" {
		return filepath.Join(dir, "OpenTrace3D", "ot3d.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "ot3d", "ot3d.toml"), nil
}

// Load reads and validates the configuration at path. An empty path means
// DefaultPath; a missing default file yields Default(). Unknown keys are an
// error so typos do not go unnoticed.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			cfg := Default()
			return cfg, cfg.Validate()
		}
		path = p
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
