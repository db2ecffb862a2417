// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

// Package config loads exporter settings from the environment and an
// optional config file. Every setting has a BIA_-prefixed environment
// variable, e.g. BIA_API_BASEPATH or BIA_CACHE_ROOT_DIRPATH.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds process-wide settings.
type Config struct {
	// APIBasePath is the catalog API base URL.
	APIBasePath string `mapstructure:"api_basepath"`

	// Username and Password authenticate against the API when set.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// DisableSSLHostCheck skips TLS host verification on API calls.
	DisableSSLHostCheck bool `mapstructure:"disable_ssl_host_check"`

	// CacheRootDirpath roots the per-entity JSON cache (images/, datasets/).
	CacheRootDirpath string `mapstructure:"cache_root_dirpath"`

	// RequestsPerSecond paces API calls. Zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// LogLevel is a logrus level name.
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from the environment and, when present, from
// bia-export.yaml in the working directory or ~/.config/bia-export/.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("api_basepath", "https://bia-cron-1.ebi.ac.uk:8080")
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("disable_ssl_host_check", true)
	v.SetDefault("cache_root_dirpath", defaultCacheRoot())
	v.SetDefault("requests_per_second", 5.0)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("BIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("bia-export")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "bia-export"))
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func defaultCacheRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cache"
	}
	return filepath.Join(home, ".cache")
}
