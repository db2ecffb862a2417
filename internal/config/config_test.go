// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"testing"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup. Equivalent to t.Chdir, which
// requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIBasePath != "https://bia-cron-1.ebi.ac.uk:8080" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
	if !cfg.DisableSSLHostCheck {
		t.Error("DisableSSLHostCheck should default to true")
	}
	if cfg.CacheRootDirpath == "" {
		t.Error("CacheRootDirpath should have a default")
	}
	if cfg.RequestsPerSecond != 5.0 {
		t.Errorf("RequestsPerSecond = %v", cfg.RequestsPerSecond)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BIA_API_BASEPATH", "https://localhost:9999")
	t.Setenv("BIA_USERNAME", "exporter")
	t.Setenv("BIA_CACHE_ROOT_DIRPATH", "/tmp/bia-cache")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIBasePath != "https://localhost:9999" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.Username != "exporter" {
		t.Errorf("Username = %q", cfg.Username)
	}
	if cfg.CacheRootDirpath != "/tmp/bia-cache" {
		t.Errorf("CacheRootDirpath = %q", cfg.CacheRootDirpath)
	}
}
