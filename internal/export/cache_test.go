// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrComputeWritesThenShortCircuits(t *testing.T) {
	cache := NewCache(t.TempDir(), nil)

	calls := 0
	compute := func() (ExportDataset, error) {
		calls++
		return ExportDataset{AccessionID: "S-BIAD144", NImages: 3}, nil
	}

	first, err := GetOrCompute(cache, KindDataset, "uuid-1", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// Cache file exists at the deterministic path.
	entryPath := filepath.Join(cache.Root(), "datasets", "uuid-1.json")
	data, err := os.ReadFile(entryPath)
	require.NoError(t, err)

	var onDisk ExportDataset
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, first, onDisk)

	// Second call returns the cached record without recomputing.
	second, err := GetOrCompute(cache, KindDataset, "uuid-1", compute)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "compute must not run on a cache hit")
	assert.Equal(t, first, second)
}

func TestGetOrComputeReturnsPrepopulatedRecord(t *testing.T) {
	cache := NewCache(t.TempDir(), nil)

	want := ExportImage{UUID: "U", Name: "img.png", Alias: "IM1"}
	entryPath := filepath.Join(cache.Root(), "images", "U.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(entryPath), 0o755))
	data, err := json.MarshalIndent(want, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(entryPath, data, 0o644))

	got, err := GetOrCompute(cache, KindImage, "U", func() (ExportImage, error) {
		t.Fatal("compute must not be called for a pre-populated key")
		return ExportImage{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetOrComputeDoesNotCacheFailures(t *testing.T) {
	cache := NewCache(t.TempDir(), nil)

	computeErr := errors.New("fetch failed")
	_, err := GetOrCompute(cache, KindImage, "U", func() (ExportImage, error) {
		return ExportImage{}, computeErr
	})
	require.ErrorIs(t, err, computeErr)

	_, statErr := os.Stat(filepath.Join(cache.Root(), "images", "U.json"))
	assert.True(t, os.IsNotExist(statErr), "failed computations must not leave cache files")
}

func TestGetOrComputeRejectsCorruptCacheFile(t *testing.T) {
	cache := NewCache(t.TempDir(), nil)

	entryPath := filepath.Join(cache.Root(), "images", "U.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(entryPath), 0o755))
	require.NoError(t, os.WriteFile(entryPath, []byte("{not json"), 0o644))

	_, err := GetOrCompute(cache, KindImage, "U", func() (ExportImage, error) {
		return ExportImage{}, nil
	})
	require.Error(t, err)
}
