// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Entity kinds the cache knows about. The kind names the subdirectory under
// the cache root: images/ and datasets/ hold one JSON file per uuid.
const (
	KindImage     = "image"
	KindDataset   = "dataset"
	KindAIDataset = "ai-dataset"
	KindSODataset = "so-dataset"
)

// Cache memoizes mapped export records as JSON files keyed by entity id.
// There is no invalidation: stale entries are removed out-of-band by deleting
// the file. Not safe for concurrent use against the same key; the aggregator
// is single-threaded.
type Cache struct {
	root string
	log  *logrus.Entry
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Cache{
		root: dir,
		log:  logger.WithField("component", "cache"),
	}
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) entryPath(kind, id string) string {
	return filepath.Join(c.root, kind+"s", id+".json")
}

// GetOrCompute returns the cached record for (kind, id) when a cache file
// exists, otherwise calls compute, persists the result and returns it.
func GetOrCompute[T any](c *Cache, kind, id string, compute func() (T, error)) (T, error) {
	var record T

	entryPath := c.entryPath(kind, id)
	data, err := os.ReadFile(entryPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &record); err != nil {
			return record, fmt.Errorf("parse cached %s %s: %w", kind, id, err)
		}
		c.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Debug("cache hit")
		return record, nil
	case !os.IsNotExist(err):
		return record, fmt.Errorf("read cached %s %s: %w", kind, id, err)
	}

	record, err = compute()
	if err != nil {
		return record, err
	}

	data, err = json.MarshalIndent(record, "", "  ")
	if err != nil {
		return record, fmt.Errorf("serialize %s %s: %w", kind, id, err)
	}
	if err := os.MkdirAll(filepath.Dir(entryPath), 0o755); err != nil {
		return record, fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.WriteFile(entryPath, data, 0o644); err != nil {
		return record, fmt.Errorf("write cached %s %s: %w", kind, id, err)
	}

	c.log.WithFields(logrus.Fields{"kind": kind, "id": id}).Debug("cache store")
	return record, nil
}
