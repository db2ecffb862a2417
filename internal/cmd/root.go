// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bioimage-archive/bia-export/internal/biaapi"
	"github.com/bioimage-archive/bia-export/internal/config"
	"github.com/bioimage-archive/bia-export/internal/export"
	"github.com/bioimage-archive/bia-export/internal/ngff"
)

// NewRootCmd creates the root command for bia-export.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "bia-export",
		Short: "Export BioImage Archive metadata to JSON bundles",
		Long: `Export curated study and image metadata from the BioImage Archive
catalog API into flattened JSON artifacts for downstream web viewers.

Mapped records are memoized per entity under the cache root
(<cache_root>/images/<uuid>.json, <cache_root>/datasets/<uuid>.json), so
re-running a job only fetches and maps entities not seen before. Remove
cache files to force a re-export.`,

		SilenceUsage: true,
	}

	root.AddCommand(newShowExportCmd(cfg))
	root.AddCommand(newShowSOExportCmd(cfg))
	root.AddCommand(newShowFilerefExportCmd(cfg))
	root.AddCommand(newShowImageExportCmd(cfg))
	root.AddCommand(newExportDefaultsCmd(cfg))
	root.AddCommand(newExportAllImagesCmd(cfg))
	root.AddCommand(newAIDatasetsCmd(cfg))
	root.AddCommand(newSODatasetsCmd(cfg))
	root.AddCommand(newAnnotationFilesCmd(cfg))

	return root
}

// newExporter wires the export pipeline from process configuration.
func newExporter(cfg *config.Config) (*export.Exporter, error) {
	client, err := biaapi.NewClient(biaapi.Options{
		BaseURL:             cfg.APIBasePath,
		Username:            cfg.Username,
		Password:            cfg.Password,
		DisableSSLHostCheck: cfg.DisableSSLHostCheck,
		RequestsPerSecond:   cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}

	cache := export.NewCache(cfg.CacheRootDirpath, logrus.StandardLogger())
	prober := ngff.NewProber(nil)

	return export.NewExporter(client, prober, cache, logrus.StandardLogger()), nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
