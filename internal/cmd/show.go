// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bioimage-archive/bia-export/internal/config"
)

func newShowExportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show-export <accession-id>",
		Short: "Show the dataset export record for one accession",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}
			dataset, err := exporter.DatasetForAccession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(dataset)
		},
	}
}

func newShowSOExportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show-so-export <accession-id>",
		Short: "Show the spatial-omics dataset record for one accession",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}
			dataset, err := exporter.SODatasetForAccession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(dataset)
		},
	}
}

func newShowFilerefExportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show-fileref-export <accession-id>",
		Short: "Show the annotation file references of one accession",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}
			report, err := exporter.AnnotationFilesForAccession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func newShowImageExportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show-image-export <accession-id> <image-uuid>",
		Short: "Show the export record for one image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}
			image, err := exporter.ImageByUUID(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(image)
		},
	}
}
