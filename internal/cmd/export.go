// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bioimage-archive/bia-export/internal/config"
	"github.com/bioimage-archive/bia-export/internal/export"
)

func newExportDefaultsCmd(cfg *config.Config) *cobra.Command {
	var outputFile string
	var jobsFile string

	cmd := &cobra.Command{
		Use:   "export-defaults",
		Short: "Export the default dataset bundle",
		Long: `Export the curated default list of studies as one bundle file with
dataset records and every exportable image of those studies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			accessions, err := accessionsForJob(jobsFile, jobExportDefaults, defaultAccessionIDs)
			if err != nil {
				return err
			}
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}

			bundle, err := exporter.BuildBundle(cmd.Context(), accessions)
			if err != nil {
				return err
			}
			if err := export.WriteBundle(outputFile, bundle); err != nil {
				return err
			}

			fmt.Printf("Exported %d dataset(s) and %d image(s) to %s\n",
				len(bundle.Datasets), len(bundle.Images), outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "bia-export.json", "Bundle output file")
	cmd.Flags().StringVar(&jobsFile, "jobs", "", "Yaml file overriding the accession list")

	return cmd
}

func newExportAllImagesCmd(cfg *config.Config) *cobra.Command {
	var outputFile string
	var jobsFile string
	var limit int

	cmd := &cobra.Command{
		Use:   "export-all-images",
		Short: "Export every image of the default studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			accessions, err := accessionsForJob(jobsFile, jobExportAllImages, defaultAccessionIDs)
			if err != nil {
				return err
			}
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}
			exporter.SetSearchLimit(limit)

			bundle, err := exporter.BuildImagesBundle(cmd.Context(), accessions)
			if err != nil {
				return err
			}
			if err := export.WriteBundle(outputFile, bundle); err != nil {
				return err
			}

			fmt.Printf("Exported %d image(s) to %s\n", len(bundle.Images), outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "bia-images.json", "Bundle output file")
	cmd.Flags().StringVar(&jobsFile, "jobs", "", "Yaml file overriding the accession list")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum images per study")

	return cmd
}

func newAIDatasetsCmd(cfg *config.Config) *cobra.Command {
	var outputFile string
	var jobsFile string

	cmd := &cobra.Command{
		Use:   "ai-datasets",
		Short: "Export the AI-annotation dataset bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			accessions, err := accessionsForJob(jobsFile, jobAIDatasets, aiAccessionIDs)
			if err != nil {
				return err
			}
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}

			bundle, err := exporter.BuildAIBundle(cmd.Context(), accessions)
			if err != nil {
				return err
			}
			if err := export.WriteBundle(outputFile, bundle); err != nil {
				return err
			}

			fmt.Printf("Exported %d AI dataset(s) and %d image(s) to %s\n",
				len(bundle.Datasets), len(bundle.Images), outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "bia-ai-export.json", "Bundle output file")
	cmd.Flags().StringVar(&jobsFile, "jobs", "", "Yaml file overriding the accession list")

	return cmd
}

func newSODatasetsCmd(cfg *config.Config) *cobra.Command {
	var outputFile string
	var jobsFile string

	cmd := &cobra.Command{
		Use:   "spatial-omics-datasets",
		Short: "Export the spatial-omics dataset bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			accessions, err := accessionsForJob(jobsFile, jobSODatasets, soAccessionIDs)
			if err != nil {
				return err
			}
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}

			bundle, err := exporter.BuildSOBundle(cmd.Context(), accessions)
			if err != nil {
				return err
			}
			if err := export.WriteBundle(outputFile, bundle); err != nil {
				return err
			}

			fmt.Printf("Exported %d spatial-omics dataset(s) and %d image(s) to %s\n",
				len(bundle.Datasets), len(bundle.Images), outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "bia-so-export.json", "Bundle output file")
	cmd.Flags().StringVar(&jobsFile, "jobs", "", "Yaml file overriding the accession list")

	return cmd
}

func newAnnotationFilesCmd(cfg *config.Config) *cobra.Command {
	var outputFile string
	var jobsFile string

	cmd := &cobra.Command{
		Use:   "annotation-files",
		Short: "List the annotation files of the AI studies",
		RunE: func(cmd *cobra.Command, args []string) error {
			accessions, err := accessionsForJob(jobsFile, jobAnnotationFiles, aiAccessionIDs)
			if err != nil {
				return err
			}
			exporter, err := newExporter(cfg)
			if err != nil {
				return err
			}

			reports, err := exporter.BuildAnnotationFilesReport(cmd.Context(), accessions)
			if err != nil {
				return err
			}
			if outputFile == "" {
				return printJSON(reports)
			}
			if err := export.WriteBundle(outputFile, reports); err != nil {
				return err
			}

			fmt.Printf("Wrote annotation file report for %d study(ies) to %s\n",
				len(reports), outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report output file (default stdout)")
	cmd.Flags().StringVar(&jobsFile, "jobs", "", "Yaml file overriding the accession list")

	return cmd
}
