// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Curated accession lists per export job. A job's list can be overridden
// with --jobs <file>, a yaml mapping of job name to accession ids.

var defaultAccessionIDs = []string{
	"S-BIAD144", "S-BIAD217", "S-BIAD368", "S-BIAD425", "S-BIAD582", "S-BIAD606",
	"S-BIAD608", "S-BIAD620", "S-BIAD661", "S-BIAD626",
	"S-BIAD627", "S-BIAD916", "S-BIAD952", "S-BIAD961", "S-BIAD963", "S-BIAD968",
}

var aiAccessionIDs = []string{
	"S-BIAD463", "S-BIAD531", "S-BIAD599", "S-BIAD634",
}

var soAccessionIDs = []string{
	"S-BIAD553", "S-BIAD570",
}

// Job names accepted in the --jobs override file.
const (
	jobExportDefaults  = "export-defaults"
	jobExportAllImages = "export-all-images"
	jobAIDatasets      = "ai-datasets"
	jobSODatasets      = "spatial-omics-datasets"
	jobAnnotationFiles = "annotation-files"
)

// accessionsForJob returns the accession list for a job, preferring the
// override file when one was given and it names the job.
func accessionsForJob(jobsFile, job string, fallback []string) ([]string, error) {
	if jobsFile == "" {
		return fallback, nil
	}

	data, err := os.ReadFile(jobsFile)
	if err != nil {
		return nil, fmt.Errorf("read jobs file: %w", err)
	}

	var jobs map[string][]string
	if err := yaml.Unmarshal(data, &jobs); err != nil {
		return nil, fmt.Errorf("parse jobs file %s: %w", jobsFile, err)
	}

	if accessions, ok := jobs[job]; ok {
		if len(accessions) == 0 {
			return nil, fmt.Errorf("jobs file %s has an empty list for %s", jobsFile, job)
		}
		return accessions, nil
	}
	return fallback, nil
}
