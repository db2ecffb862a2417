// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeJobsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write jobs file: %v", err)
	}
	return path
}

func TestAccessionsForJob(t *testing.T) {
	fallback := []string{"S-BIAD144", "S-BIAD217"}

	t.Run("no jobs file returns fallback", func(t *testing.T) {
		accessions, err := accessionsForJob("", jobExportDefaults, fallback)
		if err != nil {
			t.Fatalf("accessionsForJob: %v", err)
		}
		if len(accessions) != 2 || accessions[0] != "S-BIAD144" {
			t.Errorf("accessions = %v", accessions)
		}
	})

	t.Run("override replaces the list", func(t *testing.T) {
		path := writeJobsFile(t, "export-defaults:\n  - S-BIAD999\n")
		accessions, err := accessionsForJob(path, jobExportDefaults, fallback)
		if err != nil {
			t.Fatalf("accessionsForJob: %v", err)
		}
		if len(accessions) != 1 || accessions[0] != "S-BIAD999" {
			t.Errorf("accessions = %v", accessions)
		}
	})

	t.Run("unrelated job keeps fallback", func(t *testing.T) {
		path := writeJobsFile(t, "ai-datasets:\n  - S-BIAD999\n")
		accessions, err := accessionsForJob(path, jobExportDefaults, fallback)
		if err != nil {
			t.Fatalf("accessionsForJob: %v", err)
		}
		if len(accessions) != 2 {
			t.Errorf("accessions = %v", accessions)
		}
	})

	t.Run("empty list is an error", func(t *testing.T) {
		path := writeJobsFile(t, "export-defaults: []\n")
		if _, err := accessionsForJob(path, jobExportDefaults, fallback); err == nil {
			t.Fatal("expected error for empty override list")
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := accessionsForJob("/no/such/jobs.yaml", jobExportDefaults, fallback); err == nil {
			t.Fatal("expected error for missing jobs file")
		}
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		path := writeJobsFile(t, "export-defaults: {not a list\n")
		if _, err := accessionsForJob(path, jobExportDefaults, fallback); err == nil {
			t.Fatal("expected error for malformed yaml")
		}
	})
}
