// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/bioimage-archive/bia-export/internal/cmd"
	"github.com/bioimage-archive/bia-export/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	root := cmd.NewRootCmd(cfg)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
