// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

// Package ngff probes OME-NGFF (OME-Zarr) images over HTTP for their pixel
// dimensions. Only the two small metadata documents are fetched, never pixel
// data: .zattrs for the multiscale layout and the full-resolution .zarray
// for the array shape.
package ngff

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bioimage-archive/bia-export/internal/export"
)

type zattrs struct {
	Multiscales []multiscale `json:"multiscales"`
}

type multiscale struct {
	Axes     []axis          `json:"axes"`
	Datasets []scaledDataset `json:"datasets"`
}

type axis struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Unit string `json:"unit"`
}

type scaledDataset struct {
	Path                      string           `json:"path"`
	CoordinateTransformations []transformation `json:"coordinateTransformations"`
}

type transformation struct {
	Type  string    `json:"type"`
	Scale []float64 `json:"scale"`
}

type zarray struct {
	Shape []int `json:"shape"`
}

// Prober reads OME-NGFF metadata over HTTP.
type Prober struct {
	http *http.Client
}

// NewProber creates a prober. client may be nil, in which case a default
// client with a 60s timeout is used.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Prober{http: client}
}

// Probe resolves the dimensions of the image at uri (the root of a zarr
// hierarchy). Missing z/c/t axes default to 1.
func (p *Prober) Probe(ctx context.Context, uri string) (export.Dimensions, error) {
	uri = strings.TrimRight(uri, "/")

	var attrs zattrs
	if err := p.getJSON(ctx, uri+"/.zattrs", &attrs); err != nil {
		return export.Dimensions{}, fmt.Errorf("read .zattrs: %w", err)
	}
	if len(attrs.Multiscales) == 0 || len(attrs.Multiscales[0].Datasets) == 0 {
		return export.Dimensions{}, fmt.Errorf("no multiscale datasets at %s", uri)
	}
	multi := attrs.Multiscales[0]
	full := multi.Datasets[0]

	var array zarray
	if err := p.getJSON(ctx, uri+"/"+full.Path+"/.zarray", &array); err != nil {
		return export.Dimensions{}, fmt.Errorf("read .zarray: %w", err)
	}
	if len(array.Shape) < 2 {
		return export.Dimensions{}, fmt.Errorf("unexpected shape %v at %s", array.Shape, uri)
	}

	axisIndex := axisIndexes(multi.Axes, len(array.Shape))

	dims := export.Dimensions{SizeX: 1, SizeY: 1, SizeZ: 1, SizeC: 1, SizeT: 1}
	if i, ok := axisIndex["x"]; ok {
		dims.SizeX = array.Shape[i]
	}
	if i, ok := axisIndex["y"]; ok {
		dims.SizeY = array.Shape[i]
	}
	if i, ok := axisIndex["z"]; ok {
		dims.SizeZ = array.Shape[i]
	}
	if i, ok := axisIndex["c"]; ok {
		dims.SizeC = array.Shape[i]
	}
	if i, ok := axisIndex["t"]; ok {
		dims.SizeT = array.Shape[i]
	}

	if scale := scaleTransform(full.CoordinateTransformations); scale != nil {
		if i, ok := axisIndex["x"]; ok && i < len(scale) {
			dims.PhysicalSizeX = &scale[i]
		}
		if i, ok := axisIndex["y"]; ok && i < len(scale) {
			dims.PhysicalSizeY = &scale[i]
		}
		if i, ok := axisIndex["z"]; ok && i < len(scale) {
			dims.PhysicalSizeZ = &scale[i]
		}
	}

	return dims, nil
}

// axisIndexes maps axis names to shape positions. Pre-0.4 metadata has no
// axes block; those arrays are laid out tczyx, right-aligned against the
// shape.
func axisIndexes(axes []axis, ndim int) map[string]int {
	index := map[string]int{}
	if len(axes) > 0 {
		for i, ax := range axes {
			index[strings.ToLower(ax.Name)] = i
		}
		return index
	}

	implicit := []string{"t", "c", "z", "y", "x"}
	offset := len(implicit) - ndim
	for i := 0; i < ndim; i++ {
		if offset+i >= 0 {
			index[implicit[offset+i]] = i
		}
	}
	return index
}

func scaleTransform(transforms []transformation) []float64 {
	for _, tr := range transforms {
		if tr.Type == "scale" {
			return tr.Scale
		}
	}
	return nil
}

func (p *Prober) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
