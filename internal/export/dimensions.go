// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package export

import "context"

// Dimensions are the probed pixel dimensions of an OME-NGFF image. SizeZ,
// SizeC and SizeT default to 1 for images without those axes; physical sizes
// stay nil when the metadata carries no scale information.
type Dimensions struct {
	SizeX int
	SizeY int
	SizeZ int
	SizeC int
	SizeT int

	PhysicalSizeX *float64
	PhysicalSizeY *float64
	PhysicalSizeZ *float64
}

// DimensionProber resolves image dimensions from an ome_ngff URI.
type DimensionProber interface {
	Probe(ctx context.Context, uri string) (Dimensions, error)
}
