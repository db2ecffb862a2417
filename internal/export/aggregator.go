// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/bioimage-archive/bia-export/internal/biaapi"
)

// CatalogClient is the slice of the catalog API the aggregator consumes.
// Implemented by biaapi.Client.
type CatalogClient interface {
	ResolveAccessionToUUID(ctx context.Context, accessionID string) (string, error)
	GetStudy(ctx context.Context, uuid string) (biaapi.Study, error)
	SearchImagesByRepresentationType(ctx context.Context, studyUUID, repType string, limit int) ([]biaapi.Image, error)
	GetImagesForStudy(ctx context.Context, studyUUID string, limit int) ([]biaapi.Image, error)
	GetFileReferencesForStudy(ctx context.Context, studyUUID string, limit int) ([]biaapi.FileReference, error)
	GetAnnotationFilesForStudy(ctx context.Context, studyUUID string, limit int) ([]biaapi.FileReference, error)
	GetImage(ctx context.Context, uuid string) (biaapi.Image, error)
	GetImageAcquisition(ctx context.Context, uuid string) (biaapi.ImageAcquisition, error)
	GetSpecimen(ctx context.Context, uuid string) (biaapi.Specimen, error)
	GetBiosample(ctx context.Context, uuid string) (biaapi.Biosample, error)
}

// Exporter drives the per-accession pipeline: resolve id, fetch, map, cache,
// and assemble bundle envelopes. It is single-threaded and blocking; any
// failure aborts the run, leaving the per-entity cache populated for whatever
// was processed before the failure.
type Exporter struct {
	client CatalogClient
	prober DimensionProber
	cache  *Cache
	log    *logrus.Entry

	searchLimit  int
	listingLimit int
}

// NewExporter wires an exporter from its collaborators.
func NewExporter(client CatalogClient, prober DimensionProber, cache *Cache, logger *logrus.Logger) *Exporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Exporter{
		client:       client,
		prober:       prober,
		cache:        cache,
		log:          logger.WithField("component", "export"),
		searchLimit:  biaapi.DefaultSearchLimit,
		listingLimit: biaapi.DefaultListingLimit,
	}
}

// SetSearchLimit overrides the per-study image search limit.
func (e *Exporter) SetSearchLimit(limit int) {
	if limit > 0 {
		e.searchLimit = limit
	}
}

// DatasetForAccession produces the cached dataset record for one accession.
func (e *Exporter) DatasetForAccession(ctx context.Context, accessionID string) (ExportDataset, error) {
	studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
	if err != nil {
		return ExportDataset{}, err
	}

	return GetOrCompute(e.cache, KindDataset, studyUUID, func() (ExportDataset, error) {
		study, images, err := e.fetchStudyAndImages(ctx, studyUUID)
		if err != nil {
			return ExportDataset{}, err
		}
		return StudyToDataset(study, images), nil
	})
}

// AIDatasetForAccession produces the cached AI-dataset record for one
// accession.
func (e *Exporter) AIDatasetForAccession(ctx context.Context, accessionID string) (ExportAIDataset, error) {
	studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
	if err != nil {
		return ExportAIDataset{}, err
	}

	return GetOrCompute(e.cache, KindAIDataset, studyUUID, func() (ExportAIDataset, error) {
		study, images, err := e.fetchStudyAndImages(ctx, studyUUID)
		if err != nil {
			return ExportAIDataset{}, err
		}
		annotationFiles, err := e.client.GetAnnotationFilesForStudy(ctx, studyUUID, e.listingLimit)
		if err != nil {
			return ExportAIDataset{}, err
		}
		return StudyToAIDataset(study, images, annotationFiles), nil
	})
}

// SODatasetForAccession produces the cached spatial-omics dataset record for
// one accession.
func (e *Exporter) SODatasetForAccession(ctx context.Context, accessionID string) (ExportSODataset, error) {
	studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
	if err != nil {
		return ExportSODataset{}, err
	}

	return GetOrCompute(e.cache, KindSODataset, studyUUID, func() (ExportSODataset, error) {
		study, images, err := e.fetchStudyAndImages(ctx, studyUUID)
		if err != nil {
			return ExportSODataset{}, err
		}
		return StudyToSODataset(study, images), nil
	})
}

// ImagesForStudy produces the cached per-image records for every exportable
// image of a study, keyed by image uuid.
func (e *Exporter) ImagesForStudy(ctx context.Context, studyUUID string) (map[string]ExportImage, error) {
	study, images, err := e.fetchStudyAndImages(ctx, studyUUID)
	if err != nil {
		return nil, err
	}

	exportImages := make(map[string]ExportImage, len(images))
	for _, image := range images {
		exportImage, err := e.exportImage(ctx, image, study)
		if err != nil {
			return nil, err
		}
		exportImages[exportImage.UUID] = exportImage
	}
	return exportImages, nil
}

// ImageByUUID produces the cached export record for one image of a study.
func (e *Exporter) ImageByUUID(ctx context.Context, accessionID, imageUUID string) (ExportImage, error) {
	studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
	if err != nil {
		return ExportImage{}, err
	}
	study, err := e.client.GetStudy(ctx, studyUUID)
	if err != nil {
		return ExportImage{}, err
	}
	image, err := e.client.GetImage(ctx, imageUUID)
	if err != nil {
		return ExportImage{}, err
	}
	return e.exportImage(ctx, image, study)
}

// AnnotationFilesForAccession builds the annotation-files report for one
// accession. Reports are cheap and never cached.
func (e *Exporter) AnnotationFilesForAccession(ctx context.Context, accessionID string) (AnnotationFilesReport, error) {
	studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
	if err != nil {
		return AnnotationFilesReport{}, err
	}
	annotationFiles, err := e.client.GetAnnotationFilesForStudy(ctx, studyUUID, e.listingLimit)
	if err != nil {
		return AnnotationFilesReport{}, err
	}

	records := make(map[string]AnnotationFileRecord, len(annotationFiles))
	for _, file := range annotationFiles {
		records[file.UUID] = AnnotationFileToRecord(file)
	}

	return AnnotationFilesReport{
		AccessionID:          accessionID,
		AnnotationFiles:      records,
		AnnUUIDsBySourceName: AnnotationUUIDsBySourceName(annotationFiles),
	}, nil
}

// BuildBundle assembles the default bundle: one dataset record per accession
// plus every exportable image of those studies.
func (e *Exporter) BuildBundle(ctx context.Context, accessionIDs []string) (Exports, error) {
	bundle := Exports{
		Collections: map[string]ExportCollection{},
		Images:      map[string]ExportImage{},
		Datasets:    map[string]ExportDataset{},
	}

	for _, accessionID := range accessionIDs {
		e.log.WithField("accession_id", accessionID).Info("exporting dataset")

		dataset, err := e.DatasetForAccession(ctx, accessionID)
		if err != nil {
			return Exports{}, fmt.Errorf("export %s: %w", accessionID, err)
		}
		bundle.Datasets[accessionID] = dataset

		studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
		if err != nil {
			return Exports{}, fmt.Errorf("export %s: %w", accessionID, err)
		}
		images, err := e.ImagesForStudy(ctx, studyUUID)
		if err != nil {
			return Exports{}, fmt.Errorf("export %s images: %w", accessionID, err)
		}
		for uuid, image := range images {
			bundle.Images[uuid] = image
		}
	}

	return bundle, nil
}

// BuildAIBundle assembles the AI-annotation bundle.
func (e *Exporter) BuildAIBundle(ctx context.Context, accessionIDs []string) (AIExports, error) {
	bundle := AIExports{
		Collections: map[string]ExportCollection{},
		Images:      map[string]ExportImage{},
		Datasets:    map[string]ExportAIDataset{},
	}

	for _, accessionID := range accessionIDs {
		e.log.WithField("accession_id", accessionID).Info("exporting AI dataset")

		dataset, err := e.AIDatasetForAccession(ctx, accessionID)
		if err != nil {
			return AIExports{}, fmt.Errorf("export %s: %w", accessionID, err)
		}
		bundle.Datasets[accessionID] = dataset

		studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
		if err != nil {
			return AIExports{}, fmt.Errorf("export %s: %w", accessionID, err)
		}
		images, err := e.ImagesForStudy(ctx, studyUUID)
		if err != nil {
			return AIExports{}, fmt.Errorf("export %s images: %w", accessionID, err)
		}
		for uuid, image := range images {
			bundle.Images[uuid] = image
		}
	}

	return bundle, nil
}

// BuildSOBundle assembles the spatial-omics bundle.
func (e *Exporter) BuildSOBundle(ctx context.Context, accessionIDs []string) (SOExports, error) {
	bundle := SOExports{
		Collections: map[string]ExportCollection{},
		Images:      map[string]ExportImage{},
		Datasets:    map[string]ExportSODataset{},
	}

	for _, accessionID := range accessionIDs {
		e.log.WithField("accession_id", accessionID).Info("exporting spatial-omics dataset")

		dataset, err := e.SODatasetForAccession(ctx, accessionID)
		if err != nil {
			return SOExports{}, fmt.Errorf("export %s: %w", accessionID, err)
		}
		bundle.Datasets[accessionID] = dataset

		studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
		if err != nil {
			return SOExports{}, fmt.Errorf("export %s: %w", accessionID, err)
		}
		images, err := e.ImagesForStudy(ctx, studyUUID)
		if err != nil {
			return SOExports{}, fmt.Errorf("export %s images: %w", accessionID, err)
		}
		for uuid, image := range images {
			bundle.Images[uuid] = image
		}
	}

	return bundle, nil
}

// BuildImagesBundle assembles an images-only bundle: every exportable image
// of the given accessions, with an empty datasets mapping.
func (e *Exporter) BuildImagesBundle(ctx context.Context, accessionIDs []string) (Exports, error) {
	bundle := Exports{
		Collections: map[string]ExportCollection{},
		Images:      map[string]ExportImage{},
		Datasets:    map[string]ExportDataset{},
	}

	for _, accessionID := range accessionIDs {
		e.log.WithField("accession_id", accessionID).Info("exporting images")

		studyUUID, err := e.client.ResolveAccessionToUUID(ctx, accessionID)
		if err != nil {
			return Exports{}, fmt.Errorf("export %s: %w", accessionID, err)
		}
		images, err := e.ImagesForStudy(ctx, studyUUID)
		if err != nil {
			return Exports{}, fmt.Errorf("export %s images: %w", accessionID, err)
		}
		for uuid, image := range images {
			bundle.Images[uuid] = image
		}
	}

	return bundle, nil
}

// BuildAnnotationFilesReport builds the annotation-files report for every
// accession, keyed by accession id.
func (e *Exporter) BuildAnnotationFilesReport(ctx context.Context, accessionIDs []string) (map[string]AnnotationFilesReport, error) {
	reports := make(map[string]AnnotationFilesReport, len(accessionIDs))
	for _, accessionID := range accessionIDs {
		e.log.WithField("accession_id", accessionID).Info("listing annotation files")

		report, err := e.AnnotationFilesForAccession(ctx, accessionID)
		if err != nil {
			return nil, fmt.Errorf("annotation files for %s: %w", accessionID, err)
		}
		reports[accessionID] = report
	}
	return reports, nil
}

// WriteBundle serializes a bundle (or report) to path as human-indented
// JSON, always overwriting.
func WriteBundle(path string, bundle any) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize bundle: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bundle %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) fetchStudyAndImages(ctx context.Context, studyUUID string) (biaapi.Study, []biaapi.Image, error) {
	study, err := e.client.GetStudy(ctx, studyUUID)
	if err != nil {
		return biaapi.Study{}, nil, err
	}
	images, err := e.client.SearchImagesByRepresentationType(ctx, studyUUID, biaapi.RepTypeOMENGFF, e.searchLimit)
	if err != nil {
		return biaapi.Study{}, nil, err
	}
	return study, images, nil
}

// exportImage maps one image through the cache, fetching its ancestor chain
// and probing dimensions only on a cache miss.
func (e *Exporter) exportImage(ctx context.Context, image biaapi.Image, study biaapi.Study) (ExportImage, error) {
	return GetOrCompute(e.cache, KindImage, image.UUID, func() (ExportImage, error) {
		acquisitions, specimens, biosamples, err := e.fetchAncestors(ctx, image)
		if err != nil {
			return ExportImage{}, err
		}

		ngffRep, ok := image.RepresentationByType(biaapi.RepTypeOMENGFF)
		if !ok || len(ngffRep.URIs) == 0 {
			return ExportImage{}, fmt.Errorf("image %s: %w: %s", image.UUID, ErrMissingRepresentation, biaapi.RepTypeOMENGFF)
		}
		dims, err := e.prober.Probe(ctx, ngffRep.URIs[0])
		if err != nil {
			return ExportImage{}, fmt.Errorf("probe image %s: %w", image.UUID, err)
		}

		return ImageToExportImage(image, study, dims, acquisitions, specimens, biosamples)
	})
}

// fetchAncestors walks image -> acquisitions -> specimens -> biosamples.
func (e *Exporter) fetchAncestors(ctx context.Context, image biaapi.Image) ([]biaapi.ImageAcquisition, []biaapi.Specimen, []biaapi.Biosample, error) {
	var acquisitions []biaapi.ImageAcquisition
	var specimens []biaapi.Specimen
	var biosamples []biaapi.Biosample

	for _, acqUUID := range image.ImageAcquisitionUUIDs {
		acq, err := e.client.GetImageAcquisition(ctx, acqUUID)
		if err != nil {
			return nil, nil, nil, err
		}
		acquisitions = append(acquisitions, acq)
	}
	for _, acq := range acquisitions {
		if acq.SpecimenUUID == "" {
			continue
		}
		specimen, err := e.client.GetSpecimen(ctx, acq.SpecimenUUID)
		if err != nil {
			return nil, nil, nil, err
		}
		specimens = append(specimens, specimen)
	}
	for _, specimen := range specimens {
		if specimen.BiosampleUUID == "" {
			continue
		}
		biosample, err := e.client.GetBiosample(ctx, specimen.BiosampleUUID)
		if err != nil {
			return nil, nil, nil, err
		}
		biosamples = append(biosamples, biosample)
	}

	return acquisitions, specimens, biosamples, nil
}
