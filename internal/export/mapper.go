// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package export

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bioimage-archive/bia-export/internal/biaapi"
)

// ErrMissingRepresentation is returned when an image selected for export has
// no ome_ngff representation. There is no fallback: the failure propagates
// and aborts the batch the image belongs to.
var ErrMissingRepresentation = errors.New("missing representation")

// Viewer base URLs. The ome_ngff URI is appended verbatim.
const (
	itkBase    = "https://kitware.github.io/itk-vtk-viewer/app/?fileToLoad="
	vizarrBase = "https://uk1s3.embassy.ebi.ac.uk/bia-zarr-test/vizarr/index.html?source="
)

const defaultImageAlias = "IM1"

// FilterImageAttributes keeps the image attributes worth exporting: keys
// containing "channel" case-insensitively, except the exact key "channels"
// which holds unexportable rendering state.
func FilterImageAttributes(image biaapi.Image) map[string]string {
	filtered := map[string]string{}
	for key, value := range image.Attributes {
		if key == "channels" {
			continue
		}
		if strings.Contains(strings.ToLower(key), "channel") {
			filtered[key] = value
		}
	}
	return filtered
}

// StudyToDataset flattens a study and its exportable images into a dataset
// record. images is the result of an ome_ngff representation search; their
// order is preserved in the uuid list.
func StudyToDataset(study biaapi.Study, images []biaapi.Image) ExportDataset {
	uuids := make([]string, 0, len(images))
	for _, image := range images {
		uuids = append(uuids, image.UUID)
	}

	return ExportDataset{
		AccessionID:     study.AccessionID,
		Title:           study.Title,
		ReleaseDate:     study.ReleaseDate,
		ExampleImageURI: study.ExampleImageURI,
		ImagingType:     study.ImagingType,
		Organism:        study.Organism,
		NImages:         study.ImagesCount,
		ImageUUIDs:      uuids,
		Links: []Link{
			{
				Name: "original_submission",
				Type: "original_submission",
				URL:  "https://www.ebi.ac.uk/biostudies/BioImages/studies/" + study.AccessionID,
			},
		},
	}
}

// StudyToAIDataset builds the AI-annotation variant of a dataset record. On
// top of the base fields it pulls annotation metadata from the study's
// free-form attributes (empty when absent) and cross-references the study's
// annotation files against its images by name.
func StudyToAIDataset(study biaapi.Study, images []biaapi.Image, annotationFiles []biaapi.FileReference) ExportAIDataset {
	imagesByName := make(map[string]string, len(images))
	for _, image := range images {
		imagesByName[image.Name] = image.UUID
	}

	// Annotation files that share a name with an image are themselves
	// viewable images.
	annImUUIDs := map[string]string{}
	annotationImageUUIDs := map[string]bool{}
	for _, file := range annotationFiles {
		if imageUUID, ok := imagesByName[file.Name]; ok {
			annImUUIDs[file.UUID] = imageUUID
			annotationImageUUIDs[imageUUID] = true
		}
	}

	annBySourceName := AnnotationUUIDsBySourceName(annotationFiles)
	sourceImAnnUUIDs := map[string]string{}
	for _, image := range images {
		if annotationImageUUIDs[image.UUID] {
			continue
		}
		if uuids, ok := annBySourceName[image.Name]; ok {
			sourceImAnnUUIDs[image.UUID] = uuids
		}
	}

	annSourceImUUIDs := map[string]string{}
	for _, file := range annotationFiles {
		if imageUUID, ok := imagesByName[file.Attributes.Get(biaapi.AttrSourceImage)]; ok {
			annSourceImUUIDs[file.UUID] = imageUUID
		}
	}

	return ExportAIDataset{
		ExportDataset: StudyToDataset(study, images),

		ExampleAnnotationURI: study.Attributes.Get(biaapi.AttrExampleAnnotationURI),
		AnnotationType:       study.Attributes.Get(biaapi.AttrAnnotationType),
		AnnotationMethod:     study.Attributes.Get(biaapi.AttrAnnotationMethod),
		ModelsDescription:    study.Attributes.Get(biaapi.AttrModelsDescription),
		ModelsURI:            study.Attributes.Get(biaapi.AttrModelsURI),

		AnnImUUIDs:                    annImUUIDs,
		CorrespondingSourceImAnnUUIDs: sourceImAnnUUIDs,
		CorrespondingAnnSourceImUUIDs: annSourceImUUIDs,
	}
}

// StudyToSODataset builds the spatial-omics variant of a dataset record.
func StudyToSODataset(study biaapi.Study, images []biaapi.Image) ExportSODataset {
	return ExportSODataset{
		ExportDataset: StudyToDataset(study, images),

		SCSeqDescription: study.Attributes.Get(biaapi.AttrSCSeqDescription),
		SCSeqLink:        study.Attributes.Get(biaapi.AttrSCSeqLink),
		CodeDescription:  study.Attributes.Get(biaapi.AttrCodeDescription),
		CodeLink:         study.Attributes.Get(biaapi.AttrCodeLink),
	}
}

// AnnotationUUIDsBySourceName indexes annotation files by the name of the
// image they annotate: source-image name -> comma-joined annotation-file
// uuids, accumulated in processing order.
func AnnotationUUIDsBySourceName(annotationFiles []biaapi.FileReference) map[string]string {
	bySourceName := map[string]string{}
	for _, file := range annotationFiles {
		sourceName := file.Attributes.Get(biaapi.AttrSourceImage)
		if existing, ok := bySourceName[sourceName]; ok {
			bySourceName[sourceName] = existing + "," + file.UUID
		} else {
			bySourceName[sourceName] = file.UUID
		}
	}
	return bySourceName
}

// ImageToExportImage builds the denormalized per-image record. It is pure:
// the caller supplies the already-probed dimensions and the already-fetched
// ancestor chain.
//
// When an image carries several acquisitions (or chained specimens or
// biosamples) only the first of each list is inlined. That mirrors the
// archive's historical export behavior and is a known simplification.
func ImageToExportImage(
	image biaapi.Image,
	study biaapi.Study,
	dims Dimensions,
	acquisitions []biaapi.ImageAcquisition,
	specimens []biaapi.Specimen,
	biosamples []biaapi.Biosample,
) (ExportImage, error) {
	ngffRep, ok := image.RepresentationByType(biaapi.RepTypeOMENGFF)
	if !ok || len(ngffRep.URIs) == 0 {
		return ExportImage{}, fmt.Errorf("image %s: %w: %s", image.UUID, ErrMissingRepresentation, biaapi.RepTypeOMENGFF)
	}
	ngffURI := ngffRep.URIs[0]

	thumbnailURI := ""
	if rep, ok := image.RepresentationByType(biaapi.RepTypeThumbnail); ok && len(rep.URIs) > 0 {
		thumbnailURI = rep.URIs[0]
	}

	itkURI := itkBase + ngffURI

	exportImage := ExportImage{
		UUID:            image.UUID,
		Name:            path.Base(image.Name),
		Alias:           defaultImageAlias,
		OriginalRelpath: image.OriginalRelpath,
		StudyTitle:      study.Title,
		ReleaseDate:     study.ReleaseDate,

		VizarrURI: vizarrBase + ngffURI,
		ItkURI:    &itkURI,

		StudyAccessionID: study.AccessionID,
		ThumbnailURI:     thumbnailURI,

		SizeX: dims.SizeX,
		SizeY: dims.SizeY,
		SizeZ: dims.SizeZ,
		SizeC: dims.SizeC,
		SizeT: dims.SizeT,

		SourceImageUUID:         optionalAttr(image.Attributes, biaapi.AttrSourceImageUUID),
		SourceImageThumbnailURI: optionalAttr(image.Attributes, biaapi.AttrSourceImageThumbnailURI),
		OverlayImageURI:         optionalAttr(image.Attributes, biaapi.AttrOverlayImageURI),

		PhysicalSizeX: dims.PhysicalSizeX,
		PhysicalSizeY: dims.PhysicalSizeY,
		PhysicalSizeZ: dims.PhysicalSizeZ,

		Attributes: FilterImageAttributes(image),
	}

	if len(acquisitions) > 0 {
		acq := acquisitions[0]
		exportImage.ImageAcquisitionTitle = ptr(acq.Title)
		exportImage.ImageAcquisitionImagingInstrument = ptr(acq.ImagingInstrument)
		exportImage.ImageAcquisitionParameters = ptr(acq.ImageAcquisitionParameters)
		exportImage.ImageAcquisitionImagingMethod = ptr(acq.ImagingMethod)
	}

	if len(specimens) > 0 {
		specimen := specimens[0]
		exportImage.SpecimenTitle = ptr(specimen.Title)
		exportImage.SpecimenSamplePreparationProtocol = ptr(specimen.SamplePreparationProtocol)
		exportImage.SpecimenGrowthProtocol = ptr(specimen.GrowthProtocol)
	}

	if len(biosamples) > 0 {
		biosample := biosamples[0]
		exportImage.BiosampleTitle = ptr(biosample.Title)
		exportImage.BiosampleOrganismScientificName = ptr(biosample.OrganismScientificName)
		exportImage.BiosampleOrganismCommonName = ptr(biosample.OrganismCommonName)
		exportImage.BiosampleOrganismNCBITaxon = ptr(biosample.OrganismNCBITaxon)
		exportImage.BiosampleDescription = ptr(biosample.Description)
		exportImage.BiosampleBiologicalEntity = ptr(biosample.BiologicalEntity)
		exportImage.BiosampleExperimentalVariables = ptr(strings.Join(biosample.ExperimentalVariables, ", "))
		exportImage.BiosampleExtrinsicVariables = ptr(strings.Join(biosample.ExtrinsicVariables, ", "))
		exportImage.BiosampleIntrinsicVariables = ptr(strings.Join(biosample.IntrinsicVariables, ", "))
	}

	return exportImage, nil
}

// AnnotationFileToRecord flattens an annotation file reference for the
// annotation-files report.
func AnnotationFileToRecord(file biaapi.FileReference) AnnotationFileRecord {
	return AnnotationFileRecord{
		UUID:        file.UUID,
		Name:        file.Name,
		SourceImage: file.Attributes.Get(biaapi.AttrSourceImage),
		Attributes:  file.Attributes,
	}
}

func optionalAttr(attrs biaapi.Attributes, key string) *string {
	if !attrs.Has(key) {
		return nil
	}
	value := attrs.Get(key)
	return &value
}

func ptr(s string) *string {
	return &s
}
