// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package export

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bioimage-archive/bia-export/internal/biaapi"
)

func templateStudy() biaapi.Study {
	return biaapi.Study{
		UUID:            uuid.NewString(),
		AccessionID:     "S-BIAD144",
		Title:           "placeholder_study_title",
		ReleaseDate:     "2023-01-01",
		Organism:        "Homo sapiens",
		ImagingType:     "confocal microscopy",
		ExampleImageURI: "https://example.org/example.png",
		Attributes:      biaapi.Attributes{},
		ImagesCount:     42,
	}
}

func templateImage() biaapi.Image {
	return biaapi.Image{
		UUID:            uuid.NewString(),
		StudyUUID:       uuid.NewString(),
		Name:            "images/image_name_value.zarr",
		OriginalRelpath: "/home/test/image_path_value",
		Attributes:      biaapi.Attributes{},
		Representations: []biaapi.Representation{
			{Type: biaapi.RepTypeOMENGFF, URIs: []string{"https://example.org/file.zarr/0"}},
		},
	}
}

func templateDims() Dimensions {
	return Dimensions{SizeX: 1, SizeY: 1, SizeZ: 1, SizeC: 1, SizeT: 1}
}

func TestImageToExportImagePreservesUUID(t *testing.T) {
	image := templateImage()

	exportImage, err := ImageToExportImage(image, templateStudy(), templateDims(), nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, image.UUID, exportImage.UUID)
}

func TestImageToExportImageBaseFields(t *testing.T) {
	image := templateImage()
	study := templateStudy()

	exportImage, err := ImageToExportImage(image, study, templateDims(), nil, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "image_name_value.zarr", exportImage.Name, "name is the basename of the source name")
	assert.Equal(t, "IM1", exportImage.Alias)
	assert.Equal(t, study.AccessionID, exportImage.StudyAccessionID)
	assert.Equal(t, study.Title, exportImage.StudyTitle)
	assert.Equal(t, study.ReleaseDate, exportImage.ReleaseDate)
	assert.Equal(t,
		"https://uk1s3.embassy.ebi.ac.uk/bia-zarr-test/vizarr/index.html?source=https://example.org/file.zarr/0",
		exportImage.VizarrURI)
	require.NotNil(t, exportImage.ItkURI)
	assert.Equal(t,
		"https://kitware.github.io/itk-vtk-viewer/app/?fileToLoad=https://example.org/file.zarr/0",
		*exportImage.ItkURI)

	// No ancestors supplied: inlined fields stay null.
	assert.Nil(t, exportImage.ImageAcquisitionTitle)
	assert.Nil(t, exportImage.SpecimenTitle)
	assert.Nil(t, exportImage.BiosampleTitle)
	assert.Nil(t, exportImage.SourceImageUUID)
}

func TestImageToExportImageMissingNGFFRepresentation(t *testing.T) {
	image := templateImage()
	image.Representations = []biaapi.Representation{
		{Type: biaapi.RepTypeThumbnail, URIs: []string{"https://example.org/thumb.png"}},
	}

	_, err := ImageToExportImage(image, templateStudy(), templateDims(), nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingRepresentation))
}

func TestImageToExportImageThumbnailOptional(t *testing.T) {
	t.Run("absent thumbnail yields empty uri", func(t *testing.T) {
		exportImage, err := ImageToExportImage(templateImage(), templateStudy(), templateDims(), nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "", exportImage.ThumbnailURI)
	})

	t.Run("present thumbnail is copied", func(t *testing.T) {
		image := templateImage()
		image.Representations = append(image.Representations, biaapi.Representation{
			Type: biaapi.RepTypeThumbnail,
			URIs: []string{"https://example.org/thumb.png"},
		})

		exportImage, err := ImageToExportImage(image, templateStudy(), templateDims(), nil, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/thumb.png", exportImage.ThumbnailURI)
	})
}

func TestFilterImageAttributes(t *testing.T) {
	image := templateImage()
	image.Attributes = biaapi.Attributes{
		"channels":  "x",
		"Channel_1": "y",
		"other":     "z",
	}

	filtered := FilterImageAttributes(image)

	assert.Equal(t, map[string]string{"Channel_1": "y"}, filtered)
}

func TestImageToExportImageInlinesFirstAncestors(t *testing.T) {
	acquisitions := []biaapi.ImageAcquisition{
		{Title: "first acquisition", ImagingInstrument: "instrument A", ImagingMethod: "method A"},
		{Title: "second acquisition", ImagingInstrument: "instrument B", ImagingMethod: "method B"},
	}
	specimens := []biaapi.Specimen{
		{Title: "first specimen", SamplePreparationProtocol: "protocol A", GrowthProtocol: "growth A"},
		{Title: "second specimen"},
	}
	biosamples := []biaapi.Biosample{
		{
			Title:                  "first biosample",
			OrganismScientificName: "Mus musculus",
			ExperimentalVariables:  []string{"time", "dose"},
			ExtrinsicVariables:     []string{"temperature"},
			IntrinsicVariables:     []string{"genotype"},
		},
		{Title: "second biosample"},
	}

	exportImage, err := ImageToExportImage(templateImage(), templateStudy(), templateDims(), acquisitions, specimens, biosamples)
	require.NoError(t, err)

	require.NotNil(t, exportImage.ImageAcquisitionTitle)
	assert.Equal(t, "first acquisition", *exportImage.ImageAcquisitionTitle)
	require.NotNil(t, exportImage.SpecimenTitle)
	assert.Equal(t, "first specimen", *exportImage.SpecimenTitle)
	require.NotNil(t, exportImage.BiosampleTitle)
	assert.Equal(t, "first biosample", *exportImage.BiosampleTitle)

	require.NotNil(t, exportImage.BiosampleExperimentalVariables)
	assert.Equal(t, "time, dose", *exportImage.BiosampleExperimentalVariables)
	require.NotNil(t, exportImage.BiosampleExtrinsicVariables)
	assert.Equal(t, "temperature", *exportImage.BiosampleExtrinsicVariables)
}

func TestImageToExportImageOptionalSourceAttributes(t *testing.T) {
	image := templateImage()
	image.Attributes = biaapi.Attributes{
		biaapi.AttrSourceImageUUID: "some-uuid",
		biaapi.AttrOverlayImageURI: "https://example.org/overlay.png",
	}

	exportImage, err := ImageToExportImage(image, templateStudy(), templateDims(), nil, nil, nil)
	require.NoError(t, err)

	require.NotNil(t, exportImage.SourceImageUUID)
	assert.Equal(t, "some-uuid", *exportImage.SourceImageUUID)
	require.NotNil(t, exportImage.OverlayImageURI)
	assert.Equal(t, "https://example.org/overlay.png", *exportImage.OverlayImageURI)
	assert.Nil(t, exportImage.SourceImageThumbnailURI)
}

func TestStudyToDataset(t *testing.T) {
	study := templateStudy()
	images := []biaapi.Image{templateImage(), templateImage()}

	dataset := StudyToDataset(study, images)

	assert.Equal(t, study.AccessionID, dataset.AccessionID)
	assert.Equal(t, 42, dataset.NImages, "n_images comes from the study's images_count")
	assert.Equal(t, []string{images[0].UUID, images[1].UUID}, dataset.ImageUUIDs)
	require.Len(t, dataset.Links, 1)
	assert.Equal(t, Link{
		Name: "original_submission",
		Type: "original_submission",
		URL:  "https://www.ebi.ac.uk/biostudies/BioImages/studies/S-BIAD144",
	}, dataset.Links[0])
}

func TestStudyToAIDatasetAttributePulls(t *testing.T) {
	study := templateStudy()
	study.Attributes = biaapi.Attributes{
		biaapi.AttrAnnotationType:   "segmentation_mask",
		biaapi.AttrAnnotationMethod: "manual",
	}

	dataset := StudyToAIDataset(study, nil, nil)

	assert.Equal(t, "segmentation_mask", dataset.AnnotationType)
	assert.Equal(t, "manual", dataset.AnnotationMethod)
	assert.Equal(t, "", dataset.ModelsURI, "absent attributes default to empty")
	assert.Equal(t, "", dataset.ExampleAnnotationURI)
}

func TestStudyToSODatasetAttributePulls(t *testing.T) {
	study := templateStudy()
	study.Attributes = biaapi.Attributes{
		biaapi.AttrSCSeqDescription: "single cell data",
		biaapi.AttrCodeLink:         "https://example.org/code",
	}

	dataset := StudyToSODataset(study, nil)

	assert.Equal(t, "single cell data", dataset.SCSeqDescription)
	assert.Equal(t, "https://example.org/code", dataset.CodeLink)
	assert.Equal(t, "", dataset.SCSeqLink)
	assert.Equal(t, "", dataset.CodeDescription)
}

func TestAnnotationUUIDsBySourceName(t *testing.T) {
	files := []biaapi.FileReference{
		{UUID: "A", Name: "img1_ann.png", Attributes: biaapi.Attributes{biaapi.AttrSourceImage: "img1.png"}},
		{UUID: "B", Name: "img1_ann2.png", Attributes: biaapi.Attributes{biaapi.AttrSourceImage: "img1.png"}},
		{UUID: "C", Name: "img2_ann.png", Attributes: biaapi.Attributes{biaapi.AttrSourceImage: "img2.png"}},
	}

	bySourceName := AnnotationUUIDsBySourceName(files)

	assert.Equal(t, map[string]string{
		"img1.png": "A,B",
		"img2.png": "C",
	}, bySourceName)
}

func TestStudyToAIDatasetCrossReferences(t *testing.T) {
	imageUUID := uuid.NewString()
	annImageUUID := uuid.NewString()

	image := templateImage()
	image.UUID = imageUUID
	image.Name = "img1.png"

	// An image sharing the annotation file's own name: the annotation is
	// itself viewable.
	annImage := templateImage()
	annImage.UUID = annImageUUID
	annImage.Name = "img1_ann.png"

	files := []biaapi.FileReference{
		{UUID: "A", Name: "img1_ann.png", Attributes: biaapi.Attributes{biaapi.AttrSourceImage: "img1.png"}},
		{UUID: "B", Name: "other_ann.png", Attributes: biaapi.Attributes{biaapi.AttrSourceImage: "img1.png"}},
	}

	dataset := StudyToAIDataset(templateStudy(), []biaapi.Image{image, annImage}, files)

	assert.Equal(t, map[string]string{"A": annImageUUID}, dataset.AnnImUUIDs)
	assert.Equal(t, map[string]string{imageUUID: "A,B"}, dataset.CorrespondingSourceImAnnUUIDs,
		"annotation images are excluded from the source-image map")
	assert.Equal(t, map[string]string{"A": imageUUID, "B": imageUUID}, dataset.CorrespondingAnnSourceImUUIDs)
}

func TestAnnotationFileToRecord(t *testing.T) {
	file := biaapi.FileReference{
		UUID: "F1",
		Name: "mask.png",
		Attributes: biaapi.Attributes{
			biaapi.AttrSourceImage: "cell.png",
			"stain":                "DAPI",
		},
	}

	record := AnnotationFileToRecord(file)

	assert.Equal(t, "F1", record.UUID)
	assert.Equal(t, "mask.png", record.Name)
	assert.Equal(t, "cell.png", record.SourceImage)
	assert.Equal(t, "DAPI", record.Attributes["stain"])
}
