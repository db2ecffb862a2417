// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

// Package export flattens catalog records into the denormalized JSON shapes
// consumed by the archive's web viewers, memoizes them in a per-entity disk
// cache and assembles per-job bundle files.
package export

// Link is a named outbound link attached to a dataset record.
type Link struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

// ExportCollection groups studies under a named collection. The slot exists
// in every bundle but is rarely populated.
type ExportCollection struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle"`
	Description string   `json:"description"`
	StudyUUIDs  []string `json:"study_uuids"`
}

// ExportImage is the flattened per-image record. Ancestor fields (biosample,
// specimen, acquisition) are inlined with prefixed names and stay null when
// the image has no such ancestor. Multi-valued biosample variables are joined
// into single comma-separated strings.
type ExportImage struct {
	UUID            string `json:"uuid"`
	Name            string `json:"name"`
	Alias           string `json:"alias"`
	OriginalRelpath string `json:"original_relpath"`
	StudyTitle      string `json:"study_title"`
	ReleaseDate     string `json:"release_date"`

	VizarrURI string  `json:"vizarr_uri"`
	ItkURI    *string `json:"itk_uri"`

	StudyAccessionID string `json:"study_accession_id"`
	ThumbnailURI     string `json:"thumbnail_uri"`

	SizeX int `json:"sizeX"`
	SizeY int `json:"sizeY"`
	SizeZ int `json:"sizeZ"`
	SizeC int `json:"sizeC"`
	SizeT int `json:"sizeT"`

	SourceImageUUID         *string `json:"source_image_uuid"`
	SourceImageThumbnailURI *string `json:"source_image_thumbnail_uri"`
	OverlayImageURI         *string `json:"overlay_image_uri"`

	PhysicalSizeX *float64 `json:"PhysicalSizeX"`
	PhysicalSizeY *float64 `json:"PhysicalSizeY"`
	PhysicalSizeZ *float64 `json:"PhysicalSizeZ"`

	ImageAcquisitionTitle             *string `json:"image_acquisition_title"`
	ImageAcquisitionImagingInstrument *string `json:"image_acquisition_imaging_instrument"`
	ImageAcquisitionParameters        *string `json:"image_acquisition_image_acquisition_parameters"`
	ImageAcquisitionImagingMethod     *string `json:"image_acquisition_imaging_method"`

	SpecimenTitle                     *string `json:"specimen_title"`
	SpecimenSamplePreparationProtocol *string `json:"specimen_sample_preparation_protocol"`
	SpecimenGrowthProtocol            *string `json:"specimen_growth_protocol"`

	BiosampleTitle                  *string `json:"biosample_title"`
	BiosampleOrganismScientificName *string `json:"biosample_organism_scientific_name"`
	BiosampleOrganismCommonName     *string `json:"biosample_organism_common_name"`
	BiosampleOrganismNCBITaxon      *string `json:"biosample_organism_ncbi_taxon"`
	BiosampleDescription            *string `json:"biosample_description"`
	BiosampleBiologicalEntity       *string `json:"biosample_biological_entity"`
	BiosampleExperimentalVariables  *string `json:"biosample_experimental_variables"`
	BiosampleExtrinsicVariables     *string `json:"biosample_extrinsic_variables"`
	BiosampleIntrinsicVariables     *string `json:"biosample_intrinsic_variables"`

	Attributes map[string]string `json:"attributes"`
}

// ExportDataset is the flattened per-study record.
type ExportDataset struct {
	AccessionID     string   `json:"accession_id"`
	Title           string   `json:"title"`
	ReleaseDate     string   `json:"release_date"`
	ExampleImageURI string   `json:"example_image_uri"`
	ImagingType     string   `json:"imaging_type"`
	Organism        string   `json:"organism"`
	NImages         int      `json:"n_images"`
	ImageUUIDs      []string `json:"image_uuids"`
	Links           []Link   `json:"links"`
}

// ExportAIDataset extends ExportDataset with annotation metadata pulled from
// the study's free-form attributes and three cross-reference maps linking
// annotation files and the images they annotate.
type ExportAIDataset struct {
	ExportDataset

	ExampleAnnotationURI string `json:"example_annotation_uri"`
	AnnotationType       string `json:"annotation_type"`
	AnnotationMethod     string `json:"annotation_method"`
	ModelsDescription    string `json:"models_description"`
	ModelsURI            string `json:"models_uri"`

	// AnnImUUIDs flags annotation files that are themselves viewable
	// images: annotation-file uuid -> uuid of the image sharing its name.
	AnnImUUIDs map[string]string `json:"ann_im_uuids"`

	// CorrespondingSourceImAnnUUIDs maps a non-annotation image's uuid to
	// the comma-joined uuids of the annotation files annotating it.
	CorrespondingSourceImAnnUUIDs map[string]string `json:"corresponding_source_im_ann_uuids"`

	// CorrespondingAnnSourceImUUIDs maps an annotation file's uuid to the
	// uuid of the single source image it annotates.
	CorrespondingAnnSourceImUUIDs map[string]string `json:"corresponding_ann_source_im_uuids"`
}

// ExportSODataset extends ExportDataset with spatial-omics metadata pulled
// from the study's free-form attributes.
type ExportSODataset struct {
	ExportDataset

	SCSeqDescription string `json:"scseq_desc"`
	SCSeqLink        string `json:"scseq_link"`
	CodeDescription  string `json:"code_desc"`
	CodeLink         string `json:"code_link"`
}

// Exports is the bundle envelope written by the default export job.
type Exports struct {
	Collections map[string]ExportCollection `json:"collections"`
	Images      map[string]ExportImage      `json:"images"`
	Datasets    map[string]ExportDataset    `json:"datasets"`
}

// AIExports is the bundle envelope for AI-annotation datasets.
type AIExports struct {
	Collections map[string]ExportCollection `json:"collections"`
	Images      map[string]ExportImage      `json:"images"`
	Datasets    map[string]ExportAIDataset  `json:"datasets"`
}

// SOExports is the bundle envelope for spatial-omics datasets.
type SOExports struct {
	Collections map[string]ExportCollection `json:"collections"`
	Images      map[string]ExportImage      `json:"images"`
	Datasets    map[string]ExportSODataset  `json:"datasets"`
}

// AnnotationFilesReport lists a study's annotation files keyed by uuid along
// with the source-name index over them.
type AnnotationFilesReport struct {
	AccessionID          string                          `json:"accession_id"`
	AnnotationFiles      map[string]AnnotationFileRecord `json:"annotation_files"`
	AnnUUIDsBySourceName map[string]string               `json:"ann_uuids_by_source_name"`
}

// AnnotationFileRecord is the exported view of an annotation file reference.
type AnnotationFileRecord struct {
	UUID        string            `json:"uuid"`
	Name        string            `json:"name"`
	SourceImage string            `json:"source_image"`
	Attributes  map[string]string `json:"attributes"`
}
