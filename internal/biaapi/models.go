// Copyright (c) 2025 BioImage Archive
// SPDX-License-Identifier: MIT

package biaapi

// Records returned by the BIA integrator API. All of them are immutable
// snapshots: the export tool reads them and never writes anything back.
//
// Free-form metadata lives in the Attributes map of each record. Well-known
// keys are plain constants looked up with Attr; absent keys yield the zero
// value rather than an error.

// Attribute keys the exporter understands.
const (
	AttrSourceImage             = "source image"
	AttrSourceImageUUID         = "source_image_uuid"
	AttrSourceImageThumbnailURI = "source_image_thumbnail_uri"
	AttrOverlayImageURI         = "overlay_image_uri"

	AttrExampleAnnotationURI = "example_annotation_uri"
	AttrAnnotationType       = "annotation_type"
	AttrAnnotationMethod     = "annotation_method"
	AttrModelsDescription    = "models_description"
	AttrModelsURI            = "models_uri"

	AttrSCSeqDescription = "scseq_desc"
	AttrSCSeqLink        = "scseq_link"
	AttrCodeDescription  = "code_desc"
	AttrCodeLink         = "code_link"
)

// Representation type tags the exporter cares about.
const (
	RepTypeOMENGFF   = "ome_ngff"
	RepTypeThumbnail = "thumbnail"
)

// Attributes is the free-form string metadata attached to API records.
type Attributes map[string]string

// Get returns the value for key, or "" when the key is absent.
func (a Attributes) Get(key string) string {
	return a[key]
}

// Has reports whether key is present, regardless of its value.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Study is a top-level archive submission.
type Study struct {
	UUID                string     `json:"uuid"`
	AccessionID         string     `json:"accession_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	ReleaseDate         string     `json:"release_date"`
	Organism            string     `json:"organism"`
	ImagingType         string     `json:"imaging_type"`
	ExampleImageURI     string     `json:"example_image_uri"`
	Attributes          Attributes `json:"attributes"`
	ImagesCount         int        `json:"images_count"`
	FileReferencesCount int        `json:"file_references_count"`
}

// Representation is a named rendering of an Image, e.g. "ome_ngff" or
// "thumbnail", with one or more location URIs.
type Representation struct {
	Type string   `json:"type"`
	URIs []string `json:"uri"`
	Size int64    `json:"size"`
}

// Image is a single image belonging to exactly one Study.
type Image struct {
	UUID                  string           `json:"uuid"`
	StudyUUID             string           `json:"study_uuid"`
	Name                  string           `json:"name"`
	OriginalRelpath       string           `json:"original_relpath"`
	Representations       []Representation `json:"representations"`
	Attributes            Attributes       `json:"attributes"`
	ImageAcquisitionUUIDs []string         `json:"image_acquisitions_uuid"`
}

// RepresentationByType returns the first representation carrying the given
// type tag.
func (im Image) RepresentationByType(repType string) (Representation, bool) {
	for _, rep := range im.Representations {
		if rep.Type == repType {
			return rep, true
		}
	}
	return Representation{}, false
}

// ImageAcquisition describes how an image was captured.
type ImageAcquisition struct {
	UUID                       string     `json:"uuid"`
	SpecimenUUID               string     `json:"specimen_uuid"`
	Title                      string     `json:"title"`
	ImagingInstrument          string     `json:"imaging_instrument"`
	ImageAcquisitionParameters string     `json:"image_acquisition_parameters"`
	ImagingMethod              string     `json:"imaging_method"`
	Attributes                 Attributes `json:"attributes"`
}

// Specimen links an acquisition to the biosample it was prepared from.
type Specimen struct {
	UUID                      string     `json:"uuid"`
	BiosampleUUID             string     `json:"biosample_uuid"`
	Title                     string     `json:"title"`
	SamplePreparationProtocol string     `json:"sample_preparation_protocol"`
	GrowthProtocol            string     `json:"growth_protocol"`
	Attributes                Attributes `json:"attributes"`
}

// Biosample is the biological material a specimen was prepared from.
type Biosample struct {
	UUID                   string     `json:"uuid"`
	Title                  string     `json:"title"`
	OrganismScientificName string     `json:"organism_scientific_name"`
	OrganismCommonName     string     `json:"organism_common_name"`
	OrganismNCBITaxon      string     `json:"organism_ncbi_taxon"`
	Description            string     `json:"description"`
	BiologicalEntity       string     `json:"biological_entity"`
	ExperimentalVariables  []string   `json:"experimental_variables"`
	ExtrinsicVariables     []string   `json:"extrinsic_variables"`
	IntrinsicVariables     []string   `json:"intrinsic_variables"`
	Attributes             Attributes `json:"attributes"`
}

// FileReference is a file listed under a study.
type FileReference struct {
	UUID       string     `json:"uuid"`
	Name       string     `json:"name"`
	Size       int64      `json:"size"`
	Attributes Attributes `json:"attributes"`
}

// IsAnnotation reports whether the file reference is an annotation file: one
// whose attributes carry a "source image" key naming the image it annotates.
func (fr FileReference) IsAnnotation() bool {
	return fr.Attributes.Has(AttrSourceImage)
}

// ObjectInfo is the minimal record returned by accession-id lookups.
type ObjectInfo struct {
	UUID        string `json:"uuid"`
	AccessionID string `json:"accession_id"`
}
