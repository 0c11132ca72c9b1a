package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DocumentType is the closed set of customs document classes the engine
// recognises. Anything the classifier cannot place lands in DocumentTypeOther.
type DocumentType string

const (
	DocumentTypeEntryPrint        DocumentType = "entry_print"
	DocumentTypeAirWaybill        DocumentType = "air_waybill"
	DocumentTypeCommercialInvoice DocumentType = "commercial_invoice"
	DocumentTypePackingList       DocumentType = "packing_list"
	DocumentTypeOther             DocumentType = "other"
)

// DocumentTypes lists every valid classification label in a stable order.
var DocumentTypes = []DocumentType{
	DocumentTypeEntryPrint,
	DocumentTypeAirWaybill,
	DocumentTypeCommercialInvoice,
	DocumentTypePackingList,
	DocumentTypeOther,
}

// ParseDocumentType maps a classifier label onto the closed enum. Unknown
// labels resolve to DocumentTypeOther rather than an error so that a
// misbehaving model can never introduce a sixth type downstream.
func ParseDocumentType(s string) DocumentType {
	switch DocumentType(strings.ToLower(strings.TrimSpace(s))) {
	case DocumentTypeEntryPrint:
		return DocumentTypeEntryPrint
	case DocumentTypeAirWaybill:
		return DocumentTypeAirWaybill
	case DocumentTypeCommercialInvoice:
		return DocumentTypeCommercialInvoice
	case DocumentTypePackingList:
		return DocumentTypePackingList
	default:
		return DocumentTypeOther
	}
}

// Extractable reports whether structured field extraction is defined for
// this document type.
func (d DocumentType) Extractable() bool {
	return d == DocumentTypeEntryPrint || d == DocumentTypeCommercialInvoice
}

// Region selects which checklist and tariff rules apply to a run.
type Region string

const (
	RegionAU Region = "AU"
	RegionNZ Region = "NZ"
)

// ParseRegion validates a region query parameter. Matching is
// case-insensitive; anything outside the supported set is an error.
func ParseRegion(s string) (Region, error) {
	switch Region(strings.ToUpper(strings.TrimSpace(s))) {
	case RegionAU:
		return RegionAU, nil
	case RegionNZ:
		return RegionNZ, nil
	default:
		return "", fmt.Errorf("unsupported region %q (expected AU or NZ)", s)
	}
}

// FileUpload is one uploaded part: the client-supplied filename plus the
// raw PDF bytes.
type FileUpload struct {
	Filename string
	Content  []byte
}

// SavedFile records where one classified document landed on disk and what
// the pipeline learned about it.
type SavedFile struct {
	OriginalFilename string          `json:"original_filename"`
	SavedFilename    string          `json:"saved_filename"`
	SavedPath        string          `json:"saved_path"`
	DocumentType     DocumentType    `json:"document_type"`
	ExtractionFile   string          `json:"extraction_file,omitempty"`
	ExtractedData    json.RawMessage `json:"extracted_data,omitempty"`
}
