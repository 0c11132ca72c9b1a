package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorstStatus(t *testing.T) {
	assert.Equal(t, StatusNotApplicable, WorstStatus())
	assert.Equal(t, StatusPass, WorstStatus(StatusNotApplicable, StatusPass))
	assert.Equal(t, StatusQuestionable, WorstStatus(StatusPass, StatusQuestionable, StatusNotApplicable))
	assert.Equal(t, StatusFail, WorstStatus(StatusQuestionable, StatusFail, StatusPass))
}

func TestSummarize(t *testing.T) {
	header := []Verdict{
		{Status: StatusPass},
		{Status: StatusFail},
	}
	valuation := []Verdict{
		{Status: StatusQuestionable},
		{Status: StatusNotApplicable},
		{Status: StatusPass},
	}

	s := Summarize(header, valuation)
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Questionable)
	assert.Equal(t, 1, s.NotApplicable)
}

func TestLineVerdict_Overall(t *testing.T) {
	l := LineVerdict{
		TariffClassificationStatus: StatusPass,
		ConcessionStatus:           StatusNotApplicable,
		QuantityStatus:             StatusPass,
		GSTExemptionStatus:         StatusNotApplicable,
	}
	assert.Equal(t, StatusPass, l.Overall())

	l.QuantityStatus = StatusFail
	assert.Equal(t, StatusFail, l.Overall())
}

func TestBatchValidationResult_TariffLinesExcludedFromJSON(t *testing.T) {
	r := BatchValidationResult{
		Header:      []Verdict{},
		Valuation:   []Verdict{},
		TariffLines: []TariffLineItem{{LineNumber: 1, TariffCode: "8471.30.00"}},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "8471.30.00")
}

func TestValidationDocument_JSONShape(t *testing.T) {
	doc := ValidationDocument{
		JobID:  "42",
		Region: RegionAU,
		BatchValidationResult: BatchValidationResult{
			Header: []Verdict{{
				CheckID:        "AU-HDR-001",
				Status:         StatusPass,
				SourceDocument: DocumentTypeEntryPrint,
				TargetDocument: DocumentTypeCommercialInvoice,
				SourceValue:    "ACME",
				TargetValue:    "ACME",
			}},
			Valuation: []Verdict{},
			Summary:   ValidationSummary{Total: 1, Passed: 1},
		},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "42", decoded["job_id"])
	assert.Equal(t, "AU", decoded["region"])
	assert.Contains(t, decoded, "header_validations")
	assert.Contains(t, decoded, "valuation_validations")
	assert.Contains(t, decoded, "summary")
}
