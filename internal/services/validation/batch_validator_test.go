package validation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/services/llm"
)

type fakeProvider struct {
	calls    atomic.Int64
	generate func(req llm.GenerateRequest) ([]byte, error)
}

func (f *fakeProvider) GenerateStructured(ctx context.Context, req llm.GenerateRequest) ([]byte, error) {
	f.calls.Add(1)
	return f.generate(req)
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Close() error { return nil }

type fakeChecklistStore struct {
	checklist *models.Checklist
	err       error
}

func (f *fakeChecklistStore) Load(region models.Region) (*models.Checklist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.checklist, nil
}

func (f *fakeChecklistStore) Replace(region models.Region, content []byte) error { return nil }

func (f *fakeChecklistStore) Path(region models.Region) string { return "" }

type fakeTariffAgent struct {
	suggestion *models.TariffSuggestion
	err        error
}

func (f *fakeTariffAgent) ClassifyLine(ctx context.Context, item models.TariffLineItem) (*models.TariffSuggestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.suggestion, nil
}

func testChecklist(headerIDs, valuationIDs []string) *models.Checklist {
	toChecks := func(ids []string) []models.Check {
		checks := make([]models.Check, 0, len(ids))
		for _, id := range ids {
			checks = append(checks, models.Check{
				ID:               id,
				AuditingCriteria: "criteria for " + id,
				CompareFields: models.CompareFields{
					SourceDoc:   models.DocumentTypeEntryPrint,
					SourceField: models.NewFieldRef("supplierName"),
					TargetDoc:   models.DocumentTypeCommercialInvoice,
					TargetField: models.NewFieldRef("supplier_name"),
				},
			})
		}
		return checks
	}
	return &models.Checklist{
		Version:          "1.0.0",
		Region:           models.RegionAU,
		NumericTolerance: 0.02,
		Categories: map[string]models.ChecklistCategory{
			models.CategoryHeader:    {Checks: toChecks(headerIDs)},
			models.CategoryValuation: {Checks: toChecks(valuationIDs)},
		},
	}
}

// verdictResponse builds a provider response with one verdict per check
// found in the prompt.
func verdictResponse(req llm.GenerateRequest, status models.CheckStatus, sourceValue string) ([]byte, error) {
	prompt := req.Parts[0].Text
	count := strings.Count(prompt, "Check ID:")
	verdicts := make([]models.Verdict, 0, count)
	for i := 0; i < count; i++ {
		verdicts = append(verdicts, models.Verdict{
			CheckID:     fmt.Sprintf("CHK-%d", i+1),
			Status:      status,
			Assessment:  "checked",
			SourceValue: sourceValue,
			TargetValue: "ACME",
		})
	}
	return json.Marshal(map[string]any{"validations": verdicts})
}

func testDocs() map[models.DocumentType][]byte {
	return map[models.DocumentType][]byte{
		models.DocumentTypeEntryPrint:        []byte("entry-pdf"),
		models.DocumentTypeCommercialInvoice: []byte("invoice-pdf"),
	}
}

func newValidator(provider llm.Provider, store *fakeChecklistStore, agent *fakeTariffAgent, tariffChecks bool) *Service {
	cfg := common.NewDefaultConfig()
	cfg.LLM.InitialBackoff = "1ms"
	cfg.LLM.MaxBackoff = "5ms"
	cfg.Validation.TariffChecks = tariffChecks

	if agent == nil {
		return NewService(provider, store, nil, cfg, arbor.NewLogger())
	}
	return NewService(provider, store, agent, cfg, arbor.NewLogger())
}

func TestValidate_RequiresDesignatedDocuments(t *testing.T) {
	s := newValidator(&fakeProvider{}, &fakeChecklistStore{checklist: testChecklist(nil, nil)}, nil, false)

	_, err := s.Validate(context.Background(), models.RegionAU, "1", map[models.DocumentType][]byte{
		models.DocumentTypeCommercialInvoice: []byte("x"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry print")

	_, err = s.Validate(context.Background(), models.RegionAU, "1", map[models.DocumentType][]byte{
		models.DocumentTypeEntryPrint: []byte("x"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commercial invoice")
}

func TestValidate_BothCategories(t *testing.T) {
	provider := &fakeProvider{generate: func(req llm.GenerateRequest) ([]byte, error) {
		return verdictResponse(req, models.StatusPass, "ACME")
	}}
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1", "H2"}, []string{"V1"})}
	s := newValidator(provider, store, nil, false)

	result, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.NoError(t, err)

	assert.Len(t, result.Header, 2)
	assert.Len(t, result.Valuation, 1)
	assert.Equal(t, 3, result.Summary.Total)
	assert.Equal(t, 3, result.Summary.Passed)
	assert.Empty(t, result.TariffLineChecks)
	assert.EqualValues(t, 2, provider.calls.Load())
}

func TestValidate_NormalizesEmptyValues(t *testing.T) {
	provider := &fakeProvider{generate: func(req llm.GenerateRequest) ([]byte, error) {
		return verdictResponse(req, models.StatusFail, "")
	}}
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1"}, nil)}
	s := newValidator(provider, store, nil, false)

	result, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.NoError(t, err)

	require.Len(t, result.Header, 1)
	assert.Equal(t, "NOT FOUND", result.Header[0].SourceValue)
	assert.Equal(t, "ACME", result.Header[0].TargetValue)
}

func TestValidate_KeepsEmptyValuesForNotApplicable(t *testing.T) {
	provider := &fakeProvider{generate: func(req llm.GenerateRequest) ([]byte, error) {
		prompt := req.Parts[0].Text
		count := strings.Count(prompt, "Check ID:")
		verdicts := make([]models.Verdict, count)
		for i := range verdicts {
			verdicts[i] = models.Verdict{CheckID: "X", Status: models.StatusNotApplicable}
		}
		return json.Marshal(map[string]any{"validations": verdicts})
	}}
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1"}, nil)}
	s := newValidator(provider, store, nil, false)

	result, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.NoError(t, err)
	assert.Empty(t, result.Header[0].SourceValue)
}

func TestValidate_VerdictCountMismatchIsSchemaFault(t *testing.T) {
	provider := &fakeProvider{generate: func(req llm.GenerateRequest) ([]byte, error) {
		return json.Marshal(map[string]any{"validations": []models.Verdict{}})
	}}
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1", "H2"}, nil)}
	s := newValidator(provider, store, nil, false)

	_, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.Error(t, err)
	assert.Equal(t, llm.KindSchemaFault, llm.KindOf(err))
}

func TestValidate_EmptyCategorySkipsCall(t *testing.T) {
	provider := &fakeProvider{generate: func(req llm.GenerateRequest) ([]byte, error) {
		return verdictResponse(req, models.StatusPass, "v")
	}}
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1"}, nil)}
	s := newValidator(provider, store, nil, false)

	result, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.NoError(t, err)
	assert.NotNil(t, result.Valuation)
	assert.Empty(t, result.Valuation)
	assert.EqualValues(t, 1, provider.calls.Load())
}

func TestValidate_ChecklistLoadFailure(t *testing.T) {
	s := newValidator(&fakeProvider{}, &fakeChecklistStore{err: errors.New("no checklist on disk")}, nil, false)

	_, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no checklist")
}

func TestValidate_RetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int64
	provider := &fakeProvider{generate: func(req llm.GenerateRequest) ([]byte, error) {
		if attempts.Add(1) == 1 {
			return nil, llm.NewCallError("generate", errors.New("503 service unavailable"))
		}
		return verdictResponse(req, models.StatusPass, "v")
	}}
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1"}, nil)}
	s := newValidator(provider, store, nil, false)

	result, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.NoError(t, err)
	assert.Len(t, result.Header, 1)
	assert.GreaterOrEqual(t, attempts.Load(), int64(2))
}

func tariffAwareProvider(t *testing.T, lines []models.TariffLineItem) *fakeProvider {
	t.Helper()
	return &fakeProvider{generate: func(req llm.GenerateRequest) ([]byte, error) {
		if req.System == tariffExtractionPrompt {
			return json.Marshal(map[string]any{"line_items": lines})
		}
		return verdictResponse(req, models.StatusPass, "v")
	}}
}

func TestValidate_TariffChecksProduceLineVerdicts(t *testing.T) {
	lines := []models.TariffLineItem{
		{LineNumber: 1, Description: "laptops", TariffCode: "8471.30.00", StatCode: "01", InvoiceQuantity: "5", EntryPrintQuantity: "5"},
	}
	provider := tariffAwareProvider(t, lines)
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1"}, nil)}
	agent := &fakeTariffAgent{suggestion: &models.TariffSuggestion{
		TariffCode: "8471.30.00",
		StatCode:   "01",
		Reasoning:  "portable computers",
	}}
	s := newValidator(provider, store, agent, true)

	result, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.NoError(t, err)

	require.Len(t, result.TariffLineChecks, 1)
	line := result.TariffLineChecks[0]
	assert.Equal(t, models.StatusPass, line.TariffClassificationStatus)
	assert.Equal(t, models.StatusPass, line.QuantityStatus)
	assert.Equal(t, models.StatusNotApplicable, line.ConcessionStatus)
	assert.Equal(t, models.StatusPass, line.OverallStatus)
	require.NotNil(t, result.TariffSummary)
	assert.Equal(t, 1, result.TariffSummary.Passed)
	assert.Len(t, result.TariffLines, 1)
}

func TestValidate_TariffChecksSkippedOutsideAU(t *testing.T) {
	provider := tariffAwareProvider(t, []models.TariffLineItem{{LineNumber: 1}})
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1"}, nil)}
	s := newValidator(provider, store, &fakeTariffAgent{}, true)

	result, err := s.Validate(context.Background(), models.RegionNZ, "1", testDocs())
	require.NoError(t, err)
	assert.Empty(t, result.TariffLineChecks)
}

func TestValidate_TariffExtractionFailureIsBestEffort(t *testing.T) {
	provider := &fakeProvider{generate: func(req llm.GenerateRequest) ([]byte, error) {
		if req.System == tariffExtractionPrompt {
			return nil, llm.SchemaFault("tariff.extract", errors.New("garbled response"))
		}
		return verdictResponse(req, models.StatusPass, "v")
	}}
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1"}, nil)}
	s := newValidator(provider, store, &fakeTariffAgent{}, true)

	result, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.NoError(t, err)
	assert.Len(t, result.Header, 1)
	assert.Empty(t, result.TariffLineChecks)
}

func TestValidate_TariffAgentFailureMarksLineQuestionable(t *testing.T) {
	lines := []models.TariffLineItem{{LineNumber: 1, TariffCode: "8471.30.00"}}
	provider := tariffAwareProvider(t, lines)
	store := &fakeChecklistStore{checklist: testChecklist([]string{"H1"}, nil)}
	agent := &fakeTariffAgent{err: errors.New("tariff API unreachable")}
	s := newValidator(provider, store, agent, true)

	result, err := s.Validate(context.Background(), models.RegionAU, "1", testDocs())
	require.NoError(t, err)
	require.Len(t, result.TariffLineChecks, 1)
	assert.Equal(t, models.StatusQuestionable, result.TariffLineChecks[0].TariffClassificationStatus)
}

func TestBuildLineVerdict_Classification(t *testing.T) {
	base := models.TariffLineItem{LineNumber: 1, TariffCode: "8471.30.00", StatCode: "01", FullCode: "8471.30.00 01"}

	tests := []struct {
		name       string
		suggestion *models.TariffSuggestion
		expected   models.CheckStatus
	}{
		{"exact match", &models.TariffSuggestion{TariffCode: "8471.30.00", StatCode: "01"}, models.StatusPass},
		{"stat code differs", &models.TariffSuggestion{TariffCode: "8471.30.00", StatCode: "02"}, models.StatusQuestionable},
		{"shared heading", &models.TariffSuggestion{TariffCode: "8471.41.00", StatCode: "01"}, models.StatusQuestionable},
		{"disagreement", &models.TariffSuggestion{TariffCode: "9503.00.10", StatCode: "01"}, models.StatusFail},
		{"no suggestion", nil, models.StatusQuestionable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := buildLineVerdict(base, tt.suggestion, 0.02)
			assert.Equal(t, tt.expected, v.TariffClassificationStatus)
		})
	}
}

func TestBuildLineVerdict_ConcessionAndGST(t *testing.T) {
	line := models.TariffLineItem{
		LineNumber:      1,
		TariffCode:      "8471.30.00",
		ConcessionBylaw: "TC 1234567",
		GSTExemption:    true,
	}

	withLink := buildLineVerdict(line, &models.TariffSuggestion{
		TariffCode:     "8471.30.00",
		ConcessionLink: "https://www.abf.gov.au/tariff-concessions-system/tco/1234567",
	}, 0.02)
	assert.Equal(t, models.StatusPass, withLink.ConcessionStatus)
	assert.Equal(t, models.StatusQuestionable, withLink.GSTExemptionStatus)

	withoutLink := buildLineVerdict(line, &models.TariffSuggestion{TariffCode: "8471.30.00"}, 0.02)
	assert.Equal(t, models.StatusQuestionable, withoutLink.ConcessionStatus)

	noClaim := buildLineVerdict(models.TariffLineItem{TariffCode: "8471.30.00"}, &models.TariffSuggestion{TariffCode: "8471.30.00"}, 0.02)
	assert.Equal(t, models.StatusNotApplicable, noClaim.ConcessionStatus)
	assert.Equal(t, models.StatusNotApplicable, noClaim.GSTExemptionStatus)
}

func TestCompareQuantities(t *testing.T) {
	tests := []struct {
		name      string
		invoice   string
		entry     string
		tolerance float64
		expected  models.CheckStatus
	}{
		{"exact match with units", "5 PCS", "5", 0, models.StatusPass},
		{"within tolerance", "10.01", "10.02", 0.02, models.StatusPass},
		{"mismatch", "5", "7", 0.02, models.StatusFail},
		{"both missing", "", "NOT FOUND", 0, models.StatusNotApplicable},
		{"unparseable", "several", "5", 0, models.StatusQuestionable},
		{"one side missing", "", "5", 0, models.StatusQuestionable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := compareQuantities(tt.invoice, tt.entry, tt.tolerance)
			assert.Equal(t, tt.expected, status)
		})
	}
}
