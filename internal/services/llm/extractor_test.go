package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/models"
)

func TestExtract_NonExtractableTypesReturnNil(t *testing.T) {
	provider := &stubProvider{generate: func(req GenerateRequest) ([]byte, error) {
		t.Fatal("provider must not be called for non-extractable types")
		return nil, nil
	}}
	e := NewExtractor(provider, fastConfig(), arbor.NewLogger())

	for _, docType := range []models.DocumentType{
		models.DocumentTypeAirWaybill,
		models.DocumentTypePackingList,
		models.DocumentTypeOther,
	} {
		record, err := e.Extract(context.Background(), []byte("pdf"), docType)
		require.NoError(t, err)
		assert.Nil(t, record)
	}
}

func TestExtract_EntryPrintRecord(t *testing.T) {
	provider := &stubProvider{generate: func(req GenerateRequest) ([]byte, error) {
		return []byte(`{"jobNo":"1172829192","entryNo":"AAE1234567","supplierName":"ACME GmbH","itot":1500.50}`), nil
	}}
	e := NewExtractor(provider, fastConfig(), arbor.NewLogger())

	record, err := e.Extract(context.Background(), []byte("pdf"), models.DocumentTypeEntryPrint)
	require.NoError(t, err)
	require.NotNil(t, record)

	var decoded models.EntryPrintExtraction
	require.NoError(t, json.Unmarshal(record, &decoded))
	assert.Equal(t, "1172829192", decoded.JobNo)
	assert.Equal(t, "AAE1234567", decoded.EntryNo)
}

func TestExtract_SchemaMismatchReturnsNilRecord(t *testing.T) {
	provider := &stubProvider{generate: func(req GenerateRequest) ([]byte, error) {
		// itot must be a number, not an object
		return []byte(`{"jobNo":"1","itot":{"amount":5}}`), nil
	}}
	e := NewExtractor(provider, fastConfig(), arbor.NewLogger())

	record, err := e.Extract(context.Background(), []byte("pdf"), models.DocumentTypeEntryPrint)
	require.NoError(t, err)
	assert.Nil(t, record)
	// Schema faults are not retried
	assert.EqualValues(t, 1, provider.calls.Load())
}

func TestExtract_ExhaustedRetriesReturnNilRecord(t *testing.T) {
	provider := &stubProvider{generate: func(req GenerateRequest) ([]byte, error) {
		return nil, NewCallError("generate", errors.New("RESOURCE_EXHAUSTED"))
	}}
	e := NewExtractor(provider, fastConfig(), arbor.NewLogger())

	record, err := e.Extract(context.Background(), []byte("pdf"), models.DocumentTypeCommercialInvoice)
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.EqualValues(t, 3, provider.calls.Load())
}

func TestExtract_CancelledContextSurfaces(t *testing.T) {
	provider := &stubProvider{generate: func(req GenerateRequest) ([]byte, error) {
		return nil, NewCallError("generate", errors.New("429"))
	}}
	e := NewExtractor(provider, fastConfig(), arbor.NewLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, []byte("pdf"), models.DocumentTypeEntryPrint)
	require.ErrorIs(t, err, context.Canceled)
}
