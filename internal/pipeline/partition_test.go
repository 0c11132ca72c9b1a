package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/scrutor/internal/models"
)

func TestJobIDFor(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected string
	}{
		{"underscore separator", "1172829192_AWB.pdf", "1172829192"},
		{"caret separator", "20451^invoice.pdf", "20451"},
		{"digits without separator", "1234.pdf", UnknownJobID},
		{"no digit prefix", "invoice_123.pdf", UnknownJobID},
		{"empty name", "", UnknownJobID},
		{"leading zeros preserved", "007_entry.pdf", "007"},
		{"digits then letters before separator", "12ab_entry.pdf", UnknownJobID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, JobIDFor(tt.filename))
		})
	}
}

func TestPartition_GroupsAndOrder(t *testing.T) {
	files := []models.FileUpload{
		{Filename: "222_invoice.pdf"},
		{Filename: "111_awb.pdf"},
		{Filename: "misc.pdf"},
		{Filename: "222_entry.pdf"},
		{Filename: "111_entry.pdf"},
	}

	groups := Partition(files)
	require.Len(t, groups, 3)

	// Encounter order of job IDs
	assert.Equal(t, "222", groups[0].JobID)
	assert.Equal(t, "111", groups[1].JobID)
	assert.Equal(t, UnknownJobID, groups[2].JobID)

	// Upload order preserved within a job
	require.Len(t, groups[0].Files, 2)
	assert.Equal(t, "222_invoice.pdf", groups[0].Files[0].Filename)
	assert.Equal(t, "222_entry.pdf", groups[0].Files[1].Filename)
}

func TestPartition_Empty(t *testing.T) {
	groups := Partition(nil)
	assert.Empty(t, groups)
}

func TestSummarize(t *testing.T) {
	files := []models.FileUpload{
		{Filename: "10_a.pdf", Content: []byte("aaa")},
		{Filename: "10_b.pdf", Content: []byte("bb")},
		{Filename: "loose.pdf", Content: []byte("c")},
	}

	summary := Summarize(files)
	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 2, summary.TotalJobs)
	require.Len(t, summary.Jobs, 2)
	assert.Equal(t, "10", summary.Jobs[0].JobID)
	assert.Equal(t, 2, summary.Jobs[0].FileCount)
	assert.Equal(t, 3, summary.Jobs[0].Files[0].Size)
	assert.Equal(t, UnknownJobID, summary.Jobs[1].JobID)
}
