// Package pipeline drives a batch run end to end: partitioning uploads
// into jobs, allocating the run directory, classifying and persisting each
// file, and validating each job's bundle.
package pipeline

import (
	"regexp"

	"github.com/ternarybob/scrutor/internal/models"
)

// UnknownJobID collects files whose names carry no leading job number.
const UnknownJobID = "unknown"

// jobPrefixPattern captures the leading digit run of a filename when it is
// terminated by an underscore or caret separator.
var jobPrefixPattern = regexp.MustCompile(`^(\d+)[_^]`)

// JobGroup is one partition bucket: a job ID and its files in upload order.
type JobGroup struct {
	JobID string
	Files []models.FileUpload
}

// JobIDFor derives the job ID from a filename. Files without a separator-
// terminated digit prefix land in the unknown bucket.
func JobIDFor(filename string) string {
	match := jobPrefixPattern.FindStringSubmatch(filename)
	if match == nil {
		return UnknownJobID
	}
	return match[1]
}

// Partition groups uploads by job ID, preserving the order job IDs are
// first encountered and the order of files within each job.
func Partition(files []models.FileUpload) []JobGroup {
	index := make(map[string]int)
	groups := make([]JobGroup, 0)
	for _, f := range files {
		jobID := JobIDFor(f.Filename)
		i, ok := index[jobID]
		if !ok {
			i = len(groups)
			index[jobID] = i
			groups = append(groups, JobGroup{JobID: jobID})
		}
		groups[i].Files = append(groups[i].Files, f)
	}
	return groups
}

// Summarize renders the partition preview for an upload without touching
// disk or any provider.
func Summarize(files []models.FileUpload) *models.BatchSummary {
	groups := Partition(files)
	summary := &models.BatchSummary{
		TotalFiles: len(files),
		TotalJobs:  len(groups),
		Jobs:       make([]models.JobGroupInfo, 0, len(groups)),
	}
	for _, g := range groups {
		info := models.JobGroupInfo{
			JobID:     g.JobID,
			FileCount: len(g.Files),
			Files:     make([]models.FileInfo, 0, len(g.Files)),
		}
		for _, f := range g.Files {
			info.Files = append(info.Files, models.FileInfo{
				Filename: f.Filename,
				Size:     len(f.Content),
			})
		}
		summary.Jobs = append(summary.Jobs, info)
	}
	return summary
}
