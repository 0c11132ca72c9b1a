package models

import "time"

// JobResult is the manifest entry for one job (one waybill's document
// bundle). A job that failed mid-pipeline still appears here with Error set;
// per-job failures never abort the surrounding run.
type JobResult struct {
	JobID             string                 `json:"job_id"`
	JobFolder         string                 `json:"job_folder,omitempty"`
	FileCount         int                    `json:"file_count"`
	ClassifiedFiles   []SavedFile            `json:"classified_files,omitempty"`
	ValidationResults *BatchValidationResult `json:"validation_results,omitempty"`
	ValidationFile    string                 `json:"validation_file,omitempty"`
	Error             string                 `json:"error,omitempty"`
}

// RunManifest is the response body for a processed batch. Jobs appear in
// the order their IDs were first encountered in the upload.
type RunManifest struct {
	RunID      string      `json:"run_id"`
	RunPath    string      `json:"run_path"`
	Region     Region      `json:"region"`
	CreatedAt  time.Time   `json:"created_at"`
	TotalFiles int         `json:"total_files"`
	TotalJobs  int         `json:"total_jobs"`
	Jobs       []JobResult `json:"jobs"`
}

// FileInfo describes one uploaded file in a partition preview.
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

// JobGroupInfo is the partition preview for one job.
type JobGroupInfo struct {
	JobID     string     `json:"job_id"`
	FileCount int        `json:"file_count"`
	Files     []FileInfo `json:"files"`
}

// BatchSummary is the response for a partition-only upload: how files
// would group into jobs, with nothing classified or written to disk.
type BatchSummary struct {
	TotalFiles int            `json:"total_files"`
	TotalJobs  int            `json:"total_jobs"`
	Jobs       []JobGroupInfo `json:"jobs"`
}
