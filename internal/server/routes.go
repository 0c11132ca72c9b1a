package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Batch processing
	mux.HandleFunc("/api/process-batch", s.app.BatchHandler.ProcessBatchHandler) // POST - full pipeline run
	mux.HandleFunc("/api/upload-batch", s.app.BatchHandler.UploadBatchHandler)   // POST - partition preview only

	// API routes - Checklist management
	mux.HandleFunc("/api/checklist/", s.app.ChecklistHandler.HandleChecklistRoutes) // GET/PUT /{region}

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
