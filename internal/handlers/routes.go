package handlers

import "github.com/gorilla/mux"

// RegisterRoutes adds the health, version and /api routes to r.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Library
	api.HandleFunc("/library", h.GetLibrary).Methods("GET")
	api.HandleFunc("/library", h.SetLibrary).Methods("PUT")
	api.HandleFunc("/categories", h.ListCategories).Methods("GET")
	api.HandleFunc("/categories/{category}", h.ListCategory).Methods("GET")
	api.HandleFunc("/categories/{category}/files/{name}/rename", h.RenameFile).Methods("POST")
	api.HandleFunc("/categories/{category}/files/{name}", h.DeleteFile).Methods("DELETE")
	api.HandleFunc("/media/{category}/{name}", h.ServeMedia).Methods("GET", "HEAD")

	// Thumbnails
	api.HandleFunc("/thumbnails/clear", h.ClearThumbnails).Methods("POST")
	api.HandleFunc("/thumbnails/{name}", h.GetThumbnail).Methods("GET")

	// Compression
	api.HandleFunc("/compress", h.CompressionStatus).Methods("GET")
	api.HandleFunc("/compress", h.StartCompression).Methods("POST")
	api.HandleFunc("/compress/cancel", h.CancelCompression).Methods("POST")
	api.HandleFunc("/compress/runs", h.ListRuns).Methods("GET")
	api.HandleFunc("/history", h.ListHistory).Methods("GET")
}
