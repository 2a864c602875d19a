package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spritekiln/spritekiln/core/catalog"
	kilnerrors "github.com/spritekiln/spritekiln/core/errors"
	"github.com/spritekiln/spritekiln/internal/ingest"
	"github.com/spritekiln/spritekiln/internal/server"
	"github.com/spritekiln/spritekiln/internal/validation"
	"github.com/spritekiln/spritekiln/internal/version"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Icons   int    `json:"icons"`
	Sprite  bool   `json:"sprite"`
}

var startTime = time.Now()

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "spritekiln API",
		"version": version.Version,
		"endpoints": []string{
			"GET /health",
			"POST /api/v1/upload",
			"GET /api/v1/catalog",
			"GET /api/v1/catalog/:name",
			"DELETE /api/v1/catalog",
			"GET /api/v1/sprite",
			"WS /api/v1/events",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	cat, err := s.ing.Store().Catalog(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read catalog")
		return
	}
	spr, err := s.ing.Store().Sprite(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read sprite")
		return
	}

	respond(w, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Version: version.Version,
		Uptime:  time.Since(startTime).String(),
		Icons:   len(cat),
		Sprite:  spr != "",
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST is allowed")
		return
	}

	s.hub.Progress("upload", "parsing", "Parsing upload request", 10)

	if err := r.ParseMultipartForm(validation.MaxUploadSize); err != nil {
		s.hub.Error("upload", "Failed to parse multipart form or file too large")
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.hub.Error("upload", "No file uploaded")
		respondError(w, http.StatusBadRequest, "MISSING_FILE", "No file uploaded")
		return
	}
	defer file.Close()

	if err := validation.ValidateFilename(header.Filename); err != nil {
		s.hub.Error("upload", "Invalid filename provided")
		respondError(w, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename provided")
		return
	}

	if ct := header.Header.Get("Content-Type"); ct != "" {
		if !server.ValidateContentType(ct, server.AllowedUploadContentTypes) {
			s.hub.Error("upload", "Unsupported content type")
			respondError(w, http.StatusBadRequest, "INVALID_CONTENT_TYPE",
				fmt.Sprintf("Content type %q is not allowed", ct))
			return
		}
	}

	// Read one byte past the limit so oversized uploads are detected.
	data, err := io.ReadAll(io.LimitReader(file, validation.MaxUploadSize+1))
	if err != nil {
		s.hub.Error("upload", "Failed to read upload")
		respondError(w, http.StatusInternalServerError, "READ_FAILED", "Failed to read upload")
		return
	}

	asset := catalog.UploadedAsset{
		Filename: header.Filename,
		Size:     int64(len(data)),
		Data:     data,
	}

	s.hub.Progress("upload", "ingesting", "Validating and ingesting upload", 50)

	result, err := s.ingestByExtension(r, asset)
	if err != nil {
		s.hub.Error("upload", err.Error())
		status, code := errorStatus(err)
		respondError(w, status, code, err.Error())
		return
	}

	s.hub.Complete("upload", "Upload completed successfully", map[string]interface{}{
		"filename":  header.Filename,
		"upload_id": result.UploadID,
		"icons":     result.Icons,
	})

	respond(w, http.StatusCreated, result)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cat, err := s.ing.Store().Catalog(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read catalog")
			return
		}

		response := APIResponse{
			Success: true,
			Data:    cat,
			Meta: &APIMeta{
				Total:     len(cat),
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)

	case http.MethodDelete:
		if err := s.ing.Clear(r.Context()); err != nil {
			respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to clear catalog")
			return
		}
		s.hub.Complete("clear", "Catalog cleared", nil)
		respond(w, http.StatusOK, map[string]string{"status": "cleared"})

	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET and DELETE are allowed")
	}
}

func (s *Server) handleIconByName(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/v1/catalog/")
	if name == "" {
		respondError(w, http.StatusBadRequest, "MISSING_NAME", "Icon name is required")
		return
	}

	cat, err := s.ing.Store().Catalog(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read catalog")
		return
	}

	icon, ok := cat.Find(name)
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Icon %q not found", name))
		return
	}

	respond(w, http.StatusOK, icon)
}

func (s *Server) handleSprite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	spr, err := s.ing.Store().Sprite(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to read sprite")
		return
	}
	if spr == "" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No sprite has been ingested")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
	// Sprite responses get a document CSP so the SVG cannot script even if
	// opened directly in a browser.
	w.Header().Set("Content-Security-Policy", server.SpriteCSPConfig().BuildCSPHeader())
	w.Header().Set("Content-Disposition", `inline; filename="sprite.svg"`)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, spr)
}

// ingestByExtension routes an upload to the JSON or SVG pipeline based on
// its file extension.
func (s *Server) ingestByExtension(r *http.Request, asset catalog.UploadedAsset) (*ingest.Result, error) {
	switch strings.ToLower(filepath.Ext(asset.Filename)) {
	case ".json":
		return s.ing.IngestJSON(r.Context(), asset)
	case ".svg":
		return s.ing.IngestSVG(r.Context(), asset)
	default:
		return nil, kilnerrors.NewValidation("extension", "only .json and .svg uploads are supported")
	}
}

// errorStatus maps pipeline errors onto HTTP status codes and API error codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, kilnerrors.ErrSecurity):
		return http.StatusUnprocessableEntity, "SECURITY_REJECTED"
	case errors.Is(err, kilnerrors.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_UPLOAD"
	case errors.Is(err, kilnerrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
