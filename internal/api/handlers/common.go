package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	api "productform/internal/api/application"
	apimiddleware "productform/internal/api/middleware"
	formdomain "productform/internal/form/domain"
)

// maxUploadMemory is the part of a multipart body kept in memory, the rest spills to disk
const maxUploadMemory = 32 << 20

// getLogger extracts the logger from the request context
// Falls back to slog.Default() if not found
func getLogger(r *http.Request) *slog.Logger {
	return apimiddleware.LoggerFromContext(r.Context())
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondJSONError sends a JSON error response
func respondJSONError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, api.ErrorResponse{Error: message})
}

// readFiles returns every file sent under field, in the order the client sent them
func readFiles(r *http.Request, field string) ([]formdomain.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("invalid multipart body: %w", err)
	}

	headers := r.MultipartForm.File[field]
	files := make([]formdomain.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}

		files = append(files, formdomain.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
