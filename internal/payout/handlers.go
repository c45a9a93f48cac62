package payout

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zombor/gigguard/internal/scanning"
)

const (
	// maxUploadSize covers high-resolution phone screenshots plus a voice note
	maxUploadSize   = int64(50 << 20)
	defaultLogLimit = 10
	maxLogLimit     = 500
	debugTextLength = 100
)

var (
	errFileTooLarge    = errors.New("File is too large. Maximum size is 50MB. Please compress or resize your image.")
	errNoFile          = errors.New("No file was selected. Please choose a file to upload.")
	errInvalidFileType = errors.New("Invalid file type.")
)

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a JSON error body
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{
		"error": message,
	})
}

// readUpload reads a multipart file field. When required is false a missing
// field returns nil without error.
func readUpload(r *http.Request, field string, required bool) (*Upload, error) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) || err.Error() == "http: request body too large" {
				return nil, errFileTooLarge
			}
			return nil, err
		}
	}

	f, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if !required {
				return nil, nil
			}
			return nil, errNoFile
		}
		return nil, err
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		return nil, errFileTooLarge
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return &Upload{
		Filename:    header.Filename,
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

// readImage reads and validates the receipt image field
func readImage(w http.ResponseWriter, r *http.Request, field string) (*Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	upload, err := readUpload(r, field, true)
	if err != nil {
		slog.Error("Error reading upload", "field", field, "error", err)
		switch {
		case errors.Is(err, errFileTooLarge), errors.Is(err, errNoFile):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadRequest, "Error parsing form")
		}
		return nil, false
	}

	upload.ContentType = scanning.NormalizeImageType(upload.ContentType, upload.Filename)
	if !scanning.IsSupportedImageType(upload.ContentType) {
		writeError(w, http.StatusBadRequest, errInvalidFileType.Error())
		return nil, false
	}
	return upload, true
}

// handleExtractText returns the raw OCR text of a receipt
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	image, ok := readImage(w, r, "file")
	if !ok {
		return
	}

	text := s.service.ExtractText(r.Context(), *image)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": image.Filename,
		"raw_text": text,
	})
}

// handleAnalyzeReceipt returns the structured facts of a receipt
func (s *Server) handleAnalyzeReceipt(w http.ResponseWriter, r *http.Request) {
	image, ok := readImage(w, r, "file")
	if !ok {
		return
	}

	analysis := s.service.AnalyzeReceipt(r.Context(), *image)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename":   image.Filename,
		"analysis":   analysis.Facts,
		"debug_text": truncateRunes(analysis.RawText, debugTextLength),
	})
}

// handleShadowBan scores the receipt against a regional model
func (s *Server) handleShadowBan(w http.ResponseWriter, r *http.Request) {
	image, ok := readImage(w, r, "file")
	if !ok {
		return
	}

	result := s.service.AuditShadowBan(r.Context(), *image, r.FormValue("region"))
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": image.Filename,
		"analysis": result.Facts,
		"audit":    result.Audit,
	})
}

// handleGenerateReport returns a PDF evidence pack
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	image, ok := readImage(w, r, "image")
	if !ok {
		return
	}

	audio, err := readUpload(r, "audio", false)
	if err != nil {
		slog.Error("Error reading audio", "error", err)
		writeError(w, http.StatusBadRequest, "Error reading audio")
		return
	}

	pack, err := s.service.GenerateEvidencePack(r.Context(), *image, audio)
	if err != nil {
		slog.Error("Error generating evidence pack", "filename", image.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Error generating report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=evidence_pack_plus.pdf")
	w.Header().Set("X-Report-ID", pack.ID)
	w.Write(pack.PDF)
}

// handleGetReport returns an archived evidence pack
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.service.GetReport(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Report not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=evidence_pack_"+id+".pdf")
	w.Write(data)
}

// handleDeleteReport removes an archived evidence pack
func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DeleteReport(id); err != nil {
		if errors.Is(err, ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "Report not found")
			return
		}
		slog.Error("Error deleting report", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListLogs returns the most recent audit trail entries
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogLimit)
	}

	entries, err := s.service.RecentLogs(limit)
	if err != nil {
		slog.Error("Error listing audit logs", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Ensure we always return an array, not nil
	if entries == nil {
		entries = []*LogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleListRegions returns the known regions and their models
func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	registry := s.service.Registry()
	models := make(map[string]any, len(registry.Regions()))
	for _, name := range registry.Regions() {
		m, _ := registry.Model(name)
		models[name] = m
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"default": registry.Default(),
		"regions": models,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// truncateRunes returns at most n runes of s
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
