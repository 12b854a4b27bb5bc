package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sales-conversation-service/internal/observability/logging"
	"sales-conversation-service/internal/service/pipeline"
)

const uploadErrorMessage = "An error occurred while processing the request."

// ConversationPipeline runs the full ingestion pipeline for one recording.
type ConversationPipeline interface {
	Run(ctx context.Context, audio []byte) (*pipeline.Result, error)
}

// CRMStore is the pass-through CRUD surface over the CRM.
type CRMStore interface {
	Create(ctx context.Context, objectType string, fields map[string]any) (map[string]any, error)
	Update(ctx context.Context, objectType, id string, fields map[string]any) error
	Query(ctx context.Context, soql string) ([]map[string]any, error)
}

// Handler serves the conversation endpoints.
type Handler struct {
	pipeline ConversationPipeline
	crm      CRMStore
}

// NewHandler creates the HTTP handler set.
func NewHandler(p ConversationPipeline, crm CRMStore) *Handler {
	return &Handler{pipeline: p, crm: crm}
}

// uploadResponse mirrors the original response contract of the upload
// endpoint: either all four success fields or a lone error string, always
// with HTTP 200.
type uploadResponse struct {
	Message            string         `json:"message,omitempty"`
	SalesforceResponse map[string]any `json:"salesforceResponse,omitempty"`
	NoteResponse       map[string]any `json:"noteResponse,omitempty"`
	Suggestions        string         `json:"suggestions,omitempty"`
	Error              string         `json:"error,omitempty"`
}

// Upload handles POST /conversations/upload. The multipart field
// "conversation" is read fully into memory; no size or type validation is
// applied. This is the single recovery boundary for the pipeline: any stage
// failure is logged and mapped to the uniform error payload.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithComponent("upload")

	file, _, err := r.FormFile("conversation")
	if err != nil {
		logger.Error().Err(err).Msg("Missing or unreadable conversation file")
		writeJSON(w, http.StatusOK, uploadResponse{Error: uploadErrorMessage})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read conversation file")
		writeJSON(w, http.StatusOK, uploadResponse{Error: uploadErrorMessage})
		return
	}

	result, err := h.pipeline.Run(r.Context(), audio)
	if err != nil {
		logger.Error().Err(err).Msg("Conversation pipeline failed")
		writeJSON(w, http.StatusOK, uploadResponse{Error: uploadErrorMessage})
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message:            "Data submitted to Salesforce successfully!",
		SalesforceResponse: result.SalesforceResponse,
		NoteResponse:       result.NoteResponse,
		Suggestions:        result.Suggestions,
	})
}

// CreateObject returns a handler forwarding the JSON body verbatim to a CRM
// create for the given object type. CRM errors propagate to the caller.
func (h *Handler) CreateObject(objectType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		resp, err := h.crm.Create(r.Context(), objectType, fields)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// UpdateObject returns a handler forwarding the JSON body to a CRM update,
// with the path id as the record identifier.
func (h *Handler) UpdateObject(objectType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var fields map[string]any
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		if err := h.crm.Update(r.Context(), objectType, id, fields); err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      id,
			"success": true,
			"errors":  []any{},
		})
	}
}

// Query handles GET /conversations/query?q=..., forwarding the query string
// verbatim to the CRM and returning the record sequence.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	records, err := h.crm.Query(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
