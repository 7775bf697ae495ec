package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/invoice-mapper/internal/model"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type uploadListResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	CustomerID string `json:"customer_id"`
	ItemCount  int    `json:"item_count"`
}

type processInvoiceResponse struct {
	Status string `json:"status"`
	model.Resolution
}

type confirmMappingRequest struct {
	CustomerID  string  `json:"customer_id"`
	InvoiceItem string  `json:"invoice_item"`
	ListItem    *string `json:"list_item"`
}

type mappingPair struct {
	InvoiceItem string  `json:"invoice_item"`
	ListItem    *string `json:"list_item"`
}

type confirmMappingResponse struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	CustomerID string      `json:"customer_id"`
	Mapping    mappingPair `json:"mapping"`
}

type reviewDecisionRequest struct {
	CustomerID string           `json:"customer_id"`
	Decision   string           `json:"decision"`
	Target     string           `json:"target"`
	Item       model.MappedItem `json:"item"`
}

type reviewDecisionResponse struct {
	Status     string            `json:"status"`
	CustomerID string            `json:"customer_id"`
	State      model.ReviewState `json:"state"`
}

type mappingsResponse struct {
	CustomerID string              `json:"customer_id"`
	Mappings   model.MappingMemory `json:"mappings"`
}

type listResponse struct {
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
	CustomerID string     `json:"customer_id"`
	Items      []string   `json:"items"`
	Configured bool       `json:"configured"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Invoice mapper API is running."})
}

func (s *Server) handleUploadList(w http.ResponseWriter, r *http.Request) {
	customerID, file, header, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}
	defer file.Close()

	format, err := model.ListFormatFromFilename(header.Filename)
	if err != nil {
		s.sendEngineError(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Failed to read uploaded file.")
		return
	}

	items, err := model.DecodeReferenceList(data, format)
	if err != nil {
		s.sendEngineError(w, r, err)
		return
	}

	if err := s.svc.InitializeCustomer(r.Context(), customerID, items); err != nil {
		s.sendEngineError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, uploadListResponse{
		Status:     "success",
		Message:    fmt.Sprintf("List for '%s' saved successfully.", customerID),
		CustomerID: customerID,
		ItemCount:  len(items),
	})
}

func (s *Server) handleProcessInvoice(w http.ResponseWriter, r *http.Request) {
	customerID, file, header, ok := s.readUpload(w, r, "invoice")
	if !ok {
		return
	}
	defer file.Close()

	mediaType, err := model.MediaTypeFromFilename(header.Filename)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Invalid invoice file type.")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Failed to read uploaded file.")
		return
	}

	res, err := s.svc.ProcessDocument(r.Context(), customerID, model.Document{
		Name:      header.Filename,
		MediaType: mediaType,
		Content:   content,
	})
	if err != nil {
		s.sendEngineError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, processInvoiceResponse{Status: "success", Resolution: res})
}

func (s *Server) handleConfirmMapping(w http.ResponseWriter, r *http.Request) {
	var req confirmMappingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" || req.InvoiceItem == "" {
		sendError(w, http.StatusBadRequest, "Missing 'customer_id' or 'invoice_item'.")
		return
	}

	if err := s.svc.ApplyDecision(r.Context(), req.CustomerID, req.InvoiceItem, req.ListItem); err != nil {
		s.sendEngineError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, confirmMappingResponse{
		Status:     "success",
		Message:    "Mapping saved.",
		CustomerID: req.CustomerID,
		Mapping:    mappingPair{InvoiceItem: req.InvoiceItem, ListItem: req.ListItem},
	})
}

func (s *Server) handleReviewDecision(w http.ResponseWriter, r *http.Request) {
	var req reviewDecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" || req.Item.InvoiceItem == "" {
		sendError(w, http.StatusBadRequest, "Missing 'customer_id' or 'item.invoice_item'.")
		return
	}

	kind, err := model.ParseDecisionKind(req.Decision)
	if err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.svc.Decide(r.Context(), req.CustomerID, req.Item, model.Decision{Kind: kind, Target: req.Target})
	if err != nil {
		s.sendEngineError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, reviewDecisionResponse{Status: "success", CustomerID: req.CustomerID, State: state})
}

func (s *Server) handleGetMappings(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	memory, err := s.svc.Mappings(r.Context(), customerID)
	if err != nil {
		s.sendEngineError(w, r, err)
		return
	}

	sendJSON(w, http.StatusOK, mappingsResponse{CustomerID: customerID, Mappings: memory})
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	list, err := s.svc.ReferenceList(r.Context(), customerID)
	if err != nil {
		s.sendEngineError(w, r, err)
		return
	}

	resp := listResponse{CustomerID: customerID, Items: list.Items, Configured: list.Configured()}
	if resp.Items == nil {
		resp.Items = []string{}
	}
	if !list.UpdatedAt.IsZero() {
		resp.UpdatedAt = &list.UpdatedAt
	}
	sendJSON(w, http.StatusOK, resp)
}

// readUpload parses a multipart form carrying customer_id and one file part.
// It writes the error response itself and reports false on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) (string, multipart.File, *multipart.FileHeader, bool) {
	tooLargeMsg := fmt.Sprintf("Upload exceeds %d bytes.", s.cfg.MaxUploadBytes)
	if r.ContentLength > s.cfg.MaxUploadBytes {
		sendError(w, http.StatusRequestEntityTooLarge, tooLargeMsg)
		return "", nil, nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, http.StatusRequestEntityTooLarge, tooLargeMsg)
			return "", nil, nil, false
		}
		sendError(w, http.StatusBadRequest, "Expected multipart form data.")
		return "", nil, nil, false
	}

	customerID := r.FormValue("customer_id")
	if strings.TrimSpace(customerID) == "" {
		sendError(w, http.StatusBadRequest, "Missing 'customer_id' in form data.")
		return "", nil, nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		sendError(w, http.StatusBadRequest, fmt.Sprintf("No '%s' file part.", field))
		return "", nil, nil, false
	}
	if header.Filename == "" {
		_ = file.Close()
		sendError(w, http.StatusBadRequest, "Uploaded file has no name.")
		return "", nil, nil, false
	}

	return customerID, file, header, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		sendError(w, http.StatusBadRequest, "Missing or invalid JSON body.")
		return false
	}
	return true
}
