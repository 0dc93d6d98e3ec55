package handlers

import (
	"io"
	"net/http"
	"strings"

	"factorylink/internal/models"
	"factorylink/internal/search"
	"factorylink/internal/services"
	"factorylink/internal/storage"

	"github.com/go-chi/chi/v5"
)

// filterFromQuery reads q, region, complex, category and role. Set filters
// may repeat or carry comma-separated values.
func filterFromQuery(r *http.Request) search.Filter {
	query := r.URL.Query()
	f := search.Filter{
		Keyword:    query.Get("q"),
		Regions:    multiValue(query["region"]),
		Complexes:  multiValue(query["complex"]),
		AllColumns: query.Get("all") == "1" || query.Get("all") == "true",
	}
	for _, c := range multiValue(query["category"]) {
		f.Categories = append(f.Categories, models.Category(c))
	}
	for _, role := range multiValue(query["role"]) {
		f.Roles = append(f.Roles, models.Role(role))
	}
	return f
}

func multiValue(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (h *Handler) SearchListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.Search(r.Context(), filterFromQuery(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(listings),
		"listings": listings,
	})
}

func (h *Handler) ListingMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.listings.Markers(r.Context(), filterFromQuery(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, markers)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

func (h *Handler) MyListings(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	listings, err := h.listings.Mine(r.Context(), session)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listings)
}

type createListingRequest struct {
	Company      string `json:"company"`
	Contact      string `json:"contact"`
	Region       string `json:"region"`
	Complex      string `json:"complex"`
	Role         string `json:"role"`
	Category     string `json:"category"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	ProcessNotes string `json:"process_notes"`
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	var req createListingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	listing, err := h.listings.Create(r.Context(), session, services.CreateListingInput{
		Company:      req.Company,
		Contact:      req.Contact,
		Region:       req.Region,
		Complex:      req.Complex,
		Role:         models.Role(req.Role),
		Category:     models.Category(req.Category),
		Title:        req.Title,
		Description:  req.Description,
		ProcessNotes: req.ProcessNotes,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, listing)
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	if err := h.listings.Delete(r.Context(), session, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UploadListingImage(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxImageBytes+1<<20)
	if err := r.ParseMultipartForm(storage.MaxImageBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read file")
		return
	}
	listing, err := h.listings.AttachImage(r.Context(), session, chi.URLParam(r, "id"), header.Filename, data)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}
