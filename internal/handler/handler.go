package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/paketsoal/internal/export"
	appI18n "github.com/pavelanni/paketsoal/internal/i18n"
	"github.com/pavelanni/paketsoal/internal/model"
	"github.com/pavelanni/paketsoal/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store *store.Store
}

// New creates a new Handler.
func New(s *store.Store) *Handler {
	return &Handler{store: s}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/packages", h.handleListPackages)
	r.Post("/packages", h.handleCreatePackage)
	r.Post("/packages/upload", h.handleUploadPackage)
	r.Get("/packages/{packageID}", h.handleGetPackage)
	r.Delete("/packages/{packageID}", h.handleDeletePackage)
	r.Get("/packages/{packageID}/export/{format}", h.handleExport)
	r.Get("/packages/{packageID}/copy", h.handleCopyText)
}

func (h *Handler) handleListPackages(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListPackages()
	if err != nil {
		slog.Error("failed to list packages", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []model.PackageSummary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, ok := h.loadPackage(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, model.ImportFromPackage(pkg))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, appI18n.T(r.Context(), "UnknownFormat"), http.StatusBadRequest)
		return
	}

	pkg, ok := h.loadPackage(w, r)
	if !ok {
		return
	}

	res, err := export.Default(appI18n.ExportLabels(r)).Export(pkg, format)
	if err != nil {
		slog.Error("export failed", "package_id", pkg.ID, "format", format, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	if _, err := w.Write(res.Data); err != nil {
		slog.Error("write export response", "package_id", pkg.ID, "error", err)
	}
}

func (h *Handler) handleCopyText(w http.ResponseWriter, r *http.Request) {
	pkg, ok := h.loadPackage(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, export.ClipboardText(pkg, appI18n.ExportLabels(r)))
}

// loadPackage resolves {packageID} and writes the error response itself
// when it returns false.
func (h *Handler) loadPackage(w http.ResponseWriter, r *http.Request) (model.Package, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "packageID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid package ID", http.StatusBadRequest)
		return model.Package{}, false
	}

	pkg, err := h.store.GetPackage(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, appI18n.T(r.Context(), "PackageNotFound"), http.StatusNotFound)
		return model.Package{}, false
	}
	if err != nil {
		slog.Error("failed to load package", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return model.Package{}, false
	}
	return pkg, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
