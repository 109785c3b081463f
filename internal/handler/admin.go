package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/paketsoal/internal/model"
	"github.com/pavelanni/paketsoal/internal/store"
)

const maxUploadSize = 10 << 20

func (h *Handler) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	var pi model.PackageImport
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadSize)).Decode(&pi); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.store.SavePackage(pi.ToPackage())
	if err != nil {
		slog.Error("failed to save package", "error", err)
		http.Error(w, "failed to save package: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("saved package", "id", id, "name", pi.PackageName, "questions", len(pi.Questions))
	writeJSON(w, http.StatusCreated, map[string]int64{"package_id": id})
}

func (h *Handler) handleUploadPackage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("package_file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	hashBytes := sha256.Sum256(data)
	hash := hex.EncodeToString(hashBytes[:])

	storedHash, err := h.store.GetImportedFileHash(header.Filename)
	if err != nil {
		slog.Error("failed to check import status", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if storedHash == hash {
		http.Error(w, "file already imported", http.StatusConflict)
		return
	}

	var pi model.PackageImport
	if err := json.Unmarshal(data, &pi); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.store.SavePackage(pi.ToPackage())
	if err != nil {
		slog.Error("failed to save package", "error", err)
		http.Error(w, "failed to save package: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.store.SetImportedFileHash(header.Filename, hash); err != nil {
		slog.Error("failed to record import", "error", err)
	}

	slog.Info("uploaded package", "filename", header.Filename, "id", id, "questions", len(pi.Questions))
	writeJSON(w, http.StatusCreated, map[string]int64{"package_id": id})
}

func (h *Handler) handleDeletePackage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "packageID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid package ID", http.StatusBadRequest)
		return
	}

	err = h.store.DeletePackage(id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to delete package", "id", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
