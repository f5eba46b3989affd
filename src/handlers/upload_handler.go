// src/handlers/upload_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/security/validation"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/utils"
)

type UploadHandler struct {
	portfolioService services.PortfolioService
	maxUploadSize    int64
}

func NewUploadHandler(service services.PortfolioService, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{
		portfolioService: service,
		maxUploadSize:    maxUploadSize,
	}
}

func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.HandleUpload)
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "sessionID", sessionID, "error", err, "limit", h.maxUploadSize)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "sessionID", sessionID, "error", err)
		utils.SendJSONError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadSize {
		log.Warn("Uploaded file header reports size too large", "sessionID", sessionID, "fileSize", fileHeader.Size, "limit", h.maxUploadSize)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	portfolioID, ok := models.ParsePortfolioID(r.FormValue("portfolioId"))
	if !ok || !portfolioID.IsSource() {
		utils.SendJSONError(w, "portfolioId must be portfolio1 or portfolio2", http.StatusBadRequest)
		return
	}
	name := validation.SanitizeName(r.FormValue("portfolioName"))

	if err := validation.ValidateFilename(fileHeader.Filename); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		log.Warn("Server-side file content validation failed", "sessionID", sessionID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info("Processing upload request", "sessionID", sessionID, "filename", fileHeader.Filename, "portfolioID", portfolioID, "detectedType", detectedContentType)
	result, err := h.portfolioService.Upload(r.Context(), sessionID, file, fileHeader.Filename, portfolioID, name)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	utils.SendJSON(w, result, http.StatusOK)
}
