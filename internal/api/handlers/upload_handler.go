package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scribeapp/scribe/internal/models"
	mongorepo "github.com/scribeapp/scribe/internal/repositories/mongo"
	"github.com/scribeapp/scribe/internal/services"
	"github.com/scribeapp/scribe/internal/utils"
)

type UploadHandler struct {
	uploads services.UploadService
}

func NewUploadHandler(uploads services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

func kindParam(c *gin.Context) (models.MediaKind, bool) {
	kind := models.MediaKind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorBody{
			Code:    utils.CodeInvalidArgument,
			Message: "kind must be audio or video",
		}})
		return "", false
	}
	return kind, true
}

// List returns the caller's records for one partition.
func (h *UploadHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	rows, err := h.uploads.ListRecords(c.Request.Context(), userID, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	if rows == nil {
		rows = []models.UploadRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"files": rows})
}

// ListAll returns both partitions in one response.
func (h *UploadHandler) ListAll(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	all, err := h.uploads.GetAllRecords(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if all.AudioFiles == nil {
		all.AudioFiles = []models.UploadRecord{}
	}
	if all.VideoFiles == nil {
		all.VideoFiles = []models.UploadRecord{}
	}
	c.JSON(http.StatusOK, all)
}

func (h *UploadHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rec, err := h.uploads.GetRecordByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type updateRecordRequest struct {
	OriginalFilename *string `json:"original_filename"`
	FileURL          *string `json:"file_url"`
	TextID           *string `json:"text_id"`
	Rating           *int    `json:"rating"`
}

func (h *UploadHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req updateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		return
	}

	patch := mongorepo.UploadPatch{
		OriginalFilename: req.OriginalFilename,
		FileURL:          req.FileURL,
		TextID:           req.TextID,
		Rating:           req.Rating,
	}
	if err := h.uploads.UpdateRecord(c.Request.Context(), userID, c.Param("id"), patch); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (h *UploadHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	kind, ok := kindParam(c)
	if !ok {
		return
	}

	if err := h.uploads.DeleteRecord(c.Request.Context(), userID, c.Param("id"), kind); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// Upload accepts a multipart media file, streams it to the backend, and
// registers the resulting record.
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	rec, err := h.uploads.UploadMedia(c.Request.Context(), userID, fh.Filename, contentType, fh.Size, f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}
