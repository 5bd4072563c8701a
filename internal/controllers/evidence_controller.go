package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/secdesk/backend/internal/logger"
	"github.com/secdesk/backend/internal/middleware"
	"github.com/secdesk/backend/internal/storage"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 1 << 20

type EvidenceController struct {
	evidence storage.EvidenceStore
	maxBytes int64
}

func NewEvidenceController(evidence storage.EvidenceStore, maxBytes int64) *EvidenceController {
	return &EvidenceController{evidence: evidence, maxBytes: maxBytes}
}

// UploadEvidence stores one attachment and returns its URL. The URL is then
// sent back in the evidenceUrls list of a new incident.
func (ec *EvidenceController) UploadEvidence(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, err, "User not authenticated")
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ec.maxBytes+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ec.tooLarge(c)
			return
		}
		respondBadRequest(c, "No file uploaded", nil)
		return
	}
	if file.Size > ec.maxBytes {
		ec.tooLarge(c)
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, err, "Failed to read uploaded file")
		return
	}
	defer src.Close()

	url, err := ec.evidence.Save(c.Request.Context(), file.Filename, src)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			ec.tooLarge(c)
			return
		}
		respondError(c, err, "Failed to save file")
		return
	}

	logger.WithUser(userID).WithField("url", url).Info("Evidence uploaded")

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "File uploaded successfully",
		"data":    gin.H{"url": url},
	})
}

func (ec *EvidenceController) tooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"success": false,
		"message": "File exceeds the upload size limit",
	})
}
