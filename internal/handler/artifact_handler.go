package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/traincamp-api/pkg/errors"
	"github.com/noah-isme/traincamp-api/pkg/response"
	"github.com/noah-isme/traincamp-api/pkg/storage"
)

// ArtifactHandler accepts artifact uploads and serves downloads through
// signed tokens. Uploads return an absolute signed URL the student can
// place in a submission's artifact_refs.
type ArtifactHandler struct {
	storage        *storage.LocalStorage
	signer         *storage.SignedURLSigner
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewArtifactHandler creates a new handler.
func NewArtifactHandler(store *storage.LocalStorage, signer *storage.SignedURLSigner, maxUploadBytes int64, logger *zap.Logger) *ArtifactHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactHandler{storage: store, signer: signer, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Upload godoc
// @Summary Upload a submission artifact
// @Tags Artifacts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Artifact file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /artifacts [post]
func (h *ArtifactHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file field required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	relPath, err := h.storage.SaveArtifact(claims.UserID, fileHeader.Filename, file)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store artifact"))
		return
	}

	token, expiresAt, err := h.signer.Generate(claims.UserID, relPath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign artifact url"))
		return
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	url := scheme + "://" + c.Request.Host + "/api/v1/artifacts/" + token

	h.logger.Info("artifact uploaded",
		zap.String("owner_id", claims.UserID),
		zap.String("path", relPath),
		zap.Int64("size", fileHeader.Size))

	response.Created(c, gin.H{"url": url, "expires_at": expiresAt})
}

// Download godoc
// @Summary Download an artifact through its signed token
// @Tags Artifacts
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /artifacts/{token} [get]
func (h *ArtifactHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.signer.Parse(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired artifact link"))
		return
	}

	file, err := h.storage.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "artifact not found"))
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := mime.TypeByExtension(filepath.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", "attachment; filename="+filepath.Base(relPath))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		h.logger.Warn("artifact stream interrupted", zap.String("path", relPath), zap.Error(err))
	}
}
