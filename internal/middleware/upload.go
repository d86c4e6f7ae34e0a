package middleware

import (
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/services"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/upload"
)

// inspectedFileKey and inspectionContextKey are the gin.Context keys the
// inspection middleware stashes its results under, replacing the original
// request-thread-local with an explicit, request-scoped value (spec.md §9:
// do not port the thread-local).
const (
	inspectedFileKey     = "upload_inspected_file"
	inspectionContextKey = "upload_inspection_context"
)

// FileUploadInspection is the inbound boundary hook of spec.md §6: it
// reads the named multipart field into an UploadedFile, runs it through
// the full pipeline, and stashes the verdict on the gin.Context for the
// handler and the downstream "validator hook" to read. Blocked files never
// reach the handler — the original's InMemoryUploadedFile replacement with
// a 1-byte buffer becomes an early abort with ErrUploadBlocked, since a Go
// handler can simply decline to read request.FILES rather than needing a
// substitute object.
func FileUploadInspection(formField string, cfg upload.UploadConfig, deps upload.Deps, audit *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, header, err := c.Request.FormFile(formField)
		if err != nil {
			c.Next()
			return
		}
		defer fileHeader.Close()

		content, err := io.ReadAll(fileHeader)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
			return
		}

		declared := upload.Declared{
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
		}

		if mediaType, params, err := mime.ParseMediaType(declared.ContentType); err == nil {
			declared.ContentType = mediaType
			declared.Charset = params["charset"]
			declared.ContentTypeExtra = params
		}

		f := upload.NewUploadedFile(header.Filename, content, declared)

		var insCtx upload.InspectionContext
		upload.Inspect(c.Request.Context(), f, cfg, &insCtx, deps)

		c.Set(inspectedFileKey, f)
		c.Set(inspectionContextKey, &insCtx)

		logUploadAudit(c, audit, f)

		if f.Blocked {
			logrus.WithFields(logrus.Fields{
				"file":    f.OriginalName,
				"reasons": f.BlockReasons,
			}).Warn("upload: rejecting blocked file")

			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
				"error":         insCtx.Err().Error(),
				"block_reasons": f.BlockReasons,
			})
			return
		}

		c.Next()
	}
}

// logUploadAudit records the pipeline's verdict as an audit event. A nil
// audit service (e.g. in tests) is a no-op.
func logUploadAudit(c *gin.Context, audit *services.AuditService, f *upload.UploadedFile) {
	if audit == nil {
		return
	}

	status := "success"
	if f.Blocked {
		status = "blocked"
	}

	var userID *uuid.UUID
	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(uuid.UUID); ok {
			userID = &id
		}
	}

	event := &services.AuditEvent{
		UserID:       userID,
		Action:       "file.upload",
		ResourceType: "file",
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Status:       status,
		Details: map[string]interface{}{
			"filename":      f.OriginalName,
			"block_reasons": f.BlockReasons,
			"guessed_mime":  f.Detection.GuessedMime,
		},
	}

	if err := audit.LogEvent(c.Request.Context(), event); err != nil {
		logrus.WithError(err).Warn("upload: failed to record audit event")
	}
}

// InspectedFile retrieves the pipeline's verdict for the current request,
// the "validator hook" of spec.md §6 translated into an explicit lookup
// instead of a thread-local read.
func InspectedFile(c *gin.Context) (*upload.UploadedFile, bool) {
	v, ok := c.Get(inspectedFileKey)
	if !ok {
		return nil, false
	}
	f, ok := v.(*upload.UploadedFile)
	return f, ok
}
