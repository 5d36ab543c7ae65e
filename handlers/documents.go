package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"tradocs/middleware"
	"tradocs/services/daterange"
	"tradocs/services/document"
	"tradocs/services/status"
	"tradocs/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single document upload.
const maxUploadBytes = 25 << 20

func documentError(c *gin.Context, err error) {
	var verr *document.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONError(c, http.StatusBadRequest, "Validation failed", verr.Error())
	case errors.Is(err, document.ErrNotFound), errors.Is(err, document.ErrFolderNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, document.ErrForbidden):
		utils.JSONError(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, document.ErrNoTranslation):
		utils.JSONError(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, document.ErrNotDraft),
		errors.Is(err, document.ErrNotPaid),
		errors.Is(err, document.ErrInvalidTransition),
		errors.Is(err, document.ErrVerificationPending),
		errors.Is(err, document.ErrFolderExists),
		errors.Is(err, document.ErrFolderCycle):
		utils.JSONError(c, http.StatusConflict, err.Error(), "")
	default:
		internalError(c, "Document request failed", err)
	}
}

// listQuery builds a document listing query from ?folderId=&status=&search=&preset=&start=&end=.
// Without any date parameters the listing is unbounded.
func (h *HandlerBundle) listQuery(c *gin.Context) (document.ListQuery, bool) {
	q := document.ListQuery{Search: c.Query("search"), UserID: c.Query("userId")}
	if folderID, ok := c.GetQuery("folderId"); ok {
		q.FolderID = &folderID
	}
	for _, s := range csvQuery(c, "status") {
		if !status.IsValid(s) {
			utils.JSONError(c, http.StatusBadRequest, "Invalid status filter", s)
			return q, false
		}
		q.Statuses = append(q.Statuses, status.DisplayStatus(s))
	}
	if c.Query("preset") == "" && c.Query("start") == "" && c.Query("end") == "" {
		q.Range = daterange.Range{Preset: daterange.AllTime}
		return q, true
	}
	r, ok := h.dateRange(c)
	q.Range = r
	return q, ok
}

// ListDocumentsHandler handles GET /api/documents.
func (h *HandlerBundle) ListDocumentsHandler(c *gin.Context) {
	q, ok := h.listQuery(c)
	if !ok {
		return
	}
	rows, err := h.Documents.List(c.Request.Context(), actorFrom(c), q)
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": rows, "counts": status.Summarize(rows)})
}

// UploadDocumentHandler handles multipart POST /api/documents with a "file" part.
func (h *HandlerBundle) UploadDocumentHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "file not provided", err.Error())
		return
	}
	if fileHeader.Size > maxUploadBytes {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "File too large", fmt.Sprintf("limit is %d MB", maxUploadBytes>>20))
		return
	}
	var meta document.UploadMeta
	if err := c.ShouldBind(&meta); err != nil {
		badRequest(c, err)
		return
	}
	meta.Filename = fileHeader.Filename
	meta.ContentType = fileHeader.Header.Get("Content-Type")
	meta.SizeBytes = fileHeader.Size

	file, err := fileHeader.Open()
	if err != nil {
		internalError(c, "Failed to read upload", err)
		return
	}
	defer file.Close()

	doc, err := h.Documents.Upload(c.Request.Context(), middleware.CurrentUserID(c), file, meta)
	if err != nil {
		documentError(c, err)
		return
	}
	utils.GetLogger().Info("Document uploaded", zap.String("documentID", doc.ID), zap.String("userID", doc.UserID))
	c.JSON(http.StatusCreated, doc)
}

func (h *HandlerBundle) GetDocumentHandler(c *gin.Context) {
	row, err := h.Documents.Get(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *HandlerBundle) DeleteDocumentHandler(c *gin.Context) {
	if err := h.Documents.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted"})
}

// DownloadDocumentHandler handles GET /api/documents/:id/download?translated=true.
// It answers with a short-lived signed URL rather than streaming the file.
func (h *HandlerBundle) DownloadDocumentHandler(c *gin.Context) {
	translated, _ := strconv.ParseBool(c.Query("translated"))
	url, err := h.Documents.DownloadURL(c.Request.Context(), actorFrom(c), c.Param("id"), translated)
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *HandlerBundle) MoveDocumentHandler(c *gin.Context) {
	var req struct {
		FolderID string `json:"folderId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	doc, err := h.Documents.MoveDocument(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.FolderID)
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DocumentStatsHandler handles GET /api/documents/stats, the customer dashboard cards.
func (h *HandlerBundle) DocumentStatsHandler(c *gin.Context) {
	stats, err := h.Finance.CustomerStats(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		internalError(c, "Failed to compute document stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Folders

func (h *HandlerBundle) ListFoldersHandler(c *gin.Context) {
	folders, err := h.Documents.ListFolders(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, folders)
}

func (h *HandlerBundle) CreateFolderHandler(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required,max=100"`
		ParentID string `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	folder, err := h.Documents.CreateFolder(c.Request.Context(), middleware.CurrentUserID(c), req.Name, req.ParentID)
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func (h *HandlerBundle) UpdateFolderHandler(c *gin.Context) {
	var req document.FolderUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	folder, err := h.Documents.UpdateFolder(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req)
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, folder)
}

// DeleteFolderHandler removes a folder. Its documents move to the root.
func (h *HandlerBundle) DeleteFolderHandler(c *gin.Context) {
	if err := h.Documents.DeleteFolder(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Folder deleted"})
}

// Staff workflow

func (h *HandlerBundle) UpdateDocumentStatusHandler(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,docstatus"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	doc, err := h.Documents.UpdateStatus(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), req.Status)
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// SubmitTranslationHandler handles multipart POST /api/admin/documents/:id/translation.
func (h *HandlerBundle) SubmitTranslationHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "file not provided", err.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		internalError(c, "Failed to read upload", err)
		return
	}
	defer file.Close()

	row, err := h.Documents.SubmitTranslation(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), file, fileHeader.Filename)
	if err != nil {
		documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
