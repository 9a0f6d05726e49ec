package drive

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ghostdrive/api/internal/auth"
	"github.com/ghostdrive/api/internal/namespace"
	"github.com/ghostdrive/api/internal/quota"
	"github.com/ghostdrive/api/internal/upload"
)

// RegisterRoutes mounts the storage endpoints under the provided group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}

	folders := group.Group("/folders")
	{
		folders.POST("", handler.createFolder)
		folders.PUT("/:folderID", handler.updateFolder)
		folders.DELETE("/:folderID", handler.deleteFolder)
		folders.GET("/contents", handler.listContents)
		folders.GET("/parent-tree", handler.parentTree)
		folders.GET("/children", handler.listChildren)
		folders.GET("/move-destinations", handler.moveDestinations)
	}

	files := group.Group("/files")
	{
		files.POST("", handler.createFile)
		files.GET("", handler.listFiles)
		files.GET("/search", handler.searchFiles)
		files.GET("/:fileID", handler.getFile)
		files.PUT("/:fileID", handler.updateFile)
		files.DELETE("/:fileID", handler.deleteFile)
	}

	uploads := group.Group("/upload")
	{
		uploads.POST("/upload-url", handler.uploadURL)
		uploads.POST("/upload-multipart-url", handler.initMultipart)
		uploads.POST("/complete-multipart-upload", handler.completeMultipart)
		uploads.POST("/abort-multipart-upload", handler.abortMultipart)
		uploads.GET("/incomplete", handler.listIncomplete)
		uploads.POST("/download-url", handler.downloadURL)
		uploads.POST("/common/upload-url", handler.commonUploadURL)
	}

	group.GET("/storage/usage", handler.usageReport)
}

type httpHandler struct {
	service *Service
}

type createFolderRequest struct {
	Name     string     `json:"name" binding:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type updateFolderRequest struct {
	Name     string     `json:"name" binding:"required"`
	ParentID *uuid.UUID `json:"parent_id"`
}

type createFileRequest struct {
	Name      string     `json:"name" binding:"required"`
	ObjectKey string     `json:"object_key" binding:"required"`
	Size      int64      `json:"size" binding:"min=0"`
	FolderID  *uuid.UUID `json:"folder_id"`
	MimeType  string     `json:"mime_type"`
}

type updateFileRequest struct {
	Name     *string    `json:"name"`
	FolderID *uuid.UUID `json:"folder_id"`
}

type objectKeyRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

type initMultipartRequest struct {
	ObjectKey   string `json:"object_key" binding:"required"`
	TotalChunks int    `json:"total_chunks" binding:"required,min=1"`
}

type completeMultipartRequest struct {
	ObjectKey string        `json:"object_key" binding:"required"`
	UploadID  string        `json:"upload_id" binding:"required"`
	Parts     []upload.Part `json:"parts" binding:"required,min=1"`
}

type abortMultipartRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
	UploadID  string `json:"upload_id" binding:"required"`
}

func (h *httpHandler) createFolder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder, err := h.service.CreateFolder(c.Request.Context(), userID, req.Name, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

func (h *httpHandler) updateFolder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	folderID, err := uuid.Parse(c.Param("folderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id"})
		return
	}

	var req updateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder, err := h.service.UpdateFolder(c.Request.Context(), userID, folderID, req.Name, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, folder)
}

func (h *httpHandler) deleteFolder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	folderID, err := uuid.Parse(c.Param("folderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid folder id"})
		return
	}

	if err := h.service.DeleteFolder(c.Request.Context(), userID, folderID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "folder deleted"})
}

func (h *httpHandler) listContents(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	folderID, ok := optionalUUIDQuery(c, "folder_id")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	contents, err := h.service.ListContents(c.Request.Context(), userID, folderID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, contents)
}

func (h *httpHandler) parentTree(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	folderID, ok := optionalUUIDQuery(c, "folder_id")
	if !ok {
		return
	}

	ancestors, err := h.service.AncestryPath(c.Request.Context(), userID, folderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ancestors": ancestors})
}

func (h *httpHandler) listChildren(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	folderID, ok := optionalUUIDQuery(c, "folder_id")
	if !ok {
		return
	}

	children, err := h.service.ListChildren(c.Request.Context(), userID, folderID)
	if err != nil {
		writeError(c, err)
		return
	}
	if children == nil {
		children = []namespace.Folder{}
	}
	c.JSON(http.StatusOK, gin.H{"folders": children})
}

func (h *httpHandler) moveDestinations(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	itemType := namespace.ItemType(c.Query("type"))
	sourceFolderID, ok := optionalUUIDQuery(c, "source_folder_id")
	if !ok {
		return
	}

	destinations, err := h.service.ListDestinations(c.Request.Context(), userID, itemType, sourceFolderID)
	if err != nil {
		writeError(c, err)
		return
	}
	if destinations == nil {
		destinations = []namespace.Destination{}
	}
	c.JSON(http.StatusOK, gin.H{"destinations": destinations})
}

func (h *httpHandler) createFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := h.service.CreateFile(c.Request.Context(), userID, req.Name, req.ObjectKey, req.Size, req.FolderID, req.MimeType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

func (h *httpHandler) listFiles(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var path *string
	if raw, exists := c.GetQuery("path"); exists {
		path = &raw
	}
	folderID, ok := optionalUUIDQuery(c, "folder_id")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	files, err := h.service.ListFiles(c.Request.Context(), userID, path, folderID, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *httpHandler) searchFiles(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	query := c.Query("q")
	page, limit := pageParams(c)

	files, err := h.service.SearchFiles(c.Request.Context(), userID, query, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *httpHandler) getFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	file, err := h.service.GetFile(c.Request.Context(), userID, fileID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *httpHandler) updateFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := h.service.UpdateFile(c.Request.Context(), userID, fileID, req.Name, req.FolderID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	if err := h.service.DeleteFile(c.Request.Context(), userID, fileID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted"})
}

func (h *httpHandler) uploadURL(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req objectKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.service.UploadURL(c.Request.Context(), userID, req.ObjectKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": u})
}

func (h *httpHandler) initMultipart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req initMultipartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.InitMultipartUpload(c.Request.Context(), userID, req.ObjectKey, req.TotalChunks)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *httpHandler) completeMultipart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req completeMultipartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.service.CompleteMultipartUpload(c.Request.Context(), userID, req.ObjectKey, req.UploadID, req.Parts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (h *httpHandler) abortMultipart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req abortMultipartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.AbortMultipartUpload(c.Request.Context(), userID, req.ObjectKey, req.UploadID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "upload aborted"})
}

func (h *httpHandler) listIncomplete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	uploads, err := h.service.ListIncompleteUploads(c.Request.Context(), userID, c.Query("prefix"))
	if err != nil {
		writeError(c, err)
		return
	}
	if uploads == nil {
		uploads = []upload.IncompleteUpload{}
	}
	c.JSON(http.StatusOK, gin.H{"uploads": uploads})
}

func (h *httpHandler) downloadURL(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req objectKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.service.DownloadURL(c.Request.Context(), userID, req.ObjectKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"download_url": u})
}

func (h *httpHandler) commonUploadURL(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	var req objectKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.service.CommonUploadURL(c.Request.Context(), req.ObjectKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upload_url": u})
}

func (h *httpHandler) usageReport(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	usage, err := h.service.UsageReport(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

func optionalUUIDQuery(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw, exists := c.GetQuery(key)
	if !exists || raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return nil, false
	}
	return &id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

func writeError(c *gin.Context, err error) {
	var cascade *namespace.CascadeError
	if errors.As(err, &cascade) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "folder delete incomplete",
			"deleted": cascade.Deleted,
			"failed":  cascade.Failed,
		})
		return
	}

	switch {
	case errors.Is(err, namespace.ErrNotFound), errors.Is(err, quota.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, namespace.ErrInvalidName),
		errors.Is(err, namespace.ErrInvalidPath),
		errors.Is(err, namespace.ErrInvalidOperation),
		errors.Is(err, upload.ErrInvalidChunkCount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, namespace.ErrCycleDetected):
		c.JSON(http.StatusConflict, gin.H{"error": "cannot move a folder into its own subtree"})
	case errors.Is(err, quota.ErrQuotaExceeded):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "storage quota exceeded"})
	case errors.Is(err, upload.ErrUploadSession), errors.Is(err, namespace.ErrStorageIO):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
