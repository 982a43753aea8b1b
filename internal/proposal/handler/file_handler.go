package handler

import (
	"io"
	"mime"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/service"
	"github.com/gin-gonic/gin"
)

// MaxFileSize 单文件上限 5MB
const MaxFileSize = 5 << 20

// 允许的文档格式。校验在任何存储写入之前完成。
var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
}

// FileHandler 附件处理器
type FileHandler struct {
	svc *service.FileService
}

// NewFileHandler 创建附件处理器
func NewFileHandler(svc *service.FileService) *FileHandler {
	return &FileHandler{svc: svc}
}

// Upload 上传文档
// POST /proposals/:id/files/:documentType
func (h *FileHandler) Upload(c *gin.Context) {
	proposalID := c.Param("id")
	docType := c.Param("documentType")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "File is required: "+err.Error())
		return
	}
	defer file.Close()

	if header.Size > MaxFileSize {
		BadRequest(c, "File exceeds the 5MB size limit")
		return
	}

	// MIME类型是判定依据；扩展名只在客户端没报Content-Type时兜底
	contentType := header.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowed := allowedMimeTypes[contentType]
	if contentType == "" {
		allowed = allowedExtensions[ext]
		contentType = "application/octet-stream"
	}
	if !allowed {
		BadRequest(c, "File type not allowed: only PDF, DOC/DOCX and XLS/XLSX are accepted")
		return
	}

	entry, err := h.svc.AttachFile(c.Request.Context(), proposalID, docType, GetUserID(c), file, header.Size, header.Filename, contentType)
	if err != nil {
		HandleError(c, err)
		return
	}

	Created(c, entry)
}

// Download 下载文档
// GET /proposals/:id/files/:documentType
func (h *FileHandler) Download(c *gin.Context) {
	proposalID := c.Param("id")
	docType := c.Param("documentType")

	reader, entry, err := h.svc.ResolveFile(c.Request.Context(), proposalID, docType)
	if err != nil {
		HandleError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": entry.OriginalName,
	}))
	c.Header("Content-Type", entry.MimeType)
	c.Header("Content-Length", strconv.FormatInt(entry.Size, 10))

	io.Copy(c.Writer, reader)
}

// Delete 删除单个文档
// DELETE /proposals/:id/files/:documentType
func (h *FileHandler) Delete(c *gin.Context) {
	proposalID := c.Param("id")
	docType := c.Param("documentType")

	if err := h.svc.RemoveFile(c.Request.Context(), proposalID, docType); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, nil)
}
