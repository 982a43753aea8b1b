package handler

import (
	"errors"
	"strconv"

	"github.com/RaymundGerardReyes/CEDO-Event-Proposal-Management-System-sub003/internal/proposal/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Proposal *ProposalHandler
	File     *FileHandler
	Admin    *AdminHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Proposal: NewProposalHandler(svc.Proposal, svc.Compliance, svc.Query, svc.Audit),
		File:     NewFileHandler(svc.File),
		Admin:    NewAdminHandler(svc.Compliance),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 状态冲突响应，携带权威的当前状态供调用方重新同步
func Conflict(c *gin.Context, message, currentStatus string) {
	c.JSON(409, Response{
		Code:    40900,
		Message: message,
		Data:    gin.H{"current_status": currentStatus},
	})
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleError 服务层错误到HTTP的统一映射。
// 存储错误不向外泄露内部细节。
func HandleError(c *gin.Context, err error) {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
		ce *service.ConflictError
		ae *service.AuthorizationError
		se *service.StorageError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(400, Response{
			Code:    40000,
			Message: ve.Msg,
			Data:    gin.H{"fields": ve.Fields},
		})
	case errors.As(err, &nf):
		c.JSON(404, Response{
			Code:    40400,
			Message: nf.Error(),
			Data:    gin.H{"resource": nf.Resource},
		})
	case errors.As(err, &ce):
		Conflict(c, ce.Msg, ce.CurrentStatus)
	case errors.As(err, &ae):
		Forbidden(c, ae.Error())
	case errors.As(err, &se):
		InternalError(c, "storage operation failed")
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetUserRole 从上下文获取用户角色
func GetUserRole(c *gin.Context) string {
	role, _ := c.Get("role")
	if r, ok := role.(string); ok {
		return r
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
