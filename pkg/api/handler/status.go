package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/workflow-master/core/pkg/api/dto"
)

// StatusHandler 处理GET /status
type StatusHandler struct {
	ctrl ProcessController
}

// NewStatusHandler 创建StatusHandler
func NewStatusHandler(ctrl ProcessController) *StatusHandler {
	return &StatusHandler{ctrl: ctrl}
}

// Get GET /status
func (h *StatusHandler) Get(c *gin.Context) {
	s := h.ctrl.Status()
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ClusterStatusResponse{
		Host:            s.Host,
		StartedAt:       s.StartedAt,
		UptimeSeconds:   int64(time.Since(s.StartedAt).Seconds()),
		ActiveProcesses: s.ActiveProcesses,
	}))
}
