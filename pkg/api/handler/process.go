package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/workflow-master/core/pkg/api/dto"
)

// ProcessHandler 处理 POST /processes/:id/pause|resume|stop
type ProcessHandler struct {
	ctrl ProcessController
}

// NewProcessHandler 创建ProcessHandler
func NewProcessHandler(ctrl ProcessController) *ProcessHandler {
	return &ProcessHandler{ctrl: ctrl}
}

func (h *ProcessHandler) id(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(400, fmt.Sprintf("无效的processInstanceId: %v", err)))
		return 0, false
	}
	return id, true
}

// Pause POST /processes/:id/pause
func (h *ProcessHandler) Pause(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	if err := h.ctrl.Pause(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ProcessActionResponse{ProcessInstanceID: id, Action: "pause"}))
}

// Resume POST /processes/:id/resume
func (h *ProcessHandler) Resume(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	if err := h.ctrl.Resume(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ProcessActionResponse{ProcessInstanceID: id, Action: "resume"}))
}

// Stop POST /processes/:id/stop
func (h *ProcessHandler) Stop(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	if err := h.ctrl.Stop(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(500, err.Error()))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ProcessActionResponse{ProcessInstanceID: id, Action: "stop"}))
}

// Progress GET /processes/:id/progress；ProcessInstance不在本机运行时返回404
func (h *ProcessHandler) Progress(c *gin.Context) {
	id, ok := h.id(c)
	if !ok {
		return
	}
	snap, found := h.ctrl.Progress(id)
	if !found {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(404, fmt.Sprintf("ProcessInstance(%d)未在本机运行", id)))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ProcessProgressResponse{
		ProcessInstanceID: id,
		Total:             snap.Total,
		Completed:         snap.Completed,
		Running:           snap.Running,
		Failed:            snap.Failed,
		Pending:           snap.Pending,
		RunningTaskIDs:    snap.RunningTaskIDs,
		PendingTaskIDs:    snap.PendingTaskIDs,
	}))
}
