// Package api 组装gin路由：GET /status、POST /processes/:id/{pause,resume,stop}、GET /processes/:id/progress
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/workflow-master/core/pkg/api/handler"
)

// NewRouter 构造控制面的gin.Engine
func NewRouter(ctrl handler.ProcessController) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	statusHandler := handler.NewStatusHandler(ctrl)
	processHandler := handler.NewProcessHandler(ctrl)

	r.GET("/status", statusHandler.Get)
	processes := r.Group("/processes/:id")
	processes.POST("/pause", processHandler.Pause)
	processes.POST("/resume", processHandler.Resume)
	processes.POST("/stop", processHandler.Stop)
	processes.GET("/progress", processHandler.Progress)

	return r
}
