package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Storage        string      `json:"storage"`        // sqlite3 / postgres / memory
	Stats          model.Stats `json:"stats"`          // 记录概况
	LastImportTime string      `json:"lastImportTime"` // 最后导入时间
	LastImportFile string      `json:"lastImportFile"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.svc.Stats(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := StatusResponse{
		Storage: h.storage.Driver(),
		Stats:   stats,
	}
	if logs, err := h.storage.ListImportLogs(ctx, 1); err == nil && len(logs) > 0 {
		resp.LastImportTime = logs[0].StartedAt.Format("2006-01-02 15:04:05")
		resp.LastImportFile = logs[0].Filename
	}
	c.JSON(http.StatusOK, resp)
}

// Health 健康检查，存储不可达时返回 503
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("storage", h.storage.Driver()).Msg("storage ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "storage": h.storage.Driver()})
}
