package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EugeneSatt/VKP-Table/internal/exporter"
	"github.com/EugeneSatt/VKP-Table/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BulkRequest 批量写入请求
type BulkRequest struct {
	Entries []model.PlanRecord `json:"entries"`
}

// CreateArticleRequest 新建物料请求
type CreateArticleRequest struct {
	Article string               `json:"article"`
	Entries []model.ArticleEntry `json:"entries"`
}

// GetSchedule 获取计划矩阵
// GET /api/schedule?startDate=YYYY-MM-DD&days=30
func (h *Handler) GetSchedule(c *gin.Context) {
	start, days, err := h.svc.ResolveRange(c.Query("startDate"), c.Query("days"))
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := h.svc.Matrix(c.Request.Context(), start, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// GetRaw 获取区间内的原始记录
// GET /api/schedule/raw
func (h *Handler) GetRaw(c *gin.Context) {
	start, days, err := h.svc.ResolveRange(c.Query("startDate"), c.Query("days"))
	if err != nil {
		respondError(c, err)
		return
	}

	records, err := h.svc.Raw(c.Request.Context(), start, days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// BulkUpsert 批量写入
// POST /api/schedule/bulk
func (h *Handler) BulkUpsert(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	n, err := h.svc.BulkUpsert(c.Request.Context(), req.Entries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "upserted": n})
}

// RenameArticle 物料改名
// POST /api/schedule/rename-article
func (h *Handler) RenameArticle(c *gin.Context) {
	var req model.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	res, err := h.svc.RenameArticle(c.Request.Context(), req.OldArticle, req.NewArticle)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "renamed", "updated": res.Updated})
}

// CreateArticle 新建物料及其数量
// POST /api/schedule/articles
func (h *Handler) CreateArticle(c *gin.Context) {
	var req CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return
	}

	n, err := h.svc.CreateArticle(c.Request.Context(), req.Article, req.Entries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "upserted": n})
}

// Export 导出计划矩阵为 xlsx
// GET /api/schedule/export
func (h *Handler) Export(c *gin.Context) {
	start, days, err := h.svc.ResolveRange(c.Query("startDate"), c.Query("days"))
	if err != nil {
		respondError(c, err)
		return
	}

	m, err := h.svc.Matrix(c.Request.Context(), start, days)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := exporter.WriteMatrix(m, h.opts.Layout)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+exporter.Filename(m)+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
