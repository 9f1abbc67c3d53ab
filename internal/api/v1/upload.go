package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EugeneSatt/VKP-Table/internal/importer"
	"github.com/EugeneSatt/VKP-Table/internal/model"
)

// readUpload 读取 multipart 中的 file 字段
func (h *Handler) readUpload(c *gin.Context) (importer.ImportOptions, int, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return importer.ImportOptions{}, http.StatusRequestEntityTooLarge,
				fmt.Errorf("file is too large, limit is %d MB", h.opts.MaxUploadBytes>>20)
		}
		return importer.ImportOptions{}, http.StatusBadRequest, model.Invalidf("file is required")
	}
	if fh.Size > h.opts.MaxUploadBytes {
		return importer.ImportOptions{}, http.StatusRequestEntityTooLarge,
			fmt.Errorf("file is too large, limit is %d MB", h.opts.MaxUploadBytes>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return importer.ImportOptions{}, http.StatusInternalServerError, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return importer.ImportOptions{}, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err)
	}
	return importer.ImportOptions{Filename: filepath.Base(fh.Filename), Data: data}, http.StatusOK, nil
}

// UploadExcel 导入 Excel
// POST /api/schedule/upload-excel
func (h *Handler) UploadExcel(c *gin.Context) {
	opts, status, err := h.readUpload(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	res, err := h.importer.Run(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "imported": res.Inserted})
}

// UploadExcelStream 导入 Excel (SSE 流式响应)
// POST /api/schedule/upload-excel/stream
func (h *Handler) UploadExcelStream(c *gin.Context) {
	opts, status, err := h.readUpload(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming is not supported"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for event := range h.importer.Import(c.Request.Context(), opts) {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListImports 最近的导入日志
// GET /api/schedule/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}

	logs, err := h.storage.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}
