package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userperf/internal/export"
)

const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"

	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Export 导出视图（CSV 或 XLSX），同样支持 q 与 col.* 筛选
// GET /api/export/:view?format=csv
func (h *Handler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", formatCSV)
	if format != formatCSV && format != formatXLSX {
		errorResponse(c, http.StatusBadRequest, fmt.Sprintf("unsupported format: %s", format))
		return
	}

	t, err := h.table(c, c.Param("view"))
	if err != nil {
		failWith(c, err)
		return
	}

	var buf bytes.Buffer
	contentType := contentTypeCSV
	switch format {
	case formatXLSX:
		contentType = contentTypeXLSX
		err = export.WriteXLSX(&buf, t)
	default:
		err = export.WriteCSV(&buf, t)
	}
	if err != nil {
		h.logger.Error("导出失败", zap.String("view", c.Param("view")), zap.String("format", format), zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "export failed")
		return
	}

	filename := export.FileName(t.Title, format, h.now())
	h.logger.Info("导出视图", zap.String("file", filename), zap.Int("rows", len(t.Rows)))
	c.Header("Content-Disposition", export.ContentDisposition(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
