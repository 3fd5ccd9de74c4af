package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"userperf/internal/aggregate"
	"userperf/internal/export"
)

// columnQueryPrefix 按列筛选的查询参数前缀，如 col.NAME=alice
const columnQueryPrefix = "col."

// MetricsResponse 指标响应
type MetricsResponse struct {
	aggregate.Metrics
	QualityRateLabel string           `json:"qualityRateLabel"`
	Cards            []aggregate.Card `json:"cards"`
}

// TableResponse 表格视图 + 合计
type TableResponse struct {
	export.Table
	Totals export.Totals `json:"totals"`
}

// ListSheets 可选 Sheet 列表
// GET /api/sheets
func (h *Handler) ListSheets(c *gin.Context) {
	success(c, h.svc.AvailableSheets())
}

// GetSummaries 全部汇总视图
// GET /api/summaries
func (h *Handler) GetSummaries(c *gin.Context) {
	success(c, h.svc.Summaries())
}

// GetMetrics 顶部指标
// GET /api/metrics
func (h *Handler) GetMetrics(c *gin.Context) {
	m := h.svc.Metrics()
	success(c, MetricsResponse{
		Metrics:          m,
		QualityRateLabel: m.QualityRateLabel(),
		Cards:            m.Cards(),
	})
}

// ListRows 表格视图（默认原始生产数据），支持 q 搜索与 col.* 列筛选
// GET /api/rows?view=raw&q=alice
func (h *Handler) ListRows(c *gin.Context) {
	view := c.DefaultQuery("view", export.ViewRaw)
	t, err := h.table(c, view)
	if err != nil {
		failWith(c, err)
		return
	}
	success(c, TableResponse{
		Table:  t,
		Totals: export.ComputeTotals(t.Headers, t.Rows),
	})
}

// table 构建视图并应用请求中的筛选条件
func (h *Handler) table(c *gin.Context, view string) (export.Table, error) {
	t, err := export.BuildTable(view, h.svc.Summaries(), h.svc.Rows())
	if err != nil {
		return export.Table{}, err
	}
	return filterFromQuery(c).Apply(t), nil
}

func filterFromQuery(c *gin.Context) export.Filter {
	f := export.Filter{Search: c.Query("q")}
	for key, values := range c.Request.URL.Query() {
		col, ok := strings.CutPrefix(key, columnQueryPrefix)
		if !ok || col == "" {
			continue
		}
		if f.Columns == nil {
			f.Columns = make(map[string][]string)
		}
		f.Columns[col] = values
	}
	return f
}
