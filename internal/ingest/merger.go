package ingest

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"userperf/internal/model"
	"userperf/internal/parser"
	"userperf/internal/sheets"
)

// DefaultConcurrency 同时进行的 Sheet 拉取上限
const DefaultConcurrency = 8

// ProjectSource 按 ID 查找项目
type ProjectSource interface {
	Get(id string) (model.Project, bool)
}

// Published 当前发布的统一行集合（整体替换）
type Published struct {
	mu   sync.RWMutex
	rows model.RowSet
	gen  uint64
}

// Snapshot 返回当前行集合及其代号
func (p *Published) Snapshot() (model.RowSet, uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rows, p.gen
}

// Merger 并发拉取所选 Sheet 并合并为统一行集合
// 每次调用领取一个代号，只有完成时仍是最新代号才发布结果
type Merger struct {
	fetcher     sheets.Fetcher
	projects    ProjectSource
	logger      *zap.Logger
	concurrency int

	latest   atomic.Uint64
	inFlight atomic.Int32

	pubMu     sync.Mutex
	published *Published
}

// NewMerger 创建合并器
func NewMerger(fetcher sheets.Fetcher, projects ProjectSource, concurrency int, logger *zap.Logger) *Merger {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{
		fetcher:     fetcher,
		projects:    projects,
		logger:      logger,
		concurrency: concurrency,
		published:   &Published{},
	}
}

// Published 发布视图
func (m *Merger) Published() *Published {
	return m.published
}

// Loading 是否有合并正在进行
func (m *Merger) Loading() bool {
	return m.inFlight.Load() > 0
}

// Merge 拉取、解析、规范化所有选中的 Sheet 并合并
// 返回合并结果以及是否已发布（被更新的调用取代或 ctx 已取消时不发布）
func (m *Merger) Merge(ctx context.Context, selections []model.SheetRef) (model.RowSet, bool) {
	gen := m.latest.Add(1)
	m.inFlight.Add(1)
	defer m.inFlight.Add(-1)

	results := make([]model.RowSet, len(selections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, sel := range selections {
		i, sel := i, sel
		g.Go(func() error {
			results[i] = m.loadSheet(gctx, sel)
			return nil
		})
	}
	_ = g.Wait()

	var merged model.RowSet
	for _, rs := range results {
		merged = append(merged, rs...)
	}

	// 已取消的合并中失败的拉取不代表数据为空，不能发布
	if err := ctx.Err(); err != nil {
		m.logger.Warn("合并已取消，不发布",
			zap.Uint64("generation", gen),
			zap.Error(err))
		return merged, false
	}
	if !m.publish(gen, merged) {
		m.logger.Debug("合并结果已过期，丢弃",
			zap.Uint64("generation", gen),
			zap.Uint64("latest", m.latest.Load()))
		return merged, false
	}
	m.logger.Info("数据合并完成",
		zap.Uint64("generation", gen),
		zap.Int("sheets", len(selections)),
		zap.Int("rows", len(merged)))
	return merged, true
}

func (m *Merger) publish(gen uint64, rows model.RowSet) bool {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	if gen != m.latest.Load() {
		return false
	}
	m.published.mu.Lock()
	m.published.rows = rows
	m.published.gen = gen
	m.published.mu.Unlock()
	return true
}

// loadSheet 拉取单个 Sheet；任何失败都返回空结果
func (m *Merger) loadSheet(ctx context.Context, sel model.SheetRef) model.RowSet {
	project, ok := m.projects.Get(sel.ProjectID)
	if !ok {
		m.logger.Warn("选中的 Sheet 所属项目不存在", zap.String("sheet", sel.ID()))
		return nil
	}

	text, err := m.fetcher.FetchCSV(ctx, project.SpreadsheetID, sel.SheetName)
	if err != nil {
		m.logger.Warn("Sheet 拉取失败",
			zap.String("project", project.Name),
			zap.String("sheet", sel.SheetName),
			zap.Error(err))
		return nil
	}

	prov := model.Provenance{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Category:    project.Category,
		SheetName:   sel.SheetName,
	}
	rows := parser.ParseCSV(text)
	out := make(model.RowSet, 0, len(rows))
	for _, row := range rows {
		normalizeDates(&row)
		out = append(out, model.Record{Provenance: prov, Row: row})
	}
	return out
}

// normalizeDates 对日期列逐格规范化
func normalizeDates(row *model.Row) {
	for _, h := range row.Headers() {
		if !parser.IsDateHeader(h) {
			continue
		}
		row.Set(h, model.ParseValue(parser.NormalizeDate(row.Get(h).String())))
	}
}
