package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"userperf/internal/aggregate"
	"userperf/internal/discovery"
	"userperf/internal/ingest"
	"userperf/internal/model"
	"userperf/internal/service/project"
)

var (
	// ErrCategoryMismatch 项目类别与选择槽位不符
	ErrCategoryMismatch = errors.New("project category mismatch")
	// ErrUnknownSheet 选中的 Sheet 不在可用列表中
	ErrUnknownSheet = errors.New("unknown sheet")
)

// SheetOption 可选 Sheet
type SheetOption struct {
	ID          string         `json:"id"`
	ProjectID   string         `json:"projectId"`
	ProjectName string         `json:"projectName"`
	Category    model.Category `json:"category"`
	Color       string         `json:"color"`
	SheetName   string         `json:"sheetName"`
}

// Status 运行状态
type Status struct {
	Projects   int    `json:"projects"`
	Generation uint64 `json:"generation"`
	Rows       int    `json:"rows"`
	Loading    bool   `json:"loading"`
}

// Service 仪表盘服务：选择状态 -> Sheet 发现 -> 合并 -> 汇总
type Service struct {
	projects   *project.Manager
	discoverer *discovery.Discoverer
	merger     *ingest.Merger
	engine     *aggregate.Engine
	selections model.SelectionStore
	logger     *zap.Logger

	mu           sync.RWMutex
	sel          model.Selection
	available    []model.SheetRef
	discoverySeq uint64

	cacheMu sync.Mutex
	cache   *viewCache
}

type viewCache struct {
	gen       uint64
	summaries aggregate.Summaries
	metrics   aggregate.Metrics
}

// New 创建仪表盘服务
func New(projects *project.Manager, discoverer *discovery.Discoverer, merger *ingest.Merger, engine *aggregate.Engine, selections model.SelectionStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		projects:   projects,
		discoverer: discoverer,
		merger:     merger,
		engine:     engine,
		selections: selections,
		logger:     logger,
	}
}

// Projects 项目管理器
func (s *Service) Projects() *project.Manager {
	return s.projects
}

// Restore 恢复上次保存的选择并重新加载数据
func (s *Service) Restore(ctx context.Context) error {
	if s.selections == nil {
		return nil
	}
	sel, err := s.selections.LoadSelection(ctx)
	if err != nil {
		return fmt.Errorf("failed to load selection: %w", err)
	}
	sel.ProductionProjects = s.keepExisting(sel.ProductionProjects, model.CategoryProduction)
	sel.HourlyProjects = s.keepExisting(sel.HourlyProjects, model.CategoryHourly)

	s.mu.Lock()
	s.sel = sel
	s.mu.Unlock()

	s.logger.Info("恢复选择状态",
		zap.Int("productionProjects", len(sel.ProductionProjects)),
		zap.Int("hourlyProjects", len(sel.HourlyProjects)),
		zap.Int("sheets", len(sel.Sheets)))
	return s.Refresh(ctx)
}

// Selection 当前选择
func (s *Service) Selection() model.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSelection(s.sel)
}

// SelectProjects 设置选中的生产/考勤项目，重新发现 Sheet 并合并
func (s *Service) SelectProjects(ctx context.Context, production, hourly []string) error {
	prod, err := s.validateProjects(production, model.CategoryProduction)
	if err != nil {
		return err
	}
	hour, err := s.validateProjects(hourly, model.CategoryHourly)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.sel.ProductionProjects = prod
	s.sel.HourlyProjects = hour
	s.mu.Unlock()

	return s.Refresh(ctx)
}

// SelectSheets 设置选中的 Sheet 并合并；返回合并结果是否已发布
func (s *Service) SelectSheets(ctx context.Context, ids []string) (bool, error) {
	s.mu.Lock()
	avail := make(map[string]struct{}, len(s.available))
	for _, ref := range s.available {
		avail[ref.ID()] = struct{}{}
	}
	var sheets []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := model.ParseSheetRefID(id); !ok {
			s.mu.Unlock()
			return false, fmt.Errorf("%w: %s", ErrUnknownSheet, id)
		}
		if _, ok := avail[id]; !ok {
			s.mu.Unlock()
			return false, fmt.Errorf("%w: %s", ErrUnknownSheet, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		sheets = append(sheets, id)
	}
	s.sel.Sheets = sheets
	sel := cloneSelection(s.sel)
	s.mu.Unlock()

	// 请求断开不影响已开始的合并
	ctx = context.WithoutCancel(ctx)
	s.persist(ctx, sel)
	_, published := s.merger.Merge(ctx, sheetRefs(sel.Sheets))
	return published, nil
}

// Refresh 重新发现可用 Sheet、裁剪失效选择并合并
// 有项目发现失败时裁剪只作用于内存，不写回已保存的选择
func (s *Service) Refresh(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	s.discoverySeq++
	seq := s.discoverySeq
	ids := s.sel.ProjectIDs()
	s.mu.Unlock()

	var selected []model.Project
	for _, id := range ids {
		if p, ok := s.projects.Get(id); ok {
			selected = append(selected, p)
		}
	}
	res := s.discoverer.DiscoverAll(ctx, selected)

	s.mu.Lock()
	if seq != s.discoverySeq {
		s.mu.Unlock()
		s.logger.Debug("Sheet 发现结果已过期，丢弃", zap.Uint64("seq", seq))
		return nil
	}
	s.available = res.Refs
	s.sel.Sheets = keepAvailable(s.sel.Sheets, res.Refs)
	sel := cloneSelection(s.sel)
	s.mu.Unlock()

	if len(res.Failed) == 0 {
		s.persist(ctx, sel)
	} else {
		s.logger.Warn("部分项目 Sheet 发现失败，保留已保存的选择", zap.Strings("projects", res.Failed))
	}
	s.merger.Merge(ctx, sheetRefs(sel.Sheets))
	return nil
}

// UpdateProject 更新项目；若项目被选中则重新加载
func (s *Service) UpdateProject(ctx context.Context, id string, in project.UpdateInput) (model.Project, error) {
	p, err := s.projects.Update(ctx, id, in)
	if err != nil {
		return model.Project{}, err
	}
	if s.isSelected(id) {
		if err := s.Refresh(ctx); err != nil {
			return p, err
		}
	}
	return p, nil
}

// DeleteProject 删除项目并移除依赖它的选择
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	selected := s.isSelected(id)

	s.mu.Lock()
	s.sel.ProductionProjects = removeString(s.sel.ProductionProjects, id)
	s.sel.HourlyProjects = removeString(s.sel.HourlyProjects, id)
	s.sel.Sheets = removePrefix(s.sel.Sheets, model.SheetRefPrefix(id))
	s.mu.Unlock()

	if selected {
		return s.Refresh(ctx)
	}
	s.persist(ctx, s.Selection())
	return nil
}

// AvailableSheets 当前可选的 Sheet（按项目顺序）
func (s *Service) AvailableSheets() []SheetOption {
	s.mu.RLock()
	refs := append([]model.SheetRef(nil), s.available...)
	s.mu.RUnlock()

	out := make([]SheetOption, 0, len(refs))
	for _, ref := range refs {
		p, ok := s.projects.Get(ref.ProjectID)
		if !ok {
			continue
		}
		out = append(out, SheetOption{
			ID:          ref.ID(),
			ProjectID:   p.ID,
			ProjectName: p.Name,
			Category:    p.Category,
			Color:       p.Color,
			SheetName:   ref.SheetName,
		})
	}
	return out
}

// Rows 当前发布的统一行集合
func (s *Service) Rows() model.RowSet {
	rows, _ := s.merger.Published().Snapshot()
	return rows
}

// Summaries 汇总视图
func (s *Service) Summaries() aggregate.Summaries {
	return s.views().summaries
}

// Metrics 顶部指标
func (s *Service) Metrics() aggregate.Metrics {
	return s.views().metrics
}

// Status 运行状态
func (s *Service) Status() Status {
	rows, gen := s.merger.Published().Snapshot()
	return Status{
		Projects:   s.projects.Count(),
		Generation: gen,
		Rows:       len(rows),
		Loading:    s.merger.Loading(),
	}
}

// views 按发布代号缓存汇总结果；行集合变化时整体重算
func (s *Service) views() *viewCache {
	rows, gen := s.merger.Published().Snapshot()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cache != nil && s.cache.gen == gen {
		return s.cache
	}
	s.cache = &viewCache{
		gen:       gen,
		summaries: s.engine.Summarize(rows),
		metrics:   s.engine.Metrics(rows),
	}
	return s.cache
}

func (s *Service) validateProjects(ids []string, category model.Category) ([]string, error) {
	var out []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		p, ok := s.projects.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", project.ErrProjectNotFound, id)
		}
		if p.Category != category {
			return nil, fmt.Errorf("%w: %s is %s", ErrCategoryMismatch, id, p.Category)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (s *Service) keepExisting(ids []string, category model.Category) []string {
	var out []string
	for _, id := range ids {
		if p, ok := s.projects.Get(id); ok && p.Category == category {
			out = append(out, id)
		}
	}
	return out
}

func (s *Service) isSelected(id string) bool {
	for _, pid := range s.Selection().ProjectIDs() {
		if pid == id {
			return true
		}
	}
	return false
}

// persist 保存选择状态；失败只记录日志
func (s *Service) persist(ctx context.Context, sel model.Selection) {
	if s.selections == nil {
		return
	}
	if err := s.selections.SaveSelection(context.WithoutCancel(ctx), sel); err != nil {
		s.logger.Warn("保存选择状态失败", zap.Error(err))
	}
}

func sheetRefs(ids []string) []model.SheetRef {
	refs := make([]model.SheetRef, 0, len(ids))
	for _, id := range ids {
		if ref, ok := model.ParseSheetRefID(id); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func keepAvailable(ids []string, refs []model.SheetRef) []string {
	avail := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		avail[r.ID()] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := avail[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func removeString(list []string, v string) []string {
	var out []string
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func removePrefix(list []string, prefix string) []string {
	var out []string
	for _, s := range list {
		if !strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

func cloneSelection(sel model.Selection) model.Selection {
	return model.Selection{
		ProductionProjects: append([]string(nil), sel.ProductionProjects...),
		HourlyProjects:     append([]string(nil), sel.HourlyProjects...),
		Sheets:             append([]string(nil), sel.Sheets...),
	}
}
