package project

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"userperf/internal/model"
	"userperf/internal/parser"
)

// Manager 项目管理器：维护项目列表并在每次变更后整体持久化
type Manager struct {
	store  model.ProjectStore
	logger *zap.Logger

	now       func() time.Time
	pickColor func() string

	mu       sync.RWMutex
	projects []model.Project
}

// NewManager 创建项目管理器并加载已保存的项目
func NewManager(ctx context.Context, store model.ProjectStore, logger *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidProject)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		pickColor: func() string {
			return Palette[rand.IntN(len(Palette))]
		},
	}

	projects, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	m.projects = projects
	logger.Info("项目加载完成", zap.Int("count", len(projects)))
	return m, nil
}

// List 返回项目列表副本
func (m *Manager) List() []model.Project {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Project(nil), m.projects...)
}

// ListByCategory 按类别列出
func (m *Manager) ListByCategory(category model.Category) []model.Project {
	var out []model.Project
	for _, p := range m.List() {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Get 按 ID 查找
func (m *Manager) Get(id string) (model.Project, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexLocked(id)
	if i < 0 {
		return model.Project{}, false
	}
	return m.projects[i], true
}

// Count 项目数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.projects)
}

// Create 创建项目
func (m *Manager) Create(ctx context.Context, in CreateInput) (model.Project, error) {
	name := strings.TrimSpace(in.Name)
	sid := parser.ExtractSpreadsheetID(in.Spreadsheet)
	if err := requireNonEmptyString(name, "name is required"); err != nil {
		return model.Project{}, err
	}
	if err := requireNonEmptyString(sid, "spreadsheet is required"); err != nil {
		return model.Project{}, err
	}
	if !in.Category.Valid() {
		return model.Project{}, fmt.Errorf("%w: unknown category %q", ErrInvalidProject, in.Category)
	}

	now := m.now()
	p := model.Project{
		ID:            uuid.NewString(),
		Name:          name,
		SpreadsheetID: sid,
		Category:      in.Category,
		CustomSheets:  strings.TrimSpace(in.CustomSheets),
		Color:         m.pickColor(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := append(append([]model.Project(nil), m.projects...), p)
	if err := m.commitLocked(ctx, next); err != nil {
		return model.Project{}, err
	}
	m.logger.Info("项目已创建", zap.String("id", p.ID), zap.String("name", p.Name), zap.String("category", string(p.Category)))
	return p, nil
}

// Update 更新项目；类别不可修改
func (m *Manager) Update(ctx context.Context, id string, in UpdateInput) (model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return model.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	p := m.projects[i]

	if in.Category != nil && *in.Category != p.Category {
		return model.Project{}, ErrCategoryImmutable
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := requireNonEmptyString(name, "name is required"); err != nil {
			return model.Project{}, err
		}
		p.Name = name
	}
	if in.Spreadsheet != nil {
		sid := parser.ExtractSpreadsheetID(*in.Spreadsheet)
		if err := requireNonEmptyString(sid, "spreadsheet is required"); err != nil {
			return model.Project{}, err
		}
		p.SpreadsheetID = sid
	}
	if in.CustomSheets != nil {
		p.CustomSheets = strings.TrimSpace(*in.CustomSheets)
	}
	p.UpdatedAt = m.now()

	next := append([]model.Project(nil), m.projects...)
	next[i] = p
	if err := m.commitLocked(ctx, next); err != nil {
		return model.Project{}, err
	}
	m.logger.Info("项目已更新", zap.String("id", p.ID))
	return p, nil
}

// Delete 删除项目
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	next := make([]model.Project, 0, len(m.projects)-1)
	next = append(next, m.projects[:i]...)
	next = append(next, m.projects[i+1:]...)
	if err := m.commitLocked(ctx, next); err != nil {
		return err
	}
	m.logger.Info("项目已删除", zap.String("id", id))
	return nil
}

// commitLocked 先持久化，成功后再替换内存列表
func (m *Manager) commitLocked(ctx context.Context, next []model.Project) error {
	if err := m.store.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to save projects: %w", err)
	}
	m.projects = next
	return nil
}

func (m *Manager) indexLocked(id string) int {
	for i, p := range m.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func requireNonEmptyString(value string, message string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrInvalidProject, message)
	}
	return nil
}
