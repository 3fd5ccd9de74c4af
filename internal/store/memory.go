package store

import (
	"context"
	"sync"

	"userperf/internal/model"
)

// MemoryStore 内存存储（开发模式与测试使用，不落盘）
type MemoryStore struct {
	mu        sync.RWMutex
	projects  []model.Project
	selection model.Selection
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(seed ...model.Project) *MemoryStore {
	return &MemoryStore{projects: append([]model.Project(nil), seed...)}
}

// Load 返回项目副本
func (s *MemoryStore) Load(_ context.Context) ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Project(nil), s.projects...), nil
}

// Save 整体替换
func (s *MemoryStore) Save(_ context.Context, projects []model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append([]model.Project(nil), projects...)
	return nil
}

// LoadSelection 读取选择状态
func (s *MemoryStore) LoadSelection(_ context.Context) (model.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection, nil
}

// SaveSelection 保存选择状态
func (s *MemoryStore) SaveSelection(_ context.Context, sel model.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = sel
	return nil
}

// Close 无需释放资源
func (s *MemoryStore) Close() error {
	return nil
}
