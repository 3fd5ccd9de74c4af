package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"userperf/internal/model"
)

const schemaVersion = 1

// projectsFile 项目索引文件：data/projects.json
type projectsFile struct {
	SchemaVersion int             `json:"schemaVersion"`
	Items         []model.Project `json:"items"`
}

// JSONStore 基于 JSON 文件的存储（原子写入）
type JSONStore struct {
	dir string
	mu  sync.Mutex
}

// NewJSONStore 创建 JSON 文件存储
func NewJSONStore(dir string) (*JSONStore, error) {
	if dir == "" {
		return nil, errors.New("dataDir is required")
	}
	if err := ensureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

func (s *JSONStore) projectsPath() string {
	return filepath.Join(s.dir, "projects.json")
}

func (s *JSONStore) selectionPath() string {
	return filepath.Join(s.dir, "selection.json")
}

// Load 读取项目列表；文件不存在时返回空列表
func (s *JSONStore) Load(_ context.Context) ([]model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.projectsPath()
	if !fileExists(path) {
		return nil, nil
	}
	var f projectsFile
	if err := readJSON(path, &f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return f.Items, nil
}

// Save 整体替换项目列表
func (s *JSONStore) Save(_ context.Context, projects []model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := projects
	if items == nil {
		items = []model.Project{}
	}
	return writeJSONAtomic(s.projectsPath(), projectsFile{SchemaVersion: schemaVersion, Items: items})
}

// LoadSelection 读取选择状态
func (s *JSONStore) LoadSelection(_ context.Context) (model.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sel model.Selection
	path := s.selectionPath()
	if !fileExists(path) {
		return sel, nil
	}
	if err := readJSON(path, &sel); err != nil {
		return model.Selection{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return sel, nil
}

// SaveSelection 保存选择状态
func (s *JSONStore) SaveSelection(_ context.Context, sel model.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSONAtomic(s.selectionPath(), sel)
}

// Close 无需释放资源
func (s *JSONStore) Close() error {
	return nil
}

func ensureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func writeJSONAtomic(path string, v interface{}) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
