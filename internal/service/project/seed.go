package project

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"userperf/internal/model"
)

// SeedFileName 数据目录下的初始项目清单
const SeedFileName = "projects.yaml"

// seedFile projects.yaml 结构
type seedFile struct {
	Projects []seedProject `yaml:"projects"`
}

type seedProject struct {
	Name         string `yaml:"name"`
	Spreadsheet  string `yaml:"spreadsheet"`
	Category     string `yaml:"category"`
	CustomSheets string `yaml:"custom_sheets"`
}

// LoadSeedFile 读取初始项目清单；文件不存在时返回 nil
func LoadSeedFile(path string) ([]CreateInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	out := make([]CreateInput, 0, len(f.Projects))
	for _, p := range f.Projects {
		out = append(out, CreateInput{
			Name:         p.Name,
			Spreadsheet:  p.Spreadsheet,
			Category:     model.Category(p.Category),
			CustomSheets: p.CustomSheets,
		})
	}
	return out, nil
}

// Seed 项目列表为空时按清单创建项目；返回创建数量
// 非法条目跳过并记录日志
func (m *Manager) Seed(ctx context.Context, inputs []CreateInput) (int, error) {
	if m.Count() > 0 || len(inputs) == 0 {
		return 0, nil
	}
	created := 0
	for i, in := range inputs {
		if _, err := m.Create(ctx, in); err != nil {
			if errors.Is(err, ErrInvalidProject) {
				m.logger.Warn("跳过非法的初始项目", zap.Int("index", i), zap.String("name", in.Name), zap.Error(err))
				continue
			}
			return created, err
		}
		created++
	}
	m.logger.Info("初始项目已导入", zap.Int("count", created))
	return created, nil
}
