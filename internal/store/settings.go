package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"userperf/internal/model"
)

// selectionKey 选择状态在 settings 表中的键
const selectionKey = "dashboard.selection"

// ErrSettingNotFound 设置项不存在
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting 获取设置项
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrSettingNotFound, key)
		}
		return "", err
	}
	return value, nil
}

// SetSetting 设置设置项
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// LoadSelection 读取选择状态；未保存时返回空选择
func (s *Store) LoadSelection(ctx context.Context) (model.Selection, error) {
	var sel model.Selection
	raw, err := s.GetSetting(ctx, selectionKey)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return sel, nil
		}
		return sel, err
	}
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return model.Selection{}, fmt.Errorf("failed to decode selection: %w", err)
	}
	return sel, nil
}

// SaveSelection 保存选择状态
func (s *Store) SaveSelection(ctx context.Context, sel model.Selection) error {
	b, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	return s.SetSetting(ctx, selectionKey, string(b))
}
