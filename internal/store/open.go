package store

import (
	"fmt"
	"path/filepath"

	"userperf/internal/config"
)

// DBFileName SQLite 数据库文件名
const DBFileName = "userperf.db"

// Open 按配置打开持久化后端
func Open(kind, dataDir string) (Backend, error) {
	switch kind {
	case config.StoreJSON:
		return NewJSONStore(dataDir)
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite, "":
		return New(filepath.Join(dataDir, DBFileName))
	default:
		return nil, fmt.Errorf("unknown store kind: %s", kind)
	}
}
