package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"userperf/internal/aggregate"
	"userperf/internal/config"
	"userperf/internal/discovery"
	"userperf/internal/ingest"
	"userperf/internal/parser"
	"userperf/internal/server"
	"userperf/internal/service/dashboard"
	"userperf/internal/service/project"
	"userperf/internal/sheets"
	"userperf/internal/store"
	"userperf/internal/util"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  UserPerf - 标注产出与考勤看板")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger, err := newLogger(cfg.Server.DevMode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		logger.Warn("创建数据目录失败", zap.Error(err))
		dir = cfg.Data.DataDir
	} else {
		fmt.Printf("数据目录: %s\n", dir)
	}

	backend, err := store.Open(cfg.Data.Store, dir)
	if err != nil {
		logger.Fatal("初始化存储失败", zap.String("store", cfg.Data.Store), zap.Error(err))
	}

	ctx := context.Background()
	projects, err := project.NewManager(ctx, backend, logger)
	if err != nil {
		logger.Fatal("加载项目失败", zap.Error(err))
	}
	if seeds, err := project.LoadSeedFile(filepath.Join(dir, project.SeedFileName)); err != nil {
		logger.Warn("读取初始项目清单失败", zap.Error(err))
	} else if _, err := projects.Seed(ctx, seeds); err != nil {
		logger.Warn("导入初始项目失败", zap.Error(err))
	}

	client := sheets.NewClient(cfg.Sheets.BaseURL, time.Duration(cfg.Sheets.TimeoutSeconds)*time.Second)
	svc := dashboard.New(projects,
		discovery.NewDiscoverer(client, logger),
		ingest.NewMerger(client, projects, cfg.Sheets.Concurrency, logger),
		aggregate.NewEngine(parser.NewKeyResolver(cfg.Aliases), cfg.Identity.Domain),
		backend, logger)

	// 恢复上次的选择（后台拉取数据，不阻塞启动）
	go func() {
		if err := svc.Restore(ctx); err != nil {
			logger.Warn("恢复选择状态失败", zap.Error(err))
		}
	}()

	// 创建服务器
	srv := server.NewServer(cfg, svc, backend, logger)

	// 构建地址
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	// 启动服务器
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			logger.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 打开浏览器
	if !cfg.Server.DevMode {
		fmt.Printf("正在打开浏览器: %s\n", url)
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("开发模式: 请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	if err := srv.Close(); err != nil {
		log.Printf("关闭存储失败: %v", err)
	}
}

// newLogger 生产配置；开发模式输出 debug 日志
func newLogger(dev bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
