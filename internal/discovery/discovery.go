package discovery

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"userperf/internal/model"
	"userperf/internal/parser"
	"userperf/internal/sheets"
)

var (
	// 新版文档引导数据："name":"Sheet1"
	primaryNameRe = regexp.MustCompile(`"name":"([^"]+)"`)
	// 旧版结构：[0,0,"Sheet1",0]
	fallbackNameRe = regexp.MustCompile(`\[\d+,\d+,"([^"]+)",\d+\]`)
)

// Discoverer Sheet 发现器：手工列表 + 文档结构自动发现
type Discoverer struct {
	fetcher    sheets.Fetcher
	recognizer *parser.SheetRecognizer
	logger     *zap.Logger
}

// NewDiscoverer 创建发现器
func NewDiscoverer(fetcher sheets.Fetcher, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{
		fetcher:    fetcher,
		recognizer: parser.NewSheetRecognizer(),
		logger:     logger,
	}
}

// Result 多项目发现结果
type Result struct {
	Refs []model.SheetRef
	// Failed 文档结构拉取失败的项目 ID（按项目顺序）
	Failed []string
}

// Discover 返回项目相关的 Sheet 名：手工指定的在前，其后是自动发现的，去重
// 自动发现失败时仍返回手工列表，同时返回拉取错误
func (d *Discoverer) Discover(ctx context.Context, project model.Project) ([]string, error) {
	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	for _, name := range project.CustomSheetNames() {
		add(name)
	}
	auto, err := d.autoDiscover(ctx, project)
	for _, name := range auto {
		add(name)
	}
	return names, err
}

func (d *Discoverer) autoDiscover(ctx context.Context, project model.Project) ([]string, error) {
	if project.SpreadsheetID == "" {
		return nil, nil
	}
	html, err := d.fetcher.FetchMetadata(ctx, project.SpreadsheetID)
	if err != nil {
		d.logger.Warn("Sheet 自动发现失败",
			zap.String("project", project.Name),
			zap.String("category", string(project.Category)),
			zap.String("spreadsheet", project.SpreadsheetID),
			zap.Error(err))
		return nil, err
	}

	names := d.recognizer.Filter(ExtractSheetNames(html, primaryNameRe), project.Category)
	if len(names) == 0 {
		names = d.recognizer.Filter(ExtractSheetNames(html, fallbackNameRe), project.Category)
	}
	d.logger.Debug("Sheet 自动发现完成",
		zap.String("project", project.Name),
		zap.Int("count", len(names)))
	return names, nil
}

// ExtractSheetNames 按模式提取文档中出现的 Sheet 名（保持顺序、去重、跳过保留前缀）
func ExtractSheetNames(html string, re *regexp.Regexp) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range re.FindAllStringSubmatch(html, -1) {
		name := m[1]
		if name == "" || strings.HasPrefix(name, parser.ReservedPrefix) {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// DiscoverAll 并发发现多个项目的 Sheet，结果按项目顺序排列
func (d *Discoverer) DiscoverAll(ctx context.Context, projects []model.Project) Result {
	results := make([][]string, len(projects))
	errs := make([]error, len(projects))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range projects {
		i, p := i, p
		g.Go(func() error {
			results[i], errs[i] = d.Discover(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	var out Result
	for i, p := range projects {
		for _, name := range results[i] {
			out.Refs = append(out.Refs, model.SheetRef{ProjectID: p.ID, SheetName: name})
		}
		if errs[i] != nil {
			out.Failed = append(out.Failed, p.ID)
		}
	}
	return out
}
