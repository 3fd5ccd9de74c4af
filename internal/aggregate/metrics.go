package aggregate

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"userperf/internal/model"
)

// Metrics 顶部指标
type Metrics struct {
	TotalFrames  int     `json:"totalFrames"`
	TotalObjects float64 `json:"totalObjects"`
	QCObjects    float64 `json:"qcObjects"`
	TotalErrors  float64 `json:"totalErrors"`
	QualityRate  float64 `json:"qualityRate"`
}

// Card 指标卡片
type Card struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Metrics 计算生产数据指标；质检对象为 0 时质量率为 0
func (e *Engine) Metrics(rows model.RowSet) Metrics {
	keys := e.resolveProductionKeys(rows.Headers())

	frames := make(map[string]struct{})
	var m Metrics
	for _, rec := range rows {
		if rec.Provenance.Category != model.CategoryProduction {
			continue
		}
		row := rec.Row
		if f := row.Text(keys.frame); f != "" {
			frames[f] = struct{}{}
		}
		objects := row.Get(keys.objects).Float()
		m.TotalObjects += objects
		if IsQCEligible(row.Text(keys.qcName)) {
			m.QCObjects += objects
			m.TotalErrors += row.Get(keys.errors).Float()
		}
	}
	m.TotalFrames = len(frames)
	if m.QCObjects > 0 {
		m.QualityRate = (m.QCObjects - m.TotalErrors) * 100 / m.QCObjects
	}
	return m
}

// QualityRateLabel 质量率展示文本，如 "97.50%"；无质检数据时为 "0%"
func (m Metrics) QualityRateLabel() string {
	if m.QCObjects <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", m.QualityRate)
}

// Cards 指标卡片（千分位格式）
func (m Metrics) Cards() []Card {
	p := message.NewPrinter(language.English)
	return []Card{
		{Label: "Total Frames", Value: p.Sprintf("%d", m.TotalFrames)},
		{Label: "Total Objects", Value: formatCount(p, m.TotalObjects)},
		{Label: "QC Total Objects", Value: formatCount(p, m.QCObjects)},
		{Label: "Total Errors", Value: formatCount(p, m.TotalErrors)},
		{Label: "Quality Rate", Value: m.QualityRateLabel()},
	}
}

func formatCount(p *message.Printer, v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return p.Sprintf("%d", int64(v))
	}
	return p.Sprintf("%.2f", v)
}
