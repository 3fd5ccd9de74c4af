package aggregate

import (
	"sort"
	"strings"

	"userperf/internal/model"
	"userperf/internal/parser"
)

// Engine 汇总引擎：统一行集合 -> 各汇总视图
// 纯函数，不保留任何跨调用状态
type Engine struct {
	resolver *parser.KeyResolver
	domain   string
}

// NewEngine 创建汇总引擎
func NewEngine(resolver *parser.KeyResolver, domain string) *Engine {
	if resolver == nil {
		resolver = parser.NewKeyResolver(nil)
	}
	if domain == "" {
		domain = parser.DefaultIdentityDomain
	}
	return &Engine{resolver: resolver, domain: domain}
}

// productionKeys 生产数据语义列在实际表头中的位置
type productionKeys struct {
	annotator string
	user      string
	frame     string
	objects   string
	qcName    string
	errors    string
	hasUser   bool
}

func (e *Engine) resolveProductionKeys(headers []string) productionKeys {
	var k productionKeys
	k.annotator, _ = e.resolver.Resolve(headers, parser.FieldAnnotatorName)
	k.user, k.hasUser = e.resolver.Resolve(headers, parser.FieldUserName)
	k.frame, _ = e.resolver.Resolve(headers, parser.FieldFrameID)
	k.objects, _ = e.resolver.Resolve(headers, parser.FieldObjectCount)
	k.qcName, _ = e.resolver.Resolve(headers, parser.FieldQCName)
	k.errors, _ = e.resolver.Resolve(headers, parser.FieldErrorCount)
	return k
}

// IsQCEligible 质检名非空、非 nil（不区分大小写）、非 "0"
func IsQCEligible(qcName string) bool {
	s := strings.TrimSpace(qcName)
	return s != "" && s != "0" && !strings.EqualFold(s, "nil")
}

type personAcc struct {
	frames  map[string]struct{}
	objects float64
}

type qcAcc struct {
	objects float64
	errors  float64
}

// Summarize 计算全部汇总视图
func (e *Engine) Summarize(rows model.RowSet) Summaries {
	keys := e.resolveProductionKeys(rows.Headers())

	annotators := make(map[string]*personAcc)
	users := make(map[string]*personAcc)
	qcAnn := make(map[string]*qcAcc)
	qcUsers := make(map[string]*qcAcc)
	combined := make(map[string]float64)

	att := newAttendanceBuilder(e.resolver)

	for _, rec := range rows {
		switch rec.Provenance.Category {
		case model.CategoryProduction:
			row := rec.Row
			annText := row.Text(keys.annotator)
			if annText == "" {
				annText = row.Text(keys.user)
			}
			ann := parser.NormalizeIdentity(annText, e.domain)
			usr := ""
			if keys.hasUser {
				usr = parser.NormalizeIdentity(row.Text(keys.user), e.domain)
			}
			frame := row.Text(keys.frame)
			objects := row.Get(keys.objects).Float()
			errs := row.Get(keys.errors).Float()
			qc := IsQCEligible(row.Text(keys.qcName))

			if ann != "" {
				addPerson(annotators, ann, frame, objects)
				if qc {
					addQC(qcAnn, ann, objects, errs)
				}
			}
			if usr != "" {
				addPerson(users, usr, frame, objects)
				if qc {
					addQC(qcUsers, usr, objects, errs)
				}
			}
			if primary := firstNonEmpty(ann, usr); primary != "" {
				combined[primary] += objects
			}
		case model.CategoryHourly:
			att.add(rec)
		}
	}

	s := Summaries{
		Annotators:   personList(annotators, false),
		QCAnnotators: qcList(qcAnn, false),
		Combined:     performanceList(combined),
		Attendance:   att.build(),
	}
	if keys.hasUser {
		s.Users = personList(users, true)
		s.QCUsers = qcList(qcUsers, true)
	}
	return s
}

func addPerson(m map[string]*personAcc, name, frame string, objects float64) {
	acc, ok := m[name]
	if !ok {
		acc = &personAcc{frames: make(map[string]struct{})}
		m[name] = acc
	}
	if frame != "" {
		acc.frames[frame] = struct{}{}
	}
	acc.objects += objects
}

func addQC(m map[string]*qcAcc, name string, objects, errs float64) {
	acc, ok := m[name]
	if !ok {
		acc = &qcAcc{}
		m[name] = acc
	}
	acc.objects += objects
	acc.errors += errs
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func displayName(identity string, local bool) string {
	if local {
		return parser.LocalPart(identity)
	}
	return identity
}

func personList(m map[string]*personAcc, local bool) []PersonSummary {
	out := make([]PersonSummary, 0, len(m))
	for name, acc := range m {
		out = append(out, PersonSummary{
			Name:        displayName(name, local),
			FrameCount:  len(acc.frames),
			ObjectCount: acc.objects,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func qcList(m map[string]*qcAcc, local bool) []QCSummary {
	out := make([]QCSummary, 0, len(m))
	for name, acc := range m {
		out = append(out, QCSummary{
			Name:        displayName(name, local),
			ObjectCount: acc.objects,
			ErrorCount:  acc.errors,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// performanceList 按产出降序，同值按名称升序
func performanceList(m map[string]float64) []Performance {
	out := make([]Performance, 0, len(m))
	for name, v := range m {
		out = append(out, Performance{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}
