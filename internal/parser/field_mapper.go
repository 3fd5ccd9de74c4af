package parser

import "sync"

// defaultAliases 规范列名 -> 可接受的同义列名
var defaultAliases = map[string][]string{
	"username":                  {"username", "user", "userid", "user_name"},
	"annotatorname":             {"annotatorname", "annotator", "name", "worker", "annotator_name"},
	"frameid":                   {"frameid", "frame", "id", "imageid", "frame_id"},
	"numberofobjectannotated":   {"numberofobjectannotated", "objects", "objectcount", "totalobjects", "annotatedobjects", "object_count"},
	"date":                      {"date", "timestamp", "createdat"},
	"logintime":                 {"logintime", "login", "timein", "clockin", "login_time", "starttime"},
	"internalqcname":            {"internalqcname", "internalqc", "qcname", "qcby", "verifiedby", "qc_name", "qa_name", "qa"},
	"internalpolygonerrorcount": {"internalpolygonerrorcount", "errorcount", "errors", "polygonerrors", "error_count", "totalerrors", "internal_errors"},
	"employeecode":              {"employeecode", "empcode", "empid", "employeeid"},
}

// 语义列名（aggregate 中使用的目标名称）
const (
	FieldAnnotatorName = "Annotator Name"
	FieldUserName      = "UserName"
	FieldFrameID       = "Frame ID"
	FieldObjectCount   = "Number of Object Annotated"
	FieldQCName        = "Internal QC Name"
	FieldErrorCount    = "Internal Polygon Error Count"
	FieldDate          = "Date"
	FieldLoginTime     = "Login Time"
	FieldEmployeeCode  = "Employee Code"
	FieldEmpCode       = "Emp Code"
	FieldEmpID         = "Emp ID"
)

// KeyResolver 字段映射器：把语义列名模糊匹配到实际表头
type KeyResolver struct {
	aliases map[string][]string

	mu    sync.Mutex
	norms map[string]string
}

// NewKeyResolver 创建字段映射器，extra 中的别名追加到默认别名表之后
func NewKeyResolver(extra map[string][]string) *KeyResolver {
	aliases := make(map[string][]string, len(defaultAliases)+len(extra))
	for k, list := range defaultAliases {
		aliases[k] = normalizeAll(list)
	}
	for k, list := range extra {
		key := NormalizeKey(k)
		if key == "" {
			continue
		}
		aliases[key] = appendUnique(aliases[key], normalizeAll(list)...)
	}
	return &KeyResolver{
		aliases: aliases,
		norms:   make(map[string]string),
	}
}

// Aliases 返回规范名对应的同义列表（已规范化）
func (r *KeyResolver) Aliases(target string) []string {
	key := NormalizeKey(target)
	if list, ok := r.aliases[key]; ok {
		out := make([]string, len(list))
		copy(out, list)
		return out
	}
	return []string{key}
}

// Resolve 在 headers 中查找语义列 target 对应的实际表头
// 规范化后完全相同的优先；否则按别名表匹配，多个命中时取表头顺序中的第一个
func (r *KeyResolver) Resolve(headers []string, target string) (string, bool) {
	if len(headers) == 0 {
		return "", false
	}
	want := NormalizeKey(target)
	for _, h := range headers {
		if r.normalize(h) == want {
			return h, true
		}
	}

	candidates, ok := r.aliases[want]
	if !ok {
		candidates = []string{want}
	}
	set := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		set[c] = struct{}{}
	}
	for _, h := range headers {
		if _, hit := set[r.normalize(h)]; hit {
			return h, true
		}
	}
	return "", false
}

// ResolveFirst 依次尝试多个语义列名，返回第一个命中的表头
func (r *KeyResolver) ResolveFirst(headers []string, targets ...string) (string, bool) {
	for _, t := range targets {
		if h, ok := r.Resolve(headers, t); ok {
			return h, true
		}
	}
	return "", false
}

func (r *KeyResolver) normalize(header string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.norms[header]; ok {
		return n
	}
	n := NormalizeKey(header)
	r.norms[header] = n
	return n
}

func normalizeAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if n := NormalizeKey(s); n != "" {
			out = appendUnique(out, n)
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		dup := false
		for _, d := range dst {
			if d == it {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, it)
		}
	}
	return dst
}
