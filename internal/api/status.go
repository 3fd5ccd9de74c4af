package api

import (
	"github.com/gin-gonic/gin"

	"userperf/internal/config"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Version     string `json:"version"`     // 构建版本
	Projects    int    `json:"projects"`    // 项目总数
	Generation  uint64 `json:"generation"`  // 当前发布的合并代号
	Rows        int    `json:"rows"`        // 统一行数
	Loading     bool   `json:"loading"`     // 是否有合并在进行
	AuthEnabled bool   `json:"authEnabled"` // 是否需要登录
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	st := h.svc.Status()
	success(c, StatusResponse{
		Version:     Version,
		Projects:    st.Projects,
		Generation:  st.Generation,
		Rows:        st.Rows,
		Loading:     st.Loading,
		AuthEnabled: h.requireAuth,
	})
}

// TodayBirthdays 今日生日（按 MM-DD 匹配）
// GET /api/birthdays/today
func (h *Handler) TodayBirthdays(c *gin.Context) {
	success(c, birthdaysOn(h.cfg.Birthdays, h.now().Format("01-02")))
}

func birthdaysOn(all []config.Birthday, monthDay string) []config.Birthday {
	out := make([]config.Birthday, 0)
	for _, b := range all {
		if b.Date == monthDay {
			out = append(out, b)
		}
	}
	return out
}
