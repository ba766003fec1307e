package models

type PaginationQuery struct {
	PageNum  int `form:"p" json:"p"`
	PageSize int `form:"page_size" json:"page_size"`
}

type PaginationResult struct {
	TotalPage   int   `json:"total_page"`
	CurrentPage int   `json:"current_page"`
	Total       int64 `json:"total"`
}

// Normalize 修正非法的分页参数
func (q PaginationQuery) Normalize(defaultSize, maxSize int) PaginationQuery {
	if q.PageNum < 1 {
		q.PageNum = 1
	}
	if q.PageSize < 1 || q.PageSize > maxSize {
		q.PageSize = defaultSize
	}
	return q
}

// Offset 当前页的偏移量
func (q PaginationQuery) Offset() int {
	return (q.PageNum - 1) * q.PageSize
}

// NewPaginationResult 创建一个新的分页结果对象
func NewPaginationResult(total int64, pageNum, pageSize int) PaginationResult {
	totalPage := 0
	if pageSize > 0 {
		totalPage = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationResult{
		TotalPage:   totalPage,
		CurrentPage: pageNum,
		Total:       total,
	}
}
