package dto

import (
	"github.com/gin-gonic/gin"

	"sekaichat/internal/domain/repository"
)

// PageQuery 分页查询参数
type PageQuery struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// BindPage 从查询参数绑定分页
func BindPage(c *gin.Context) repository.Pagination {
	var q PageQuery
	_ = c.ShouldBindQuery(&q)
	return repository.NewPagination(q.Page, q.PageSize)
}

// ToPageMeta 将分页结果转为响应元数据
func ToPageMeta[T any](result *repository.PagedResult[T]) *PageMeta {
	if result == nil {
		return nil
	}
	return &PageMeta{
		Page:       result.Page,
		PageSize:   result.PageSize,
		Total:      int(result.Total),
		TotalPages: result.TotalPages,
	}
}
