package query

import (
	"context"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest 分页参数，page 从 1 开始
type PageRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// Normalize 修正非法取值
func (r PageRequest) Normalize() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	return r
}

// Offset 当前页的起始偏移
func (r PageRequest) Offset() int { return (r.Page - 1) * r.Limit }

// Page is the paginated envelope. An empty result is a valid page with no docs.
type Page[T any] struct {
	Docs        []T   `json:"docs"`
	TotalDocs   int64 `json:"totalDocs"`
	Limit       int   `json:"limit"`
	Page        int   `json:"page"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPage 根据总数计算分页元信息
func NewPage[T any](docs []T, total int64, req PageRequest) *Page[T] {
	req = req.Normalize()
	if docs == nil {
		docs = []T{}
	}
	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &Page[T]{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       req.Limit,
		Page:        req.Page,
		TotalPages:  totalPages,
		HasNextPage: req.Page < totalPages,
		HasPrevPage: req.Page > 1,
	}
}

// Paginate 执行 spec：先按 match 阶段计数，再取当前页
func Paginate[T any](ctx context.Context, db *gorm.DB, spec Spec, req PageRequest) (*Page[T], error) {
	req = req.Normalize()

	var total int64
	if err := spec.Match(db.WithContext(ctx).Model(new(T))).Count(&total).Error; err != nil {
		return nil, err
	}
	if total == 0 || int64(req.Offset()) >= total {
		return NewPage[T](nil, total, req), nil
	}

	var docs []T
	if err := spec.Apply(db.WithContext(ctx).Model(new(T))).
		Offset(req.Offset()).
		Limit(req.Limit).
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return NewPage(docs, total, req), nil
}

// All 执行 spec，不分页
func All[T any](ctx context.Context, db *gorm.DB, spec Spec) ([]T, error) {
	var docs []T
	if err := spec.Apply(db.WithContext(ctx).Model(new(T))).Find(&docs).Error; err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}
