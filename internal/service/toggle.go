package service

import "context"

// ToggleState 切换后的状态
type ToggleState string

const (
	StateAdded   ToggleState = "added"
	StateRemoved ToggleState = "removed"
)

// ToggleResult 切换结果；Added 时 Relation 为新建的关系
type ToggleResult struct {
	State    ToggleState `json:"state"`
	Relation any         `json:"relation,omitempty"`
}

// relation 抽象一对 (actor, target) 的存在/删除/插入
type relation[T any] struct {
	exists func(ctx context.Context) (bool, error)
	remove func(ctx context.Context) (int64, error)
	// insert 返回 false 表示唯一约束命中（并发请求先一步插入）
	insert func(ctx context.Context) (T, bool, error)
}

// toggle 存在则删除，否则插入。唯一约束保证并发切换最多留下一条关系。
func toggle[T any](ctx context.Context, rel relation[T], what string) (*ToggleResult, error) {
	ok, err := rel.exists(ctx)
	if err != nil {
		return nil, storeErr(err, what)
	}
	if ok {
		// 删除 0 行说明并发请求已先删除，结果相同
		if _, err := rel.remove(ctx); err != nil {
			return nil, storeErr(err, what)
		}
		return &ToggleResult{State: StateRemoved}, nil
	}

	created, inserted, err := rel.insert(ctx)
	if err != nil {
		return nil, storeErr(err, what)
	}
	if !inserted {
		return &ToggleResult{State: StateAdded}, nil
	}
	return &ToggleResult{State: StateAdded, Relation: created}, nil
}
