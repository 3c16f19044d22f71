// Package query describes read-side compositions (filter, join, reshape, sort)
// as plain values that are compiled into gorm scopes. A Spec carries no
// connection, so it can be built and inspected without a store.
package query

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/internal/model"
)

// Op 过滤操作
type Op string

const (
	OpEq       Op = "eq"
	OpContains Op = "contains" // 大小写不敏感的子串匹配
	OpIn       Op = "in"       // 值可以是切片或子查询
)

// Filter is a single match-stage predicate. Column must be a trusted identifier.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, v any) Filter { return Filter{Column: column, Op: OpEq, Value: v} }

func Contains(column, text string) Filter { return Filter{Column: column, Op: OpContains, Value: text} }

func In(column string, v any) Filter { return Filter{Column: column, Op: OpIn, Value: v} }

// Join preloads an association restricted to Columns, flattened onto a single
// nested object (belongs-to). Missing rows leave the field nil.
type Join struct {
	Association string
	Columns     []string
}

// OwnerJoin 附带作者的 id/username/fullName/avatar
func OwnerJoin() Join { return Join{Association: "Owner", Columns: model.OwnerProfileColumns} }

// InnerJoin restricts rows to those with a match in another table. Rows whose
// counterpart is missing are dropped, which is how dangling references vanish.
type InnerJoin struct {
	Clause string
	Args   []any
}

// Order 排序
type Order struct {
	Column string
	Desc   bool
}

// Spec is a typed read-side pipeline over Table.
type Spec struct {
	Table   string
	Filters []Filter
	Inner   []InnerJoin
	Joins   []Join
	Orders  []Order
}

// New 以表名创建 Spec
func New(table string) Spec { return Spec{Table: table} }

// Where 追加过滤条件（返回副本）
func (s Spec) Where(filters ...Filter) Spec {
	s.Filters = append(append([]Filter(nil), s.Filters...), filters...)
	return s
}

// JoinInner 追加 inner join（返回副本）
func (s Spec) JoinInner(clause string, args ...any) Spec {
	s.Inner = append(append([]InnerJoin(nil), s.Inner...), InnerJoin{Clause: clause, Args: args})
	return s
}

// With 追加关联投影（返回副本）
func (s Spec) With(joins ...Join) Spec {
	s.Joins = append(append([]Join(nil), s.Joins...), joins...)
	return s
}

// OrderBy 追加排序（返回副本）
func (s Spec) OrderBy(column string, desc bool) Spec {
	s.Orders = append(append([]Order(nil), s.Orders...), Order{Column: column, Desc: desc})
	return s
}

// Match applies only the filter and inner-join stages. Used for counting.
func (s Spec) Match(db *gorm.DB) *gorm.DB {
	for _, j := range s.Inner {
		db = db.Joins(j.Clause, j.Args...)
	}
	for _, f := range s.Filters {
		db = applyFilter(db, s.qualify(f.Column), f)
	}
	return db
}

// Apply applies every stage: match, projection joins and ordering.
func (s Spec) Apply(db *gorm.DB) *gorm.DB {
	db = s.Match(db)
	if len(s.Inner) > 0 && s.Table != "" {
		db = db.Select(s.Table + ".*")
	}
	for _, j := range s.Joins {
		cols := j.Columns
		db = db.Preload(j.Association, func(tx *gorm.DB) *gorm.DB {
			if len(cols) == 0 {
				return tx
			}
			return tx.Select(cols)
		})
	}
	for _, o := range s.Orders {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		db = db.Order(fmt.Sprintf("%s %s", s.qualify(o.Column), dir))
	}
	return db
}

// qualify prefixes bare columns with the table when inner joins make them ambiguous.
func (s Spec) qualify(column string) string {
	if len(s.Inner) == 0 || s.Table == "" || strings.Contains(column, ".") {
		return column
	}
	return s.Table + "." + column
}

func applyFilter(db *gorm.DB, column string, f Filter) *gorm.DB {
	switch f.Op {
	case OpContains:
		text, _ := f.Value.(string)
		if strings.TrimSpace(text) == "" {
			return db
		}
		return db.Where(fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", column), "%"+escapeLike(strings.ToLower(text))+"%")
	case OpIn:
		return db.Where(fmt.Sprintf("%s IN (?)", column), f.Value)
	default:
		return db.Where(fmt.Sprintf("%s = ?", column), f.Value)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
