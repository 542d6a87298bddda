package repository

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	pkgerrors "busbuddy/pkg/errors"
)

// Predicate 可组合的查询条件
type Predicate func(*gorm.DB) *gorm.DB

// Where 构造一个条件，参数语义同 gorm.DB.Where
func Where(query interface{}, args ...interface{}) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	}
}

// And 依次叠加多个条件（nil 条件被忽略）
func And(preds ...Predicate) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		for _, p := range preds {
			if p != nil {
				db = p(db)
			}
		}
		return db
	}
}

// Not 对条件整体取反
func Not(p Predicate) Predicate {
	return func(db *gorm.DB) *gorm.DB {
		if p == nil {
			return db
		}
		group := p(db.Session(&gorm.Session{NewDB: true}))
		return db.Not(group)
	}
}

// OrderBy 按白名单校验排序表达式（"col [asc|desc], ..."）后追加 ORDER BY。
// 非法表达式不会拼进 SQL，而是以 ValidationError 终止查询。
func OrderBy(expr string, allowed ...string) Predicate {
	set := make(map[string]struct{}, len(allowed))
	for _, col := range allowed {
		set[strings.ToLower(col)] = struct{}{}
	}
	order, err := sanitizeOrder(expr, set)
	return func(db *gorm.DB) *gorm.DB {
		if err != nil {
			_ = db.AddError(err)
			return db
		}
		if order == "" {
			return db
		}
		return db.Order(order)
	}
}

func sanitizeOrder(expr string, columns map[string]struct{}) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", nil
	}

	parts := strings.Split(expr, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 || len(fields) > 2 {
			return "", pkgerrors.NewValidation(fmt.Sprintf("invalid order by %q", expr))
		}
		col := strings.ToLower(fields[0])
		if _, ok := columns[col]; !ok {
			return "", pkgerrors.NewValidation(fmt.Sprintf("cannot order by unknown column %q", fields[0]))
		}
		dir := "ASC"
		if len(fields) == 2 {
			switch strings.ToUpper(fields[1]) {
			case "ASC":
			case "DESC":
				dir = "DESC"
			default:
				return "", pkgerrors.NewValidation(fmt.Sprintf("invalid sort direction %q", fields[1]))
			}
		}
		out = append(out, col+" "+dir)
	}
	return strings.Join(out, ", "), nil
}

// Query 仓储上的可组合查询句柄。软删除过滤已预置；
// tracking 为 true 时结果进入工作单元的身份映射。
type Query[T any] struct {
	repo           *Repository[T]
	ctx            context.Context
	preds          []Predicate
	order          []Predicate
	limit          int
	offset         int
	tracking       bool
	includeDeleted bool
}

func (q *Query[T]) clone() *Query[T] {
	c := *q
	c.preds = append([]Predicate(nil), q.preds...)
	c.order = append([]Predicate(nil), q.order...)
	return &c
}

// Where 追加条件
func (q *Query[T]) Where(preds ...Predicate) *Query[T] {
	c := q.clone()
	for _, p := range preds {
		if p != nil {
			c.preds = append(c.preds, p)
		}
	}
	return c
}

// OrderBy 追加排序，列名按实体的数据库列校验
func (q *Query[T]) OrderBy(expr string) *Query[T] {
	if strings.TrimSpace(expr) == "" {
		return q
	}
	c := q.clone()
	c.order = append(c.order, OrderBy(expr, q.repo.columns...))
	return c
}

// Limit 限制返回条数
func (q *Query[T]) Limit(n int) *Query[T] {
	c := q.clone()
	c.limit = n
	return c
}

// Offset 跳过前 n 条
func (q *Query[T]) Offset(n int) *Query[T] {
	c := q.clone()
	c.offset = n
	return c
}

// Page 1-based 分页；偏移量溢出时钳制为 math.MaxInt
func (q *Query[T]) Page(page, pageSize int) *Query[T] {
	if page < 1 {
		page = 1
	}
	offset := math.MaxInt
	if pageSize <= 0 || page-1 <= math.MaxInt/pageSize {
		offset = (page - 1) * pageSize
	}
	return q.Offset(offset).Limit(pageSize)
}

// IncludeDeleted 去掉软删除过滤（恢复、唯一性校验等场景）
func (q *Query[T]) IncludeDeleted() *Query[T] {
	c := q.clone()
	c.includeDeleted = true
	return c
}

func (q *Query[T]) build() *gorm.DB {
	db := q.repo.conn(q.ctx).Model(new(T))
	if q.repo.softDelete && !q.includeDeleted {
		db = db.Where(deletedColumn+" = ?", false)
	}
	for _, p := range q.preds {
		db = p(db)
	}
	return db
}

// List 执行查询
func (q *Query[T]) List() ([]*T, error) {
	db := q.build()
	if len(q.order) == 0 {
		db = db.Order("id")
	}
	for _, o := range q.order {
		db = o(db)
	}
	if q.limit > 0 {
		db = db.Limit(q.limit)
	}
	if q.offset > 0 {
		db = db.Offset(q.offset)
	}

	var rows []*T
	if err := db.Find(&rows).Error; err != nil {
		return nil, err
	}
	if q.tracking {
		rows = attachAll(q.repo.uow.tracker, rows)
	}
	return rows, nil
}

// First 返回第一条；无结果返回 (nil, nil)
func (q *Query[T]) First() (*T, error) {
	rows, err := q.Limit(1).List()
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// Count 满足条件的行数（忽略排序与分页）
func (q *Query[T]) Count() (int64, error) {
	var n int64
	for _, o := range q.order {
		// 排序谓词可能携带校验错误，同样需要暴露
		if err := o(q.repo.conn(q.ctx).Session(&gorm.Session{NewDB: true})).Error; err != nil {
			return 0, err
		}
	}
	if err := q.build().Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Exists 是否存在满足条件的行
func (q *Query[T]) Exists() (bool, error) {
	n, err := q.Count()
	return n > 0, err
}
