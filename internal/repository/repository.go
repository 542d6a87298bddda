package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"busbuddy/internal/model"
	pkgerrors "busbuddy/pkg/errors"
)

const deletedColumn = "is_deleted"

// ErrNilEntity 传入 nil 实体
var ErrNilEntity = errors.New("entity must not be nil")

// Repository 泛型仓储：CRUD + 谓词查询 + 分页。
// 写操作只暂存到所属工作单元，Complete 之前不会落库；读操作读取已提交状态
// （在 Guard 内读取时为当前事务）。
type Repository[T any] struct {
	uow        *UnitOfWork
	name       string
	softDelete bool
	columns    []string
}

// newRepository 构造时一次性判定实体能力；*T 未实现 model.Entity 属于编程错误，直接 panic
func newRepository[T any](u *UnitOfWork) *Repository[T] {
	probe := any(new(T))
	if _, ok := probe.(model.Entity); !ok {
		panic(fmt.Sprintf("repository: %T does not implement model.Entity", probe))
	}
	_, soft := probe.(model.SoftDeletable)

	r := &Repository[T]{
		uow:        u,
		name:       reflect.TypeOf(probe).Elem().Name(),
		softDelete: soft,
	}
	if s, err := schema.Parse(new(T), u.schemas, u.db.NamingStrategy); err == nil {
		r.columns = append(r.columns, s.DBNames...)
	}
	return r
}

// SoftDeletes 实体是否支持软删除
func (r *Repository[T]) SoftDeletes() bool { return r.softDelete }

func (r *Repository[T]) conn(ctx context.Context) *gorm.DB {
	if tx := TxFromContext(ctx); tx != nil {
		return tx.WithContext(ctx)
	}
	return r.uow.db.WithContext(ctx)
}

func (r *Repository[T]) entity(e *T) model.Entity {
	return any(e).(model.Entity)
}

// Query 可组合查询（结果进入身份映射）
func (r *Repository[T]) Query(ctx context.Context) *Query[T] {
	return &Query[T]{repo: r, ctx: ctx, tracking: true}
}

// QueryNoTracking 只读查询，每次返回新对象，不进入身份映射
func (r *Repository[T]) QueryNoTracking(ctx context.Context) *Query[T] {
	return &Query[T]{repo: r, ctx: ctx}
}

// GetByID 按主键查询，不存在返回 (nil, nil)。
// 不过滤软删除：恢复流程依赖它找到已删除的行，调用方需自行判断 Deleted()。
func (r *Repository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	if b, ok := r.uow.tracker.identity[reflect.TypeOf(new(T))]; ok {
		if existing, ok := b[id]; ok {
			return existing.(*T), nil
		}
	}

	var row T
	err := r.conn(ctx).Model(new(T)).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return any(r.uow.tracker.attach(r.entity(&row))).(*T), nil
}

// GetAll 所有未删除实体
func (r *Repository[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.Query(ctx).List()
}

// Find 按条件查询
func (r *Repository[T]) Find(ctx context.Context, where Predicate) ([]*T, error) {
	return r.Query(ctx).Where(where).List()
}

// FirstOrDefault 第一条满足条件的实体，无则 (nil, nil)
func (r *Repository[T]) FirstOrDefault(ctx context.Context, where Predicate) (*T, error) {
	return r.Query(ctx).Where(where).First()
}

// Any 是否存在满足条件的实体
func (r *Repository[T]) Any(ctx context.Context, where Predicate) (bool, error) {
	return r.QueryNoTracking(ctx).Where(where).Exists()
}

// Count 计数，where 可为 nil
func (r *Repository[T]) Count(ctx context.Context, where Predicate) (int64, error) {
	return r.QueryNoTracking(ctx).Where(where).Count()
}

// GetPaged 1-based 分页；total 为过滤后、分页前的总数
func (r *Repository[T]) GetPaged(ctx context.Context, page, pageSize int, where Predicate, orderBy string) ([]*T, int64, error) {
	var problems []string
	if page < 1 {
		problems = append(problems, "page must be greater than or equal to 1")
	}
	if pageSize <= 0 {
		problems = append(problems, "page size must be greater than 0")
	}
	if len(problems) > 0 {
		return nil, 0, pkgerrors.NewValidation(problems...)
	}

	q := r.Query(ctx).Where(where).OrderBy(orderBy)
	total, err := q.Count()
	if err != nil {
		return nil, 0, err
	}
	// 偏移量超出 int 范围时必然越过末页
	if page-1 > math.MaxInt/pageSize {
		return []*T{}, total, nil
	}
	items, err := q.Page(page, pageSize).List()
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Add 盖创建戳并暂存插入
func (r *Repository[T]) Add(ctx context.Context, e *T) (*T, error) {
	if e == nil {
		return nil, ErrNilEntity
	}
	ent := r.entity(e)
	ent.StampCreated(r.uow.now(), r.uow.actor(ctx))
	r.uow.tracker.stage(opInsert, ent, r.name)
	return e, nil
}

// AddRange 批量 Add
func (r *Repository[T]) AddRange(ctx context.Context, es []*T) ([]*T, error) {
	for _, e := range es {
		if e == nil {
			return nil, ErrNilEntity
		}
	}
	for _, e := range es {
		if _, err := r.Add(ctx, e); err != nil {
			return nil, err
		}
	}
	return es, nil
}

// Update 盖修改戳并暂存更新（不触碰创建戳）
func (r *Repository[T]) Update(ctx context.Context, e *T) error {
	if e == nil {
		return ErrNilEntity
	}
	ent := r.entity(e)
	pending := r.uow.tracker.isStaged(ent, opInsert)
	if ent.GetID() == 0 && !pending {
		return pkgerrors.NewNotFound(r.name, 0)
	}
	ent.StampUpdated(r.uow.now(), r.uow.actor(ctx))
	if !pending {
		r.uow.tracker.attach(ent)
	}
	r.uow.tracker.stage(opUpdate, ent, r.name)
	return nil
}

// Remove 暂存物理删除（绕过软删除）
func (r *Repository[T]) Remove(ctx context.Context, e *T) error {
	if e == nil {
		return ErrNilEntity
	}
	r.uow.tracker.stage(opDelete, r.entity(e), r.name)
	return nil
}

// RemoveRange 批量 Remove
func (r *Repository[T]) RemoveRange(ctx context.Context, es []*T) error {
	for _, e := range es {
		if err := r.Remove(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// SoftDelete 标记删除并暂存更新；实体不支持软删除时返回 false
func (r *Repository[T]) SoftDelete(ctx context.Context, e *T) (bool, error) {
	return r.setDeleted(ctx, e, true)
}

// SoftDeleteByID 按主键软删除；不存在或不支持软删除返回 false
func (r *Repository[T]) SoftDeleteByID(ctx context.Context, id uint) (bool, error) {
	if !r.softDelete {
		return false, nil
	}
	e, err := r.GetByID(ctx, id)
	if err != nil || e == nil {
		return false, err
	}
	return r.setDeleted(ctx, e, true)
}

// Restore 撤销软删除
func (r *Repository[T]) Restore(ctx context.Context, e *T) (bool, error) {
	return r.setDeleted(ctx, e, false)
}

// RestoreByID 按主键恢复；查找路径不应用软删除过滤
func (r *Repository[T]) RestoreByID(ctx context.Context, id uint) (bool, error) {
	if !r.softDelete {
		return false, nil
	}
	e, err := r.GetByID(ctx, id)
	if err != nil || e == nil {
		return false, err
	}
	return r.setDeleted(ctx, e, false)
}

func (r *Repository[T]) setDeleted(ctx context.Context, e *T, deleted bool) (bool, error) {
	if e == nil {
		return false, ErrNilEntity
	}
	if !r.softDelete {
		return false, nil
	}
	any(e).(model.SoftDeletable).SetDeleted(deleted)
	if err := r.Update(ctx, e); err != nil {
		return false, err
	}
	return true, nil
}
