package repository

import (
	"context"
	"database/sql"
	"reflect"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"busbuddy/internal/audit"
	"busbuddy/internal/model"
	pkgerrors "busbuddy/pkg/errors"
	"busbuddy/pkg/metrics"
	"busbuddy/pkg/retry"
)

// Guard 提交事务内、应用变更前执行的校验；ctx 中携带当前事务
type Guard func(ctx context.Context) error

// Options 工作单元配置
type Options struct {
	Isolation   sql.IsolationLevel
	Retry       retry.Config
	SystemActor string
	Clock       func() time.Time
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

// Factory 按逻辑操作创建工作单元
type Factory struct {
	db      *gorm.DB
	opts    Options
	schemas *sync.Map
}

// NewFactory 创建工作单元工厂
func NewFactory(db *gorm.DB, opts Options) *Factory {
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SystemActor == "" {
		opts.SystemActor = audit.SystemActor
	}
	return &Factory{db: db, opts: opts, schemas: &sync.Map{}}
}

// New 创建新的工作单元
func (f *Factory) New() *UnitOfWork {
	return &UnitOfWork{
		db:      f.db,
		opts:    f.opts,
		schemas: f.schemas,
		repos:   make(map[reflect.Type]any),
		tracker: newTracker(),
	}
}

// UnitOfWork 一次逻辑操作的持久化会话：聚合各实体仓储，Complete 时在单个事务内原子提交。
// 不是并发安全的，不得跨请求共享。
type UnitOfWork struct {
	db      *gorm.DB
	opts    Options
	schemas *sync.Map
	repos   map[reflect.Type]any
	tracker *tracker
	guards  []Guard
}

// For 返回工作单元内 T 的仓储（惰性创建并缓存）
func For[T any](u *UnitOfWork) *Repository[T] {
	key := reflect.TypeOf((*T)(nil)).Elem()
	if r, ok := u.repos[key]; ok {
		return r.(*Repository[T])
	}
	r := newRepository[T](u)
	u.repos[key] = r
	return r
}

func (u *UnitOfWork) Buses() *Repository[model.Bus] { return For[model.Bus](u) }
func (u *UnitOfWork) Drivers() *Repository[model.Driver] { return For[model.Driver](u) }
func (u *UnitOfWork) Routes() *Repository[model.Route] { return For[model.Route](u) }
func (u *UnitOfWork) Students() *Repository[model.Student] { return For[model.Student](u) }
func (u *UnitOfWork) Activities() *Repository[model.Activity] { return For[model.Activity](u) }
func (u *UnitOfWork) FuelRecords() *Repository[model.FuelRecord] {
	return For[model.FuelRecord](u)
}
func (u *UnitOfWork) MaintenanceRecords() *Repository[model.MaintenanceRecord] {
	return For[model.MaintenanceRecord](u)
}

func (u *UnitOfWork) now() time.Time { return u.opts.Clock() }

func (u *UnitOfWork) actor(ctx context.Context) string {
	return audit.ActorOr(ctx, u.opts.SystemActor)
}

// Guard 注册提交前校验；每次重试都会重新执行
func (u *UnitOfWork) Guard(g Guard) {
	if g != nil {
		u.guards = append(u.guards, g)
	}
}

// HasChanges 是否有待提交的变更
func (u *UnitOfWork) HasChanges() bool { return len(u.tracker.changes) > 0 }

// Discard 丢弃所有暂存变更与校验
func (u *UnitOfWork) Discard() {
	u.tracker.reset()
	u.guards = nil
}

// Complete 在单个事务中执行 Guard 并按暂存顺序应用全部变更，返回受影响行数。
// 任一步失败整体回滚，暂存集保持不变；成功后清空暂存集。
func (u *UnitOfWork) Complete(ctx context.Context) (int64, error) {
	if len(u.tracker.changes) == 0 && len(u.guards) == 0 {
		return 0, nil
	}

	start := time.Now()
	attempts := 0
	var affected int64
	err := retry.Do(ctx, u.opts.Retry, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			u.opts.Metrics.RecordCommit("retried", 0)
			u.opts.Logger.Warn("事务冲突，重试提交", zap.Int("attempt", attempts))
		}
		n, err := u.commitOnce(ctx)
		affected = n
		return err
	})
	if err != nil {
		u.opts.Metrics.RecordCommit("rolled_back", 0)
		if pkgerrors.IsBusinessError(err) {
			return 0, err
		}
		u.opts.Logger.Error("工作单元提交失败，已回滚",
			zap.Int("changes", len(u.tracker.changes)),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return 0, pkgerrors.WrapPersistence("commit unit of work", err)
	}

	u.opts.Metrics.RecordCommit("committed", time.Since(start))
	for op, n := range u.tracker.counts() {
		u.opts.Metrics.RecordStaged(op.String(), n)
	}
	for _, c := range u.tracker.changes {
		if c.op == opDelete {
			u.tracker.detach(c.entity)
		} else {
			u.tracker.attach(c.entity)
		}
	}
	u.Discard()
	return affected, nil
}

func (u *UnitOfWork) commitOnce(ctx context.Context) (int64, error) {
	// 失败时复位插入实体的自增主键，保证重试与再次提交不会带着脏主键
	priorIDs := make([]uint, len(u.tracker.changes))
	for i, c := range u.tracker.changes {
		priorIDs[i] = c.entity.GetID()
	}

	var affected int64
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := ContextWithTx(ctx, tx)
		for _, g := range u.guards {
			if err := g(txCtx); err != nil {
				return err
			}
		}
		for _, c := range u.tracker.changes {
			n, err := apply(tx, c)
			if err != nil {
				return err
			}
			affected += n
		}
		return nil
	}, u.txOptions()...)
	if err != nil {
		for i, c := range u.tracker.changes {
			if c.op == opInsert {
				c.entity.SetID(priorIDs[i])
			}
		}
		return 0, err
	}
	return affected, nil
}

func apply(tx *gorm.DB, c change) (int64, error) {
	switch c.op {
	case opInsert:
		res := tx.Omit(clause.Associations).Create(c.entity)
		return res.RowsAffected, res.Error
	case opUpdate:
		res := tx.Model(c.entity).Select("*").Updates(c.entity)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, pkgerrors.NewNotFound(c.name, c.entity.GetID())
		}
		return res.RowsAffected, nil
	default:
		res := tx.Delete(c.entity)
		return res.RowsAffected, res.Error
	}
}

func (u *UnitOfWork) txOptions() []*sql.TxOptions {
	if u.opts.Isolation == sql.LevelDefault {
		return nil
	}
	return []*sql.TxOptions{{Isolation: u.opts.Isolation}}
}
