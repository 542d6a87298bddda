package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"busbuddy/internal/dto"
	"busbuddy/internal/model"
	"busbuddy/internal/repository"
	pkgerrors "busbuddy/pkg/errors"
)

const busEntity = "Bus"

var busMessages = map[string]string{
	"BusNumber.required":  "Bus number is required",
	"BusNumber.max":       "Bus number must be at most 20 characters",
	"Year.min":            "Year must be between 1950 and 2100",
	"Year.max":            "Year must be between 1950 and 2100",
	"Make.required":       "Make is required",
	"Make.max":            "Make must be at most 50 characters",
	"Model.required":      "Model is required",
	"Model.max":           "Model must be at most 50 characters",
	"SeatingCapacity.min": "Seating capacity must be between 1 and 100",
	"SeatingCapacity.max": "Seating capacity must be between 1 and 100",
	"VIN.len":             "VIN must be exactly 17 characters",
	"VIN.alphanum":        "VIN must contain only letters and digits",
	"LicenseNumber.max":   "License number must be at most 20 characters",
	"Status.oneof":        "Status must be one of Active, Maintenance, OutOfService",
	"CurrentOdometer.min": "Odometer must not be negative",
}

// BusService 车辆业务接口。
// 删除为软删除并置 IsAvailable=false：列表不再返回，按 ID 查询仍可取到（用于恢复）。
type BusService interface {
	AddBus(ctx context.Context, req *dto.BusRequest) (*dto.BusResponse, error)
	UpdateBus(ctx context.Context, id uint, req *dto.BusRequest) (*dto.BusResponse, error)
	DeleteBus(ctx context.Context, id uint) (bool, error)
	GetBus(ctx context.Context, id uint) (*dto.BusResponse, error)
	GetAllBuses(ctx context.Context, req *dto.BusListRequest) ([]dto.BusResponse, error)
	RestoreBus(ctx context.Context, id uint) (*dto.BusResponse, error)
}

type busService struct {
	*base
}

// NewBusService 创建 BusService 实例
func NewBusService(b *base) BusService {
	return &busService{base: b}
}

func (s *busService) AddBus(ctx context.Context, req *dto.BusRequest) (*dto.BusResponse, error) {
	uow := s.uows.New()
	inspection, err := s.validateBus(ctx, uow, 0, req)
	if err != nil {
		return nil, err
	}

	bus := &model.Bus{}
	applyBus(bus, req, inspection)
	if _, err := uow.Buses().Add(ctx, bus); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("新增车辆失败", "add bus", err)
	}
	s.logger.Info("新增车辆", zap.Uint("id", bus.ID), zap.String("bus_number", bus.BusNumber))
	return toBusResponse(bus), nil
}

func (s *busService) UpdateBus(ctx context.Context, id uint, req *dto.BusRequest) (*dto.BusResponse, error) {
	uow := s.uows.New()
	bus, err := uow.Buses().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("查询车辆失败", "get bus", err, zap.Uint("id", id))
	}
	if bus == nil || bus.IsDeleted {
		return nil, pkgerrors.NewNotFound(busEntity, id)
	}
	inspection, err := s.validateBus(ctx, uow, id, req)
	if err != nil {
		return nil, err
	}

	applyBus(bus, req, inspection)
	if err := uow.Buses().Update(ctx, bus); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("修改车辆失败", "update bus", err, zap.Uint("id", id))
	}
	return toBusResponse(bus), nil
}

// DeleteBus 软删除并标记不可用；不存在或已删除返回 false
func (s *busService) DeleteBus(ctx context.Context, id uint) (bool, error) {
	uow := s.uows.New()
	bus, err := uow.Buses().GetByID(ctx, id)
	if err != nil {
		return false, s.fail("查询车辆失败", "get bus", err, zap.Uint("id", id))
	}
	if bus == nil || bus.IsDeleted {
		return false, nil
	}
	bus.IsAvailable = false
	if _, err := uow.Buses().SoftDelete(ctx, bus); err != nil {
		return false, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return false, s.fail("删除车辆失败", "delete bus", err, zap.Uint("id", id))
	}
	s.logger.Info("删除车辆", zap.Uint("id", id), zap.String("bus_number", bus.BusNumber))
	return true, nil
}

// GetBus 不过滤软删除；已删除车辆以 is_deleted=true、is_available=false 返回
func (s *busService) GetBus(ctx context.Context, id uint) (*dto.BusResponse, error) {
	bus, err := s.uows.New().Buses().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("查询车辆失败", "get bus", err, zap.Uint("id", id))
	}
	if bus == nil {
		return nil, pkgerrors.NewNotFound(busEntity, id)
	}
	return toBusResponse(bus), nil
}

func (s *busService) GetAllBuses(ctx context.Context, req *dto.BusListRequest) ([]dto.BusResponse, error) {
	q := s.uows.New().Buses().QueryNoTracking(ctx).OrderBy("bus_number")
	if req != nil && req.AvailableOnly {
		q = q.Where(repository.Where("is_available = ?", true))
	}
	buses, err := q.List()
	if err != nil {
		return nil, s.fail("查询车辆列表失败", "list buses", err)
	}
	out := make([]dto.BusResponse, 0, len(buses))
	for _, b := range buses {
		out = append(out, *toBusResponse(b))
	}
	return out, nil
}

// RestoreBus 撤销软删除，按状态重新计算可用性
func (s *busService) RestoreBus(ctx context.Context, id uint) (*dto.BusResponse, error) {
	uow := s.uows.New()
	bus, err := uow.Buses().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("查询车辆失败", "get bus", err, zap.Uint("id", id))
	}
	if bus == nil {
		return nil, pkgerrors.NewNotFound(busEntity, id)
	}
	if !bus.IsDeleted {
		return toBusResponse(bus), nil
	}
	bus.IsAvailable = bus.Status == model.BusStatusActive
	if _, err := uow.Buses().Restore(ctx, bus); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("恢复车辆失败", "restore bus", err, zap.Uint("id", id))
	}
	return toBusResponse(bus), nil
}

// validateBus 校验字段与车号唯一（唯一索引覆盖已删除车辆，因此包含已删除行）
func (s *busService) validateBus(ctx context.Context, uow *repository.UnitOfWork, selfID uint, req *dto.BusRequest) (*model.Date, error) {
	var p problems
	p.addStruct(s.validate, req, busMessages)
	inspection := p.optionalDate("Last inspection date", req.LastInspectionDate)
	if err := p.err(); err != nil {
		return nil, err
	}

	exists, err := uow.Buses().QueryNoTracking(ctx).
		IncludeDeleted().
		Where(repository.Where("bus_number = ? AND id <> ?", req.BusNumber, selfID)).
		Exists()
	if err != nil {
		return nil, s.fail("校验车号失败", "check bus number", err)
	}
	if exists {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("Bus number %s already exists", req.BusNumber))
	}
	return inspection, nil
}

func applyBus(b *model.Bus, req *dto.BusRequest, inspection *model.Date) {
	b.BusNumber = req.BusNumber
	b.Year = req.Year
	b.Make = req.Make
	b.Model = req.Model
	b.SeatingCapacity = req.SeatingCapacity
	b.VIN = req.VIN
	b.LicenseNumber = req.LicenseNumber
	b.Status = req.Status
	if b.Status == "" {
		b.Status = model.BusStatusActive
	}
	b.IsAvailable = b.Status == model.BusStatusActive && !b.IsDeleted
	b.CurrentOdometer = req.CurrentOdometer
	b.LastInspectionDate = inspection
}

func toBusResponse(b *model.Bus) *dto.BusResponse {
	return &dto.BusResponse{
		ID:                 b.ID,
		BusNumber:          b.BusNumber,
		Year:               b.Year,
		Make:               b.Make,
		Model:              b.Model,
		SeatingCapacity:    b.SeatingCapacity,
		VIN:                b.VIN,
		LicenseNumber:      b.LicenseNumber,
		Status:             b.Status,
		IsAvailable:        b.IsAvailable,
		CurrentOdometer:    b.CurrentOdometer,
		LastInspectionDate: dateString(b.LastInspectionDate),
		IsDeleted:          b.IsDeleted,
		AuditResponse:      auditOf(&b.BaseEntity),
	}
}
