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

const maintenanceEntity = "MaintenanceRecord"

var maintenanceMessages = map[string]string{
	"VehicleID.required": "Vehicle is required",
	"Category.required":  "Category is required",
	"Category.oneof":     "Category must be one of Oil Change, Tires, Brakes, Inspection, Repair, Other",
	"Description.max":    "Description must be at most 500 characters",
	"Vendor.max":         "Vendor must be at most 100 characters",
	"Cost.gte":           "Cost must not be negative",
	"Odometer.gte":       "Odometer must not be negative",
}

const categoryInspection = "Inspection"

// MaintenanceService 维修保养业务接口
type MaintenanceService interface {
	AddMaintenanceRecord(ctx context.Context, req *dto.MaintenanceRecordRequest) (*dto.MaintenanceRecordResponse, error)
	UpdateMaintenanceRecord(ctx context.Context, id uint, req *dto.MaintenanceRecordRequest) (*dto.MaintenanceRecordResponse, error)
	DeleteMaintenanceRecord(ctx context.Context, id uint) (bool, error)
	GetMaintenanceRecordsByVehicle(ctx context.Context, vehicleID uint) ([]dto.MaintenanceRecordResponse, error)
	GetMaintenanceCost(ctx context.Context, req *dto.MaintenanceCostRequest) (*dto.MaintenanceCostResponse, error)
}

type maintenanceService struct {
	*base
}

// NewMaintenanceService 创建 MaintenanceService 实例
func NewMaintenanceService(b *base) MaintenanceService {
	return &maintenanceService{base: b}
}

// AddMaintenanceRecord 新增维修记录；年检类记录同步车辆的最近年检日期
func (s *maintenanceService) AddMaintenanceRecord(ctx context.Context, req *dto.MaintenanceRecordRequest) (*dto.MaintenanceRecordResponse, error) {
	uow := s.uows.New()
	date, bus, err := s.validateRecord(ctx, uow, req)
	if err != nil {
		return nil, err
	}

	record := &model.MaintenanceRecord{}
	applyMaintenance(record, req, date)
	if _, err := uow.MaintenanceRecords().Add(ctx, record); err != nil {
		return nil, err
	}
	if err := s.syncBus(ctx, uow, bus, record); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("新增维修记录失败", "add maintenance record", err)
	}
	return toMaintenanceResponse(record), nil
}

func (s *maintenanceService) UpdateMaintenanceRecord(ctx context.Context, id uint, req *dto.MaintenanceRecordRequest) (*dto.MaintenanceRecordResponse, error) {
	uow := s.uows.New()
	record, err := uow.MaintenanceRecords().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("查询维修记录失败", "get maintenance record", err, zap.Uint("id", id))
	}
	if record == nil || record.IsDeleted {
		return nil, pkgerrors.NewNotFound(maintenanceEntity, id)
	}
	date, bus, err := s.validateRecord(ctx, uow, req)
	if err != nil {
		return nil, err
	}

	applyMaintenance(record, req, date)
	if err := uow.MaintenanceRecords().Update(ctx, record); err != nil {
		return nil, err
	}
	if err := s.syncBus(ctx, uow, bus, record); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("修改维修记录失败", "update maintenance record", err, zap.Uint("id", id))
	}
	return toMaintenanceResponse(record), nil
}

func (s *maintenanceService) DeleteMaintenanceRecord(ctx context.Context, id uint) (bool, error) {
	uow := s.uows.New()
	ok, err := uow.MaintenanceRecords().SoftDeleteByID(ctx, id)
	if err != nil {
		return false, s.fail("查询维修记录失败", "get maintenance record", err, zap.Uint("id", id))
	}
	if !ok {
		return false, nil
	}
	if _, err := uow.Complete(ctx); err != nil {
		return false, s.fail("删除维修记录失败", "delete maintenance record", err, zap.Uint("id", id))
	}
	return true, nil
}

func (s *maintenanceService) GetMaintenanceRecordsByVehicle(ctx context.Context, vehicleID uint) ([]dto.MaintenanceRecordResponse, error) {
	records, err := s.uows.New().MaintenanceRecords().QueryNoTracking(ctx).
		Where(repository.Where("vehicle_id = ?", vehicleID)).
		OrderBy("date desc, id desc").
		List()
	if err != nil {
		return nil, s.fail("查询维修记录失败", "list maintenance records", err, zap.Uint("vehicle_id", vehicleID))
	}
	out := make([]dto.MaintenanceRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, *toMaintenanceResponse(r))
	}
	return out, nil
}

// GetMaintenanceCost 汇总日期闭区间内的维修费用，按类别拆分
func (s *maintenanceService) GetMaintenanceCost(ctx context.Context, req *dto.MaintenanceCostRequest) (*dto.MaintenanceCostResponse, error) {
	from, to, err := parseRange(&req.DateRangeRequest)
	if err != nil {
		return nil, err
	}
	preds := []repository.Predicate{repository.Where("date >= ? AND date <= ?", from, to)}
	if req.VehicleID != 0 {
		preds = append(preds, repository.Where("vehicle_id = ?", req.VehicleID))
	}
	records, err := s.uows.New().MaintenanceRecords().QueryNoTracking(ctx).Where(preds...).List()
	if err != nil {
		return nil, s.fail("汇总维修费用失败", "summarize maintenance", err)
	}

	resp := &dto.MaintenanceCostResponse{
		VehicleID:  req.VehicleID,
		From:       from.String(),
		To:         to.String(),
		Records:    len(records),
		ByCategory: make(map[string]float64),
	}
	for _, r := range records {
		resp.TotalCost += r.Cost
		resp.ByCategory[r.Category] += r.Cost
	}
	return resp, nil
}

func (s *maintenanceService) validateRecord(ctx context.Context, uow *repository.UnitOfWork, req *dto.MaintenanceRecordRequest) (model.Date, *model.Bus, error) {
	var p problems
	p.addStruct(s.validate, req, maintenanceMessages)
	date := p.date("Date", req.Date)
	if err := p.err(); err != nil {
		return model.Date{}, nil, err
	}
	bus, err := uow.Buses().GetByID(ctx, req.VehicleID)
	if err != nil {
		return model.Date{}, nil, s.fail("查询车辆失败", "get bus", err, zap.Uint("id", req.VehicleID))
	}
	if bus == nil || bus.IsDeleted {
		return model.Date{}, nil, pkgerrors.NewValidation(fmt.Sprintf("Vehicle %d does not exist", req.VehicleID))
	}
	return date, bus, nil
}

// syncBus 里程与年检日期只前进不后退
func (s *maintenanceService) syncBus(ctx context.Context, uow *repository.UnitOfWork, bus *model.Bus, r *model.MaintenanceRecord) error {
	changed := false
	if r.Odometer > bus.CurrentOdometer {
		bus.CurrentOdometer = r.Odometer
		changed = true
	}
	if r.Category == categoryInspection && (bus.LastInspectionDate == nil || r.Date.After(*bus.LastInspectionDate)) {
		d := r.Date
		bus.LastInspectionDate = &d
		changed = true
	}
	if !changed {
		return nil
	}
	return uow.Buses().Update(ctx, bus)
}

func applyMaintenance(r *model.MaintenanceRecord, req *dto.MaintenanceRecordRequest, date model.Date) {
	r.VehicleID = req.VehicleID
	r.Date = date
	r.Category = req.Category
	r.Description = req.Description
	r.Vendor = req.Vendor
	r.Cost = req.Cost
	r.Odometer = req.Odometer
}

func toMaintenanceResponse(r *model.MaintenanceRecord) *dto.MaintenanceRecordResponse {
	return &dto.MaintenanceRecordResponse{
		ID:            r.ID,
		VehicleID:     r.VehicleID,
		Date:          r.Date.String(),
		Category:      r.Category,
		Description:   r.Description,
		Vendor:        r.Vendor,
		Cost:          r.Cost,
		Odometer:      r.Odometer,
		AuditResponse: auditOf(&r.BaseEntity),
	}
}
