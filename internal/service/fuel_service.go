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

var fuelMessages = map[string]string{
	"VehicleID.required": "Vehicle is required",
	"Gallons.gt":         "Gallons must be greater than 0",
	"PricePerGallon.gte": "Price per gallon must not be negative",
	"Odometer.gte":       "Odometer must not be negative",
	"Location.max":       "Location must be at most 100 characters",
	"FuelType.oneof":     "Fuel type must be one of Diesel, Gasoline, Propane, Electric",
}

// FuelService 加油记录业务接口。加油记录不支持软删除，删除即物理删除。
type FuelService interface {
	AddFuelRecord(ctx context.Context, req *dto.CreateFuelRecordRequest) (*dto.FuelRecordResponse, error)
	DeleteFuelRecord(ctx context.Context, id uint) (bool, error)
	GetFuelRecordsByVehicle(ctx context.Context, vehicleID uint) ([]dto.FuelRecordResponse, error)
	GetFuelSummary(ctx context.Context, req *dto.FuelSummaryRequest) (*dto.FuelSummaryResponse, error)
}

type fuelService struct {
	*base
}

// NewFuelService 创建 FuelService 实例
func NewFuelService(b *base) FuelService {
	return &fuelService{base: b}
}

// AddFuelRecord 新增加油记录；里程数更大时同步车辆当前里程（同一事务）
func (s *fuelService) AddFuelRecord(ctx context.Context, req *dto.CreateFuelRecordRequest) (*dto.FuelRecordResponse, error) {
	var p problems
	p.addStruct(s.validate, req, fuelMessages)
	date := p.date("Date", req.Date)
	if err := p.err(); err != nil {
		return nil, err
	}

	uow := s.uows.New()
	bus, err := uow.Buses().GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, s.fail("查询车辆失败", "get bus", err, zap.Uint("id", req.VehicleID))
	}
	if bus == nil || bus.IsDeleted {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("Vehicle %d does not exist", req.VehicleID))
	}

	record := &model.FuelRecord{
		VehicleID:      req.VehicleID,
		Date:           date,
		Gallons:        req.Gallons,
		PricePerGallon: req.PricePerGallon,
		Odometer:       req.Odometer,
		Location:       req.Location,
		FuelType:       req.FuelType,
	}
	if record.FuelType == "" {
		record.FuelType = "Diesel"
	}
	if _, err := uow.FuelRecords().Add(ctx, record); err != nil {
		return nil, err
	}
	if req.Odometer > bus.CurrentOdometer {
		bus.CurrentOdometer = req.Odometer
		if err := uow.Buses().Update(ctx, bus); err != nil {
			return nil, err
		}
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("新增加油记录失败", "add fuel record", err)
	}
	return toFuelRecordResponse(record), nil
}

func (s *fuelService) DeleteFuelRecord(ctx context.Context, id uint) (bool, error) {
	uow := s.uows.New()
	record, err := uow.FuelRecords().GetByID(ctx, id)
	if err != nil {
		return false, s.fail("查询加油记录失败", "get fuel record", err, zap.Uint("id", id))
	}
	if record == nil {
		return false, nil
	}
	if err := uow.FuelRecords().Remove(ctx, record); err != nil {
		return false, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return false, s.fail("删除加油记录失败", "delete fuel record", err, zap.Uint("id", id))
	}
	return true, nil
}

func (s *fuelService) GetFuelRecordsByVehicle(ctx context.Context, vehicleID uint) ([]dto.FuelRecordResponse, error) {
	records, err := s.uows.New().FuelRecords().QueryNoTracking(ctx).
		Where(repository.Where("vehicle_id = ?", vehicleID)).
		OrderBy("date desc, id desc").
		List()
	if err != nil {
		return nil, s.fail("查询加油记录失败", "list fuel records", err, zap.Uint("vehicle_id", vehicleID))
	}
	out := make([]dto.FuelRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, *toFuelRecordResponse(r))
	}
	return out, nil
}

// GetFuelSummary 汇总日期闭区间内的加油量与金额
func (s *fuelService) GetFuelSummary(ctx context.Context, req *dto.FuelSummaryRequest) (*dto.FuelSummaryResponse, error) {
	from, to, err := parseRange(&req.DateRangeRequest)
	if err != nil {
		return nil, err
	}
	preds := []repository.Predicate{repository.Where("date >= ? AND date <= ?", from, to)}
	if req.VehicleID != 0 {
		preds = append(preds, repository.Where("vehicle_id = ?", req.VehicleID))
	}
	records, err := s.uows.New().FuelRecords().QueryNoTracking(ctx).Where(preds...).List()
	if err != nil {
		return nil, s.fail("汇总加油记录失败", "summarize fuel", err)
	}

	resp := &dto.FuelSummaryResponse{
		VehicleID: req.VehicleID,
		From:      from.String(),
		To:        to.String(),
		Records:   len(records),
	}
	for _, r := range records {
		resp.TotalGallons += r.Gallons
		resp.TotalCost += r.TotalCost()
	}
	if resp.TotalGallons > 0 {
		resp.AveragePricePerUnit = resp.TotalCost / resp.TotalGallons
	}
	return resp, nil
}

// parseRange 解析日期闭区间
func parseRange(req *dto.DateRangeRequest) (model.Date, model.Date, error) {
	var p problems
	from := p.date("From date", req.From)
	to := p.date("To date", req.To)
	if len(p) == 0 && from.After(to) {
		p.add("From date must not be after to date")
	}
	return from, to, p.err()
}

func toFuelRecordResponse(r *model.FuelRecord) *dto.FuelRecordResponse {
	return &dto.FuelRecordResponse{
		ID:             r.ID,
		VehicleID:      r.VehicleID,
		Date:           r.Date.String(),
		Gallons:        r.Gallons,
		PricePerGallon: r.PricePerGallon,
		TotalCost:      r.TotalCost(),
		Odometer:       r.Odometer,
		Location:       r.Location,
		FuelType:       r.FuelType,
		AuditResponse:  auditOf(&r.BaseEntity),
	}
}
