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

const driverEntity = "Driver"

var driverMessages = map[string]string{
	"Name.required":          "Driver name is required",
	"Name.max":               "Driver name must be at most 100 characters",
	"LicenseNumber.required": "License number is required",
	"LicenseNumber.max":      "License number must be at most 30 characters",
	"LicenseClass.max":       "License class must be at most 10 characters",
	"Phone.phone":            "Invalid phone number format",
	"Email.email":            "Invalid email format",
	"Email.max":              "Email must be at most 255 characters",
	"Status.oneof":           "Status must be one of Active, Inactive, OnLeave",
}

// DriverService 司机业务接口
type DriverService interface {
	AddDriver(ctx context.Context, req *dto.DriverRequest) (*dto.DriverResponse, error)
	UpdateDriver(ctx context.Context, id uint, req *dto.DriverRequest) (*dto.DriverResponse, error)
	DeleteDriver(ctx context.Context, id uint) (bool, error)
	GetDriver(ctx context.Context, id uint) (*dto.DriverResponse, error)
	GetAllDrivers(ctx context.Context) ([]dto.DriverResponse, error)
}

type driverService struct {
	*base
}

// NewDriverService 创建 DriverService 实例
func NewDriverService(b *base) DriverService {
	return &driverService{base: b}
}

func (s *driverService) AddDriver(ctx context.Context, req *dto.DriverRequest) (*dto.DriverResponse, error) {
	uow := s.uows.New()
	hireDate, err := s.validateDriver(ctx, uow, 0, req)
	if err != nil {
		return nil, err
	}
	driver := &model.Driver{}
	applyDriver(driver, req, hireDate)
	if _, err := uow.Drivers().Add(ctx, driver); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("新增司机失败", "add driver", err)
	}
	return toDriverResponse(driver), nil
}

func (s *driverService) UpdateDriver(ctx context.Context, id uint, req *dto.DriverRequest) (*dto.DriverResponse, error) {
	uow := s.uows.New()
	driver, err := uow.Drivers().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("查询司机失败", "get driver", err, zap.Uint("id", id))
	}
	if driver == nil || driver.IsDeleted {
		return nil, pkgerrors.NewNotFound(driverEntity, id)
	}
	hireDate, err := s.validateDriver(ctx, uow, id, req)
	if err != nil {
		return nil, err
	}
	applyDriver(driver, req, hireDate)
	if err := uow.Drivers().Update(ctx, driver); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("修改司机失败", "update driver", err, zap.Uint("id", id))
	}
	return toDriverResponse(driver), nil
}

func (s *driverService) DeleteDriver(ctx context.Context, id uint) (bool, error) {
	uow := s.uows.New()
	ok, err := uow.Drivers().SoftDeleteByID(ctx, id)
	if err != nil {
		return false, s.fail("查询司机失败", "get driver", err, zap.Uint("id", id))
	}
	if !ok {
		return false, nil
	}
	if _, err := uow.Complete(ctx); err != nil {
		return false, s.fail("删除司机失败", "delete driver", err, zap.Uint("id", id))
	}
	return true, nil
}

// GetDriver 已软删除的司机视为不存在
func (s *driverService) GetDriver(ctx context.Context, id uint) (*dto.DriverResponse, error) {
	driver, err := s.uows.New().Drivers().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("查询司机失败", "get driver", err, zap.Uint("id", id))
	}
	if driver == nil || driver.IsDeleted {
		return nil, pkgerrors.NewNotFound(driverEntity, id)
	}
	return toDriverResponse(driver), nil
}

func (s *driverService) GetAllDrivers(ctx context.Context) ([]dto.DriverResponse, error) {
	drivers, err := s.uows.New().Drivers().QueryNoTracking(ctx).OrderBy("name").List()
	if err != nil {
		return nil, s.fail("查询司机列表失败", "list drivers", err)
	}
	out := make([]dto.DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, *toDriverResponse(d))
	}
	return out, nil
}

func (s *driverService) validateDriver(ctx context.Context, uow *repository.UnitOfWork, selfID uint, req *dto.DriverRequest) (*model.Date, error) {
	var p problems
	p.addStruct(s.validate, req, driverMessages)
	hireDate := p.optionalDate("Hire date", req.HireDate)
	if err := p.err(); err != nil {
		return nil, err
	}
	exists, err := uow.Drivers().QueryNoTracking(ctx).
		IncludeDeleted().
		Where(repository.Where("license_number = ? AND id <> ?", req.LicenseNumber, selfID)).
		Exists()
	if err != nil {
		return nil, s.fail("校验驾照号失败", "check license number", err)
	}
	if exists {
		return nil, pkgerrors.NewValidation(fmt.Sprintf("License number %s already exists", req.LicenseNumber))
	}
	return hireDate, nil
}

func applyDriver(d *model.Driver, req *dto.DriverRequest, hireDate *model.Date) {
	d.Name = req.Name
	d.LicenseNumber = req.LicenseNumber
	d.LicenseClass = req.LicenseClass
	d.Phone = req.Phone
	d.Email = req.Email
	d.Status = req.Status
	if d.Status == "" {
		d.Status = model.DriverStatusActive
	}
	d.HireDate = hireDate
}

func toDriverResponse(d *model.Driver) *dto.DriverResponse {
	return &dto.DriverResponse{
		ID:            d.ID,
		Name:          d.Name,
		LicenseNumber: d.LicenseNumber,
		LicenseClass:  d.LicenseClass,
		Phone:         d.Phone,
		Email:         d.Email,
		Status:        d.Status,
		HireDate:      dateString(d.HireDate),
		AuditResponse: auditOf(&d.BaseEntity),
	}
}
