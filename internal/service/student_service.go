package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"busbuddy/internal/dto"
	"busbuddy/internal/model"
	"busbuddy/internal/repository"
	pkgerrors "busbuddy/pkg/errors"
)

const studentEntity = "Student"

var studentMessages = map[string]string{
	"Name.required":        "Student name is required",
	"Name.max":             "Student name must be at most 100 characters",
	"StudentNumber.max":    "Student number must be at most 20 characters",
	"Grade.max":            "Grade must be at most 10 characters",
	"School.max":           "School must be at most 100 characters",
	"HomeAddress.max":      "Home address must be at most 255 characters",
	"HomePhone.phone":      "Invalid home phone number format",
	"ParentGuardian.max":   "Parent/guardian must be at most 100 characters",
	"EmergencyPhone.phone": "Invalid emergency phone number format",
}

// StudentService 学生业务接口
type StudentService interface {
	AddStudent(ctx context.Context, req *dto.StudentRequest) (*dto.StudentResponse, error)
	UpdateStudent(ctx context.Context, id uint, req *dto.StudentRequest) (*dto.StudentResponse, error)
	DeleteStudent(ctx context.Context, id uint) (bool, error)
	GetStudent(ctx context.Context, id uint) (*dto.StudentResponse, error)
	ListStudents(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error)
	GetStudentsByRoute(ctx context.Context, routeID uint) ([]dto.StudentResponse, error)
}

type studentService struct {
	*base
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(b *base) StudentService {
	return &studentService{base: b}
}

func (s *studentService) AddStudent(ctx context.Context, req *dto.StudentRequest) (*dto.StudentResponse, error) {
	uow := s.uows.New()
	if err := s.validateStudent(ctx, uow, req); err != nil {
		return nil, err
	}

	student := &model.Student{Active: true}
	applyStudent(student, req)
	if _, err := uow.Students().Add(ctx, student); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("新增学生失败", "add student", err)
	}
	return toStudentResponse(student), nil
}

func (s *studentService) UpdateStudent(ctx context.Context, id uint, req *dto.StudentRequest) (*dto.StudentResponse, error) {
	uow := s.uows.New()
	student, err := uow.Students().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("查询学生失败", "get student", err, zap.Uint("id", id))
	}
	if student == nil || student.IsDeleted {
		return nil, pkgerrors.NewNotFound(studentEntity, id)
	}
	if err := s.validateStudent(ctx, uow, req); err != nil {
		return nil, err
	}

	applyStudent(student, req)
	if err := uow.Students().Update(ctx, student); err != nil {
		return nil, err
	}
	if _, err := uow.Complete(ctx); err != nil {
		return nil, s.fail("修改学生失败", "update student", err, zap.Uint("id", id))
	}
	return toStudentResponse(student), nil
}

func (s *studentService) DeleteStudent(ctx context.Context, id uint) (bool, error) {
	uow := s.uows.New()
	ok, err := uow.Students().SoftDeleteByID(ctx, id)
	if err != nil {
		return false, s.fail("查询学生失败", "get student", err, zap.Uint("id", id))
	}
	if !ok {
		return false, nil
	}
	if _, err := uow.Complete(ctx); err != nil {
		return false, s.fail("删除学生失败", "delete student", err, zap.Uint("id", id))
	}
	return true, nil
}

func (s *studentService) GetStudent(ctx context.Context, id uint) (*dto.StudentResponse, error) {
	student, err := s.uows.New().Students().GetByID(ctx, id)
	if err != nil {
		return nil, s.fail("查询学生失败", "get student", err, zap.Uint("id", id))
	}
	if student == nil || student.IsDeleted {
		return nil, pkgerrors.NewNotFound(studentEntity, id)
	}
	return toStudentResponse(student), nil
}

// ListStudents 分页；Search 按姓名模糊匹配（不区分大小写）
func (s *studentService) ListStudents(ctx context.Context, req *dto.StudentListRequest) ([]dto.StudentResponse, int64, error) {
	var where repository.Predicate
	if search := strings.TrimSpace(req.Search); search != "" {
		where = repository.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	orderBy := req.OrderBy
	if orderBy == "" {
		orderBy = "name"
	}
	students, total, err := s.uows.New().Students().GetPaged(ctx, req.GetPage(), req.GetPageSize(), where, orderBy)
	if err != nil {
		return nil, 0, s.fail("分页查询学生失败", "list students", err)
	}
	return toStudentResponses(students), total, nil
}

func (s *studentService) GetStudentsByRoute(ctx context.Context, routeID uint) ([]dto.StudentResponse, error) {
	students, err := s.uows.New().Students().QueryNoTracking(ctx).
		Where(repository.Where("route_id = ?", routeID)).
		OrderBy("name").
		List()
	if err != nil {
		return nil, s.fail("查询线路学生失败", "list route students", err, zap.Uint("route_id", routeID))
	}
	return toStudentResponses(students), nil
}

// validateStudent 一次返回全部问题；格式问题先于引用检查
func (s *studentService) validateStudent(ctx context.Context, uow *repository.UnitOfWork, req *dto.StudentRequest) error {
	var p problems
	p.addStruct(s.validate, req, studentMessages)
	if err := p.err(); err != nil {
		return err
	}
	if req.RouteID != nil {
		route, err := uow.Routes().GetByID(ctx, *req.RouteID)
		if err != nil {
			return s.fail("查询线路失败", "get route", err, zap.Uint("id", *req.RouteID))
		}
		if route == nil || route.IsDeleted {
			p.add("Route %d does not exist", *req.RouteID)
		}
	}
	return p.err()
}

func applyStudent(st *model.Student, req *dto.StudentRequest) {
	st.Name = strings.TrimSpace(req.Name)
	st.StudentNumber = req.StudentNumber
	st.Grade = req.Grade
	st.School = req.School
	st.HomeAddress = req.HomeAddress
	st.HomePhone = req.HomePhone
	st.ParentGuardian = req.ParentGuardian
	st.EmergencyPhone = req.EmergencyPhone
	st.RouteID = req.RouteID
	if req.Active != nil {
		st.Active = *req.Active
	}
}

func toStudentResponses(students []*model.Student) []dto.StudentResponse {
	out := make([]dto.StudentResponse, 0, len(students))
	for _, st := range students {
		out = append(out, *toStudentResponse(st))
	}
	return out
}

func toStudentResponse(st *model.Student) *dto.StudentResponse {
	return &dto.StudentResponse{
		ID:             st.ID,
		Name:           st.Name,
		StudentNumber:  st.StudentNumber,
		Grade:          st.Grade,
		School:         st.School,
		HomeAddress:    st.HomeAddress,
		HomePhone:      st.HomePhone,
		ParentGuardian: st.ParentGuardian,
		EmergencyPhone: st.EmergencyPhone,
		RouteID:        st.RouteID,
		Active:         st.Active,
		AuditResponse:  auditOf(&st.BaseEntity),
	}
}
