package conflict

import (
	"context"
	"fmt"

	"busbuddy/internal/model"
	pkgerrors "busbuddy/pkg/errors"
	"busbuddy/pkg/metrics"
)

// Kind 占用来源
type Kind string

const (
	KindActivity Kind = "activity"
	KindRouteAM  Kind = "route_am"
	KindRoutePM  Kind = "route_pm"
)

// 冲突资源
const (
	ResourceVehicle = "vehicle"
	ResourceDriver  = "driver"
)

// Ref 标识一条已有占用
type Ref struct {
	Kind Kind
	ID   uint
}

func (r Ref) String() string { return fmt.Sprintf("%s#%d", r.Kind, r.ID) }

// Assignment 一条车辆 + 司机在某日某时段的占用（活动或线路的一段）
type Assignment struct {
	Ref
	VehicleID uint
	DriverID  uint
	Date      model.Date
	Start     model.TimeOfDay
	End       model.TimeOfDay
}

// Candidate 待校验的占用；Exclude 列出更新场景下自身的旧记录
type Candidate struct {
	Kind      Kind
	VehicleID uint
	DriverID  uint
	Date      model.Date
	Start     model.TimeOfDay
	End       model.TimeOfDay
	Exclude   []Ref
}

func (c Candidate) excludes(r Ref) bool {
	for _, ex := range c.Exclude {
		if ex == r {
			return true
		}
	}
	return false
}

// Validate 校验候选占用本身
func (c Candidate) Validate() error {
	var problems []string
	if c.VehicleID == 0 {
		problems = append(problems, "Vehicle is required")
	}
	if c.DriverID == 0 {
		problems = append(problems, "Driver is required")
	}
	if c.Date.IsZero() {
		problems = append(problems, "Date is required")
	}
	if !c.Start.Valid() || !c.End.Valid() {
		problems = append(problems, "Start and end time must be within the day")
	} else if c.Start >= c.End {
		problems = append(problems, "Start time must be before end time")
	}
	if len(problems) > 0 {
		return pkgerrors.NewValidation(problems...)
	}
	return nil
}

// Source 提供某日全部未删除的占用
type Source interface {
	AssignmentsOn(ctx context.Context, date model.Date) ([]Assignment, error)
}

// Conflict 检出的冲突
type Conflict struct {
	Resource   string
	ResourceID uint
	Existing   Assignment
}

// Err 转为对外的 ConflictError
func (c *Conflict) Err() *pkgerrors.ConflictError {
	return &pkgerrors.ConflictError{
		Resource:    c.Resource,
		ResourceID:  c.ResourceID,
		Date:        c.Existing.Date.String(),
		Start:       c.Existing.Start.String(),
		End:         c.Existing.End.String(),
		ExistingRef: c.Existing.Ref.String(),
	}
}

// Overlaps 半开区间相交；首尾相接不算重叠
func Overlaps(aStart, aEnd, bStart, bEnd model.TimeOfDay) bool {
	return aStart < bEnd && aEnd > bStart
}

// Find 在 existing 中查找与候选冲突的第一条占用：先查车辆，再查司机
func Find(existing []Assignment, c Candidate) *Conflict {
	for _, e := range existing {
		if e.VehicleID == c.VehicleID && clashes(e, c) {
			return &Conflict{Resource: ResourceVehicle, ResourceID: c.VehicleID, Existing: e}
		}
	}
	for _, e := range existing {
		if e.DriverID == c.DriverID && clashes(e, c) {
			return &Conflict{Resource: ResourceDriver, ResourceID: c.DriverID, Existing: e}
		}
	}
	return nil
}

func clashes(e Assignment, c Candidate) bool {
	return e.Date == c.Date && !c.excludes(e.Ref) && Overlaps(e.Start, e.End, c.Start, c.End)
}

// Detector 排班冲突检测
type Detector struct {
	source  Source
	metrics *metrics.Metrics
}

// NewDetector 创建冲突检测器；m 可为 nil
func NewDetector(source Source, m *metrics.Metrics) *Detector {
	return &Detector{source: source, metrics: m}
}

// FindConflict 返回第一条冲突；无冲突返回 (nil, nil)
func (d *Detector) FindConflict(ctx context.Context, c Candidate) (*Conflict, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	d.metrics.RecordConflictCheck(string(c.Kind))

	existing, err := d.source.AssignmentsOn(ctx, c.Date)
	if err != nil {
		return nil, err
	}
	found := Find(existing, c)
	if found != nil {
		d.metrics.RecordConflict(found.Resource)
	}
	return found, nil
}

// HasConflict 是否存在冲突
func (d *Detector) HasConflict(ctx context.Context, c Candidate) (bool, error) {
	found, err := d.FindConflict(ctx, c)
	return found != nil, err
}

// Check 存在冲突时返回 ConflictError
func (d *Detector) Check(ctx context.Context, c Candidate) error {
	found, err := d.FindConflict(ctx, c)
	if err != nil {
		return err
	}
	if found != nil {
		return found.Err()
	}
	return nil
}
