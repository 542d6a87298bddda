package service

import (
	"context"

	"busbuddy/internal/conflict"
	"busbuddy/internal/model"
	"busbuddy/internal/repository"
)

// assignmentSource 以活动与线路的上午/下午段作为占用来源。
// 只读且不进入身份映射；在 Guard 内调用时读取的是提交事务。
type assignmentSource struct {
	uow *repository.UnitOfWork
}

func (s assignmentSource) AssignmentsOn(ctx context.Context, date model.Date) ([]conflict.Assignment, error) {
	// 已取消的活动不再占用车辆与司机
	activities, err := s.uow.Activities().QueryNoTracking(ctx).
		Where(repository.Where("date = ? AND status <> ?", date, model.ActivityStatusCancelled)).
		List()
	if err != nil {
		return nil, err
	}
	routes, err := s.uow.Routes().QueryNoTracking(ctx).
		Where(repository.Where("date = ?", date)).
		List()
	if err != nil {
		return nil, err
	}

	out := make([]conflict.Assignment, 0, len(activities)+2*len(routes))
	for _, a := range activities {
		out = append(out, activityAssignment(a))
	}
	for _, r := range routes {
		out = append(out, routeAssignments(r)...)
	}
	return out, nil
}

func activityAssignment(a *model.Activity) conflict.Assignment {
	return conflict.Assignment{
		Ref:       conflict.Ref{Kind: conflict.KindActivity, ID: a.ID},
		VehicleID: a.VehicleID,
		DriverID:  a.DriverID,
		Date:      a.Date,
		Start:     a.StartTime,
		End:       a.EndTime,
	}
}

// routeAssignments 线路中已完整配置的各段
func routeAssignments(r *model.Route) []conflict.Assignment {
	var out []conflict.Assignment
	if leg, ok := r.AMLeg(); ok {
		out = append(out, legAssignment(r, conflict.KindRouteAM, leg))
	}
	if leg, ok := r.PMLeg(); ok {
		out = append(out, legAssignment(r, conflict.KindRoutePM, leg))
	}
	return out
}

func legAssignment(r *model.Route, kind conflict.Kind, leg model.RouteLeg) conflict.Assignment {
	return conflict.Assignment{
		Ref:       conflict.Ref{Kind: kind, ID: r.ID},
		VehicleID: leg.VehicleID,
		DriverID:  leg.DriverID,
		Date:      r.Date,
		Start:     leg.Start,
		End:       leg.End,
	}
}
