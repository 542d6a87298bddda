package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busbuddy/internal/dto"
	pkgerrors "busbuddy/pkg/errors"
)

// scheduleFixture V1/D1 在 2025-01-01 08:00-10:00 已有一条排班
type scheduleFixture struct {
	svc            *Service
	v1, v2, d1, d2 uint
	existing       *dto.ScheduleResponse
}

func newScheduleFixture(t *testing.T, locker Locker) *scheduleFixture {
	t.Helper()
	svc := newTestService(t, locker)
	f := &scheduleFixture{
		svc: svc,
		v1:  seedBus(t, svc, "BUS-001"),
		v2:  seedBus(t, svc, "BUS-002"),
		d1:  seedDriver(t, svc, "Dana Driver", "D-1001"),
		d2:  seedDriver(t, svc, "Eli Driver", "D-1002"),
	}
	existing, err := svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v1, f.d1, "2025-01-01", "08:00", "10:00"))
	require.NoError(t, err)
	f.existing = existing
	return f
}

func (f *scheduleFixture) count(t *testing.T) int {
	t.Helper()
	list, err := f.svc.Schedule.GetSchedulesByDateRange(context.Background(), &dto.DateRangeRequest{From: "2025-01-01", To: "2025-12-31"})
	require.NoError(t, err)
	return len(list)
}

func TestAddSchedule_StampsActor(t *testing.T) {
	f := newScheduleFixture(t, nil)

	assert.NotZero(t, f.existing.ID)
	assert.Equal(t, "dispatcher@district", f.existing.CreatedBy)
	assert.NotEmpty(t, f.existing.CreatedDate)
	assert.Nil(t, f.existing.UpdatedDate)
	assert.Equal(t, "Scheduled", f.existing.Status)
}

func TestAddSchedule_ConflictScenarios(t *testing.T) {
	tests := []struct {
		name     string
		vehicle  func(f *scheduleFixture) uint
		driver   func(f *scheduleFixture) uint
		window   [3]string // date, start, end
		resource string    // 为空表示无冲突
	}{
		{
			name:     "同车不同司机时段重叠",
			vehicle:  func(f *scheduleFixture) uint { return f.v1 },
			driver:   func(f *scheduleFixture) uint { return f.d2 },
			window:   [3]string{"2025-01-01", "09:00", "11:00"},
			resource: "vehicle",
		},
		{
			name:     "同司机不同车时段重叠",
			vehicle:  func(f *scheduleFixture) uint { return f.v2 },
			driver:   func(f *scheduleFixture) uint { return f.d1 },
			window:   [3]string{"2025-01-01", "09:00", "11:00"},
			resource: "driver",
		},
		{
			name:    "首尾相接不算冲突",
			vehicle: func(f *scheduleFixture) uint { return f.v1 },
			driver:  func(f *scheduleFixture) uint { return f.d2 },
			window:  [3]string{"2025-01-01", "10:00", "12:00"},
		},
		{
			name:    "不同日期不冲突",
			vehicle: func(f *scheduleFixture) uint { return f.v1 },
			driver:  func(f *scheduleFixture) uint { return f.d2 },
			window:  [3]string{"2025-01-02", "09:00", "11:00"},
		},
		{
			name:     "完全包含",
			vehicle:  func(f *scheduleFixture) uint { return f.v1 },
			driver:   func(f *scheduleFixture) uint { return f.d2 },
			window:   [3]string{"2025-01-01", "08:30", "09:30"},
			resource: "vehicle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newScheduleFixture(t, nil)
			before := f.count(t)

			_, err := f.svc.Schedule.AddSchedule(dispatcherCtx(),
				scheduleReq(tt.vehicle(f), tt.driver(f), tt.window[0], tt.window[1], tt.window[2]))

			if tt.resource == "" {
				require.NoError(t, err)
				assert.Equal(t, before+1, f.count(t))
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, pkgerrors.ErrConflict))
			assert.Contains(t, err.Error(), "conflict detected")
			var ce *pkgerrors.ConflictError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.resource, ce.Resource)
			assert.Equal(t, "08:00", ce.Start)
			assert.Equal(t, "10:00", ce.End)
			// 冲突被拒绝时不得产生任何写入
			assert.Equal(t, before, f.count(t))
		})
	}
}

func TestAddSchedule_ConflictsWithRouteLeg(t *testing.T) {
	f := newScheduleFixture(t, nil)
	_, err := f.svc.Route.CreateRoute(dispatcherCtx(), &dto.CreateRouteRequest{
		Name: "North Loop",
		Date: "2025-01-03",
		AM:   &dto.RouteLegRequest{VehicleID: f.v2, DriverID: f.d2, StartTime: "06:30", EndTime: "08:00"},
	})
	require.NoError(t, err)

	_, err = f.svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v2, f.d1, "2025-01-03", "07:30", "09:00"))
	var ce *pkgerrors.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "vehicle", ce.Resource)
	assert.Contains(t, ce.ExistingRef, "route_am#")
}

func TestAddSchedule_ValidationListsAllProblems(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Schedule.AddSchedule(dispatcherCtx(), &dto.CreateScheduleRequest{
		Date:      "01/02/2025",
		StartTime: "10:00",
		EndTime:   "09:00",
	})

	var ve *pkgerrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Problems, "Activity type is required")
	assert.Contains(t, ve.Problems, "Date must be in YYYY-MM-DD format")
	assert.Contains(t, ve.Problems, "Start time must be before end time")
	assert.Contains(t, ve.Problems, "Vehicle is required")
	assert.Contains(t, ve.Problems, "Driver is required")
}

func TestAddSchedule_UnknownOrDeletedResources(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ok, err := f.svc.Bus.DeleteBus(dispatcherCtx(), f.v2)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v2, 999, "2025-02-01", "08:00", "09:00"))

	var ve *pkgerrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Problems, "Vehicle 2 does not exist")
	assert.Contains(t, ve.Problems, "Driver 999 does not exist")
}

func TestUpdateSchedule_SelfExclusion(t *testing.T) {
	f := newScheduleFixture(t, nil)

	// 在自身原时段内平移，不应与自己冲突
	updated, err := f.svc.Schedule.UpdateSchedule(dispatcherCtx(), f.existing.ID, &dto.UpdateScheduleRequest{
		StartTime:   strPtr("08:30"),
		EndTime:     strPtr("10:30"),
		Description: strPtr("leave a little later"),
	})
	require.NoError(t, err)
	assert.Equal(t, "08:30", updated.StartTime)
	assert.Equal(t, "10:30", updated.EndTime)
	require.NotNil(t, updated.UpdatedDate)
	assert.GreaterOrEqual(t, *updated.UpdatedDate, updated.CreatedDate)
	assert.Equal(t, f.existing.CreatedDate, updated.CreatedDate)
}

func TestUpdateSchedule_MoveIntoConflict(t *testing.T) {
	f := newScheduleFixture(t, nil)
	other, err := f.svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v2, f.d2, "2025-01-01", "13:00", "14:00"))
	require.NoError(t, err)

	_, err = f.svc.Schedule.UpdateSchedule(dispatcherCtx(), other.ID, &dto.UpdateScheduleRequest{
		DriverID:  uintPtr(f.d1),
		StartTime: strPtr("09:30"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrConflict))

	// 被拒绝的修改不落库
	got, err := f.svc.Schedule.GetSchedule(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, f.d2, got.DriverID)
	assert.Equal(t, "13:00", got.StartTime)
}

func TestUpdateSchedule_NotFound(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Schedule.UpdateSchedule(dispatcherCtx(), 42, &dto.UpdateScheduleRequest{Description: strPtr("x")})

	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
}

func TestDeleteSchedule_FreesSlotAndRestoreRechecks(t *testing.T) {
	f := newScheduleFixture(t, nil)

	ok, err := f.svc.Schedule.DeleteSchedule(dispatcherCtx(), f.existing.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.Schedule.DeleteSchedule(dispatcherCtx(), f.existing.ID)
	require.NoError(t, err)
	assert.False(t, ok, "重复删除返回 false")

	_, err = f.svc.Schedule.GetSchedule(context.Background(), f.existing.ID)
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))

	// 已删除的排班不再占用车辆
	taken, err := f.svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v1, f.d2, "2025-01-01", "09:00", "11:00"))
	require.NoError(t, err)

	// 时段已被占用，恢复被拒绝
	_, err = f.svc.Schedule.RestoreSchedule(dispatcherCtx(), f.existing.ID)
	assert.True(t, errors.Is(err, pkgerrors.ErrConflict))

	ok, err = f.svc.Schedule.DeleteSchedule(dispatcherCtx(), taken.ID)
	require.NoError(t, err)
	require.True(t, ok)

	restored, err := f.svc.Schedule.RestoreSchedule(dispatcherCtx(), f.existing.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
}

func TestCancelledScheduleDoesNotOccupy(t *testing.T) {
	f := newScheduleFixture(t, nil)
	_, err := f.svc.Schedule.UpdateSchedule(dispatcherCtx(), f.existing.ID, &dto.UpdateScheduleRequest{
		Status: strPtr("Cancelled"),
	})
	require.NoError(t, err)

	other, err := f.svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v1, f.d2, "2025-01-01", "09:00", "11:00"))
	require.NoError(t, err)

	// 重新启用已取消的排班需要重新检测
	_, err = f.svc.Schedule.UpdateSchedule(dispatcherCtx(), f.existing.ID, &dto.UpdateScheduleRequest{
		Status: strPtr("Scheduled"),
	})
	assert.True(t, errors.Is(err, pkgerrors.ErrConflict))
	assert.NotZero(t, other.ID)
}

func TestValidateScheduleConflict(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Schedule.ValidateScheduleConflict(ctx, &dto.ValidateScheduleRequest{
		Date:      "2025-01-01",
		StartTime: "09:00",
		EndTime:   "11:00",
		VehicleID: f.v2,
		DriverID:  f.d1,
	})
	require.NoError(t, err)
	assert.True(t, res.HasConflict)
	require.NotNil(t, res.Conflict)
	assert.Equal(t, "driver", res.Conflict.Resource)
	assert.Equal(t, f.d1, res.Conflict.ResourceID)
	assert.Contains(t, res.Conflict.Message, "conflict detected")

	// 自身排除
	res, err = f.svc.Schedule.ValidateScheduleConflict(ctx, &dto.ValidateScheduleRequest{
		Date:      "2025-01-01",
		StartTime: "08:00",
		EndTime:   "10:00",
		VehicleID: f.v1,
		DriverID:  f.d1,
		ExcludeID: uintPtr(f.existing.ID),
	})
	require.NoError(t, err)
	assert.False(t, res.HasConflict)
	assert.Nil(t, res.Conflict)
}

func TestScheduleQueries(t *testing.T) {
	f := newScheduleFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v2, f.d2, "2025-01-05", "08:00", "09:00"))
	require.NoError(t, err)
	_, err = f.svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v1, f.d2, "2025-01-03", "08:00", "09:00"))
	require.NoError(t, err)

	byVehicle, err := f.svc.Schedule.GetSchedulesByVehicle(ctx, f.v1)
	require.NoError(t, err)
	require.Len(t, byVehicle, 2)
	assert.Equal(t, "2025-01-01", byVehicle[0].Date)
	assert.Equal(t, "2025-01-03", byVehicle[1].Date)

	byDriver, err := f.svc.Schedule.GetSchedulesByDriver(ctx, f.d2)
	require.NoError(t, err)
	assert.Len(t, byDriver, 2)

	inRange, err := f.svc.Schedule.GetSchedulesByDateRange(ctx, &dto.DateRangeRequest{From: "2025-01-02", To: "2025-01-04"})
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, "2025-01-03", inRange[0].Date)

	_, err = f.svc.Schedule.GetSchedulesByDateRange(ctx, &dto.DateRangeRequest{From: "2025-01-04", To: "2025-01-02"})
	assert.True(t, errors.Is(err, pkgerrors.ErrValidation))

	page, total, err := f.svc.Schedule.ListSchedules(ctx, &dto.ScheduleListRequest{
		PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2, OrderBy: "date desc"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "2025-01-05", page[0].Date)

	_, _, err = f.svc.Schedule.ListSchedules(ctx, &dto.ScheduleListRequest{
		PaginationRequest: dto.PaginationRequest{OrderBy: "date; drop table activities"},
	})
	assert.True(t, errors.Is(err, pkgerrors.ErrValidation))
}

func TestAddSchedule_Locks(t *testing.T) {
	locker := &fakeLocker{}
	f := newScheduleFixture(t, locker)

	require.Len(t, locker.acquired, 1)
	assert.Equal(t, []string{
		"driver:1:2025-01-01",
		"vehicle:1:2025-01-01",
	}, locker.acquired[0])
	assert.Equal(t, 1, locker.released)

	locker.busy = true
	_, err := f.svc.Schedule.AddSchedule(dispatcherCtx(), scheduleReq(f.v2, f.d2, "2025-01-01", "12:00", "13:00"))
	assert.ErrorIs(t, err, ErrScheduleBusy)
}
