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

// 删除策略：软删除 + IsAvailable=false；列表不再返回，按 ID 仍可取到
func TestDeleteBus_SoftDeletePolicy(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := dispatcherCtx()
	keep := seedBus(t, svc, "BUS-001")
	gone := seedBus(t, svc, "BUS-002")

	ok, err := svc.Bus.DeleteBus(ctx, gone)
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := svc.Bus.GetAllBuses(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep, all[0].ID)

	got, err := svc.Bus.GetBus(ctx, gone)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.False(t, got.IsAvailable)
	require.NotNil(t, got.UpdatedBy)
	assert.Equal(t, "dispatcher@district", *got.UpdatedBy)

	ok, err = svc.Bus.DeleteBus(ctx, gone)
	require.NoError(t, err)
	assert.False(t, ok)

	restored, err := svc.Bus.RestoreBus(ctx, gone)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.True(t, restored.IsAvailable)

	all, err = svc.Bus.GetAllBuses(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAddBus_Validation(t *testing.T) {
	svc := newTestService(t, nil)
	seedBus(t, svc, "BUS-001")

	_, err := svc.Bus.AddBus(dispatcherCtx(), &dto.BusRequest{
		BusNumber:       "BUS-001",
		Year:            2020,
		Make:            "Thomas",
		Model:           "C2",
		SeatingCapacity: 48,
	})
	var ve *pkgerrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Bus number BUS-001 already exists"}, ve.Problems)

	_, err = svc.Bus.AddBus(dispatcherCtx(), &dto.BusRequest{Year: 1900, VIN: "SHORT", SeatingCapacity: 0})
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Problems, "Bus number is required")
	assert.Contains(t, ve.Problems, "Year must be between 1950 and 2100")
	assert.Contains(t, ve.Problems, "Make is required")
	assert.Contains(t, ve.Problems, "Seating capacity must be between 1 and 100")
	assert.Contains(t, ve.Problems, "VIN must be exactly 17 characters")
}

func TestUpdateBus_StatusDrivesAvailability(t *testing.T) {
	svc := newTestService(t, nil)
	id := seedBus(t, svc, "BUS-001")

	updated, err := svc.Bus.UpdateBus(dispatcherCtx(), id, &dto.BusRequest{
		BusNumber:          "BUS-001",
		Year:               2021,
		Make:               "Blue Bird",
		Model:              "Vision",
		SeatingCapacity:    72,
		Status:             "Maintenance",
		LastInspectionDate: "2025-02-01",
	})
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
	require.NotNil(t, updated.LastInspectionDate)
	assert.Equal(t, "2025-02-01", *updated.LastInspectionDate)

	available, err := svc.Bus.GetAllBuses(context.Background(), &dto.BusListRequest{AvailableOnly: true})
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = svc.Bus.UpdateBus(dispatcherCtx(), 999, &dto.BusRequest{})
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
}

func TestDriverCRUD(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := dispatcherCtx()
	id := seedDriver(t, svc, "Dana", "D-1")

	_, err := svc.Driver.AddDriver(ctx, &dto.DriverRequest{Name: "Dup", LicenseNumber: "D-1"})
	assert.True(t, errors.Is(err, pkgerrors.ErrValidation))

	_, err = svc.Driver.AddDriver(ctx, &dto.DriverRequest{LicenseNumber: "D-2", Phone: "nope", Email: "not-an-email"})
	var ve *pkgerrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{"Driver name is required", "Invalid phone number format", "Invalid email format"}, ve.Problems)

	updated, err := svc.Driver.UpdateDriver(ctx, id, &dto.DriverRequest{Name: "Dana K", LicenseNumber: "D-1", HireDate: "2020-08-15"})
	require.NoError(t, err)
	assert.Equal(t, "Dana K", updated.Name)
	require.NotNil(t, updated.HireDate)
	assert.Equal(t, "2020-08-15", *updated.HireDate)

	ok, err := svc.Driver.DeleteDriver(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Driver.GetDriver(ctx, id)
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))

	all, err := svc.Driver.GetAllDrivers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
