package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busbuddy/internal/dto"
	pkgerrors "busbuddy/pkg/errors"
)

func maintenanceReq(vehicleID uint, date, category string, cost float64) *dto.MaintenanceRecordRequest {
	return &dto.MaintenanceRecordRequest{
		VehicleID: vehicleID,
		Date:      date,
		Category:  category,
		Vendor:    "County Garage",
		Cost:      cost,
	}
}

func TestMaintenance_InspectionUpdatesBus(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := dispatcherCtx()
	bus := seedBus(t, svc, "BUS-001")

	_, err := svc.Maintenance.AddMaintenanceRecord(ctx, maintenanceReq(bus, "2025-04-02", "Inspection", 150))
	require.NoError(t, err)
	_, err = svc.Maintenance.AddMaintenanceRecord(ctx, maintenanceReq(bus, "2025-01-02", "Inspection", 150))
	require.NoError(t, err)

	got, err := svc.Bus.GetBus(ctx, bus)
	require.NoError(t, err)
	require.NotNil(t, got.LastInspectionDate)
	assert.Equal(t, "2025-04-02", *got.LastInspectionDate)
}

func TestMaintenance_CRUDAndCost(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := dispatcherCtx()
	bus := seedBus(t, svc, "BUS-001")

	oil, err := svc.Maintenance.AddMaintenanceRecord(ctx, maintenanceReq(bus, "2025-01-03", "Oil Change", 80))
	require.NoError(t, err)
	tires, err := svc.Maintenance.AddMaintenanceRecord(ctx, maintenanceReq(bus, "2025-01-09", "Tires", 600))
	require.NoError(t, err)
	_, err = svc.Maintenance.AddMaintenanceRecord(ctx, maintenanceReq(bus, "2025-01-20", "Oil Change", 90))
	require.NoError(t, err)

	updated, err := svc.Maintenance.UpdateMaintenanceRecord(ctx, tires.ID, maintenanceReq(bus, "2025-01-09", "Tires", 640))
	require.NoError(t, err)
	assert.InDelta(t, 640.0, updated.Cost, 0.0001)

	ok, err := svc.Maintenance.DeleteMaintenanceRecord(ctx, oil.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	records, err := svc.Maintenance.GetMaintenanceRecordsByVehicle(ctx, bus)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	cost, err := svc.Maintenance.GetMaintenanceCost(ctx, &dto.MaintenanceCostRequest{
		DateRangeRequest: dto.DateRangeRequest{From: "2025-01-01", To: "2025-01-31"},
		VehicleID:        bus,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, cost.Records)
	assert.InDelta(t, 730.0, cost.TotalCost, 0.0001)
	assert.InDelta(t, 90.0, cost.ByCategory["Oil Change"], 0.0001)

	_, err = svc.Maintenance.UpdateMaintenanceRecord(ctx, oil.ID, maintenanceReq(bus, "2025-01-03", "Oil Change", 1))
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))

	_, err = svc.Maintenance.AddMaintenanceRecord(ctx, maintenanceReq(bus, "2025-01-03", "Detailing", -5))
	var ve *pkgerrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Problems, "Category must be one of Oil Change, Tires, Brakes, Inspection, Repair, Other")
	assert.Contains(t, ve.Problems, "Cost must not be negative")
}
