package repository_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"busbuddy/config"
	"busbuddy/internal/model"
	"busbuddy/internal/repository"
	"busbuddy/pkg/database"
)

// newTestFactory 每个测试独立的内存 SQLite
func newTestFactory(t *testing.T, opts repository.Options) (*repository.Factory, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}
	db, err := database.NewDB(cfg, &config.LogConfig{SQLLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewFactory(db, opts), db
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newBus(number string, seats int) *model.Bus {
	return &model.Bus{
		BusNumber:       number,
		Year:            2020,
		Make:            "Blue Bird",
		Model:           "Vision",
		SeatingCapacity: seats,
		Status:          model.BusStatusActive,
		IsAvailable:     true,
	}
}

func newActivity(vehicleID, driverID uint, date model.Date, start, end model.TimeOfDay) *model.Activity {
	return &model.Activity{
		ActivityType: "Field Trip",
		Destination:  "Museum",
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		VehicleID:    vehicleID,
		DriverID:     driverID,
		Status:       model.ActivityStatusScheduled,
	}
}

func hm(h, m int) model.TimeOfDay { return model.NewTimeOfDay(h, m) }
