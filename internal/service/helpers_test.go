package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"busbuddy/config"
	"busbuddy/internal/audit"
	"busbuddy/internal/dto"
	"busbuddy/internal/repository"
	"busbuddy/pkg/database"
)

// newTestService 每个测试独立的内存 SQLite + 完整 Service 聚合
func newTestService(t *testing.T, locker Locker) *Service {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbCfg := &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}
	db, err := database.NewDB(dbCfg, &config.LogConfig{SQLLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{Schedule: config.ScheduleConfig{LockTTL: time.Second}}
	uows := repository.NewFactory(db, repository.Options{Logger: zap.NewNop()})
	return NewService(cfg, uows, locker, nil, zap.NewNop())
}

func dispatcherCtx() context.Context {
	return audit.WithActor(context.Background(), "dispatcher@district")
}

func seedBus(t *testing.T, svc *Service, number string) uint {
	t.Helper()
	bus, err := svc.Bus.AddBus(dispatcherCtx(), &dto.BusRequest{
		BusNumber:       number,
		Year:            2021,
		Make:            "Blue Bird",
		Model:           "Vision",
		SeatingCapacity: 72,
	})
	require.NoError(t, err)
	return bus.ID
}

func seedDriver(t *testing.T, svc *Service, name, license string) uint {
	t.Helper()
	driver, err := svc.Driver.AddDriver(dispatcherCtx(), &dto.DriverRequest{
		Name:          name,
		LicenseNumber: license,
		Phone:         "555-123-4567",
	})
	require.NoError(t, err)
	return driver.ID
}

func scheduleReq(vehicleID, driverID uint, date, start, end string) *dto.CreateScheduleRequest {
	return &dto.CreateScheduleRequest{
		ActivityType: "Field Trip",
		Destination:  "Science Museum",
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		VehicleID:    vehicleID,
		DriverID:     driverID,
	}
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }

// fakeLocker 记录加锁请求；busy 为 true 时模拟锁被占用
type fakeLocker struct {
	mu       sync.Mutex
	busy     bool
	acquired [][]string
	released int
}

func (l *fakeLocker) AcquireScheduleLocks(_ context.Context, keys []string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return nil, errors.New("lock held")
	}
	l.acquired = append(l.acquired, keys)
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}
