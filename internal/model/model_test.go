package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_ParseAndValue(t *testing.T) {
	d, err := ParseDate("2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.January, 2), d)
	assert.Equal(t, "2025-01-02", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", v)

	_, err = ParseDate("2025-13-01")
	assert.Error(t, err)
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2025-03-04"))
	assert.Equal(t, NewDate(2025, time.March, 4), d)

	require.NoError(t, d.Scan([]byte("2025-03-05T00:00:00Z")))
	assert.Equal(t, NewDate(2025, time.March, 5), d)

	require.NoError(t, d.Scan(time.Date(2025, 3, 6, 13, 30, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2025, time.March, 6), d)

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(3.14))
}

func TestDate_StripsTimeOfDay(t *testing.T) {
	morning := DateOf(time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC))
	evening := DateOf(time.Date(2025, 1, 1, 22, 15, 0, 0, time.UTC))
	assert.Equal(t, morning, evening)
	assert.True(t, morning.Before(morning.AddDays(1)))
	assert.True(t, morning.AddDays(1).After(morning))
}

func TestDate_JSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2025, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-01"`, string(b))

	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-02-03"`), &d))
	assert.Equal(t, NewDate(2025, time.February, 3), d)
}

func TestTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(8, 30), tod)
	assert.Equal(t, "08:30", tod.String())
	assert.True(t, tod.Valid())

	withSeconds, err := ParseTimeOfDay("17:05:00")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(17, 5), withSeconds)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)

	var scanned TimeOfDay
	require.NoError(t, scanned.Scan([]byte("10:00")))
	assert.Equal(t, NewTimeOfDay(10, 0), scanned)

	b, err := json.Marshal(NewTimeOfDay(9, 5))
	require.NoError(t, err)
	assert.Equal(t, `"09:05"`, string(b))
}

func TestBaseEntity_Stamps(t *testing.T) {
	var e SoftDeleteEntity
	created := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	e.StampCreated(created, "alice")

	assert.Equal(t, created, e.CreatedDate)
	assert.Equal(t, "alice", e.CreatedBy)
	assert.Nil(t, e.UpdatedDate)

	// 时钟回拨时 UpdatedDate 不得早于 CreatedDate
	e.StampUpdated(created.Add(-time.Hour), "bob")
	require.NotNil(t, e.UpdatedDate)
	assert.False(t, e.UpdatedDate.Before(e.CreatedDate))
	assert.Equal(t, "bob", *e.UpdatedBy)
	assert.Equal(t, "alice", e.CreatedBy)

	var _ Entity = &e
	var _ SoftDeletable = &e
	e.SetDeleted(true)
	assert.True(t, e.Deleted())
}

func TestFuelRecord_IsNotSoftDeletable(t *testing.T) {
	var f interface{} = &FuelRecord{}
	_, ok := f.(SoftDeletable)
	assert.False(t, ok)

	var b interface{} = &Bus{}
	_, ok = b.(SoftDeletable)
	assert.True(t, ok)
}

func TestRoute_Legs(t *testing.T) {
	v, d := uint(1), uint(2)
	start, end := NewTimeOfDay(7, 0), NewTimeOfDay(8, 0)
	r := &Route{AMVehicleID: &v, AMDriverID: &d, AMStartTime: &start, AMEndTime: &end}

	leg, ok := r.AMLeg()
	require.True(t, ok)
	assert.Equal(t, RouteLeg{VehicleID: 1, DriverID: 2, Start: start, End: end}, leg)

	_, ok = r.PMLeg()
	assert.False(t, ok)
}
