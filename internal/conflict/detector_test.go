package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busbuddy/internal/model"
	pkgerrors "busbuddy/pkg/errors"
	"busbuddy/pkg/metrics"
)

type stubSource struct {
	items []Assignment
	err   error
	dates []model.Date
}

func (s *stubSource) AssignmentsOn(_ context.Context, date model.Date) ([]Assignment, error) {
	s.dates = append(s.dates, date)
	if s.err != nil {
		return nil, s.err
	}
	var out []Assignment
	for _, a := range s.items {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func hm(h, m int) model.TimeOfDay { return model.NewTimeOfDay(h, m) }

var (
	jan1 = model.NewDate(2025, time.January, 1)
	jan2 = model.NewDate(2025, time.January, 2)
)

// 已有：V1 / D1，2025-01-01 08:00–10:00
func existingV1D1() Assignment {
	return Assignment{
		Ref:       Ref{Kind: KindActivity, ID: 1},
		VehicleID: 1, DriverID: 1,
		Date: jan1, Start: hm(8, 0), End: hm(10, 0),
	}
}

func newDetector(items ...Assignment) (*Detector, *stubSource) {
	src := &stubSource{items: items}
	return NewDetector(src, nil), src
}

func TestDetector_Scenarios(t *testing.T) {
	cases := []struct {
		name     string
		cand     Candidate
		want     bool
		resource string
	}{
		{"vehicle overlap", Candidate{VehicleID: 1, DriverID: 2, Date: jan1, Start: hm(9, 0), End: hm(11, 0)}, true, ResourceVehicle},
		{"driver overlap", Candidate{VehicleID: 2, DriverID: 1, Date: jan1, Start: hm(9, 0), End: hm(11, 0)}, true, ResourceDriver},
		{"back to back", Candidate{VehicleID: 1, DriverID: 2, Date: jan1, Start: hm(10, 0), End: hm(12, 0)}, false, ""},
		{"different date", Candidate{VehicleID: 1, DriverID: 2, Date: jan2, Start: hm(9, 0), End: hm(11, 0)}, false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := newDetector(existingV1D1())
			got, err := d.HasConflict(context.Background(), tc.cand)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)

			found, err := d.FindConflict(context.Background(), tc.cand)
			require.NoError(t, err)
			if tc.want {
				require.NotNil(t, found)
				assert.Equal(t, tc.resource, found.Resource)
				assert.Equal(t, Ref{Kind: KindActivity, ID: 1}, found.Existing.Ref)
			} else {
				assert.Nil(t, found)
			}
		})
	}
}

func TestDetector_DisjointNeverConflicts(t *testing.T) {
	e := existingV1D1()
	for start := 0; start < 24*60; start += 30 {
		for end := start + 30; end <= 24*60-1; end += 30 {
			c := Candidate{VehicleID: 1, DriverID: 1, Date: jan1, Start: model.TimeOfDay(start), End: model.TimeOfDay(end)}
			disjoint := c.End <= e.Start || c.Start >= e.End
			got := Find([]Assignment{e}, c) != nil
			assert.Equal(t, !disjoint, got, "candidate %s-%s", c.Start, c.End)
		}
	}
}

func TestDetector_OverlapIsSymmetric(t *testing.T) {
	windows := [][2]model.TimeOfDay{
		{hm(8, 0), hm(10, 0)},
		{hm(9, 0), hm(11, 0)},
		{hm(7, 0), hm(12, 0)},
		{hm(8, 30), hm(9, 30)},
		{hm(10, 0), hm(11, 0)},
		{hm(6, 0), hm(8, 0)},
	}
	for _, a := range windows {
		for _, b := range windows {
			ea := Assignment{Ref: Ref{KindActivity, 1}, VehicleID: 1, DriverID: 1, Date: jan1, Start: a[0], End: a[1]}
			eb := Assignment{Ref: Ref{KindActivity, 2}, VehicleID: 1, DriverID: 1, Date: jan1, Start: b[0], End: b[1]}
			ab := Find([]Assignment{ea}, Candidate{VehicleID: 1, DriverID: 1, Date: jan1, Start: b[0], End: b[1]}) != nil
			ba := Find([]Assignment{eb}, Candidate{VehicleID: 1, DriverID: 1, Date: jan1, Start: a[0], End: a[1]}) != nil
			assert.Equal(t, ab, ba)
			assert.Equal(t, Overlaps(a[0], a[1], b[0], b[1]), ab)
		}
	}
}

func TestDetector_ResourcesCheckedIndependently(t *testing.T) {
	e := existingV1D1()
	onlyVehicle := Candidate{VehicleID: 1, DriverID: 9, Date: jan1, Start: hm(8, 0), End: hm(9, 0)}
	onlyDriver := Candidate{VehicleID: 9, DriverID: 1, Date: jan1, Start: hm(8, 0), End: hm(9, 0)}
	neither := Candidate{VehicleID: 9, DriverID: 9, Date: jan1, Start: hm(8, 0), End: hm(9, 0)}

	require.NotNil(t, Find([]Assignment{e}, onlyVehicle))
	assert.Equal(t, ResourceVehicle, Find([]Assignment{e}, onlyVehicle).Resource)
	require.NotNil(t, Find([]Assignment{e}, onlyDriver))
	assert.Equal(t, ResourceDriver, Find([]Assignment{e}, onlyDriver).Resource)
	assert.Nil(t, Find([]Assignment{e}, neither))
}

func TestDetector_VehicleReportedBeforeDriver(t *testing.T) {
	driverClash := Assignment{Ref: Ref{KindRouteAM, 5}, VehicleID: 7, DriverID: 1, Date: jan1, Start: hm(8, 0), End: hm(9, 0)}
	vehicleClash := Assignment{Ref: Ref{KindActivity, 6}, VehicleID: 1, DriverID: 8, Date: jan1, Start: hm(8, 0), End: hm(9, 0)}
	found := Find([]Assignment{driverClash, vehicleClash}, Candidate{VehicleID: 1, DriverID: 1, Date: jan1, Start: hm(8, 0), End: hm(9, 0)})
	require.NotNil(t, found)
	assert.Equal(t, ResourceVehicle, found.Resource)
	assert.Equal(t, uint(6), found.Existing.ID)
}

func TestDetector_DifferentDateNeverConflicts(t *testing.T) {
	e := existingV1D1()
	c := Candidate{VehicleID: e.VehicleID, DriverID: e.DriverID, Date: jan2, Start: e.Start, End: e.End}
	assert.Nil(t, Find([]Assignment{e}, c))
}

func TestDetector_SelfExclusionOnUpdate(t *testing.T) {
	e := existingV1D1()
	d, _ := newDetector(e)

	self := Candidate{
		Kind: KindActivity, VehicleID: 1, DriverID: 1, Date: jan1, Start: e.Start, End: e.End,
		Exclude: []Ref{e.Ref},
	}
	has, err := d.HasConflict(context.Background(), self)
	require.NoError(t, err)
	assert.False(t, has)

	// 排除的是活动 #1，不影响同编号的线路段
	other := Assignment{Ref: Ref{KindRouteAM, 1}, VehicleID: 1, DriverID: 3, Date: jan1, Start: hm(9, 0), End: hm(9, 30)}
	d, _ = newDetector(e, other)
	has, err = d.HasConflict(context.Background(), self)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestDetector_QueriesSourceByCandidateDate(t *testing.T) {
	d, src := newDetector(existingV1D1())
	_, err := d.HasConflict(context.Background(), Candidate{VehicleID: 1, DriverID: 1, Date: jan2, Start: hm(8, 0), End: hm(9, 0)})
	require.NoError(t, err)
	assert.Equal(t, []model.Date{jan2}, src.dates)
}

func TestDetector_InvalidCandidate(t *testing.T) {
	d, src := newDetector(existingV1D1())

	_, err := d.HasConflict(context.Background(), Candidate{VehicleID: 1, DriverID: 1, Date: jan1, Start: hm(10, 0), End: hm(9, 0)})
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)

	_, err = d.HasConflict(context.Background(), Candidate{Date: jan1, Start: hm(8, 0), End: hm(9, 0)})
	var ve *pkgerrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Vehicle is required", "Driver is required"}, ve.Problems)

	// 校验失败不访问数据源
	assert.Empty(t, src.dates)
}

func TestDetector_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	d := NewDetector(&stubSource{err: boom}, nil)
	_, err := d.HasConflict(context.Background(), Candidate{VehicleID: 1, DriverID: 1, Date: jan1, Start: hm(8, 0), End: hm(9, 0)})
	assert.ErrorIs(t, err, boom)
}

func TestDetector_CheckReturnsConflictError(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	d := NewDetector(&stubSource{items: []Assignment{existingV1D1()}}, m)

	err := d.Check(context.Background(), Candidate{Kind: KindActivity, VehicleID: 1, DriverID: 2, Date: jan1, Start: hm(9, 0), End: hm(11, 0)})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrConflict)
	assert.Contains(t, err.Error(), "conflict detected")
	assert.Contains(t, err.Error(), "vehicle 1")
	assert.Contains(t, err.Error(), "2025-01-01")
	assert.Contains(t, err.Error(), "activity#1")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConflictsDetected.WithLabelValues(ResourceVehicle)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConflictChecks.WithLabelValues(string(KindActivity))))

	assert.NoError(t, d.Check(context.Background(), Candidate{VehicleID: 3, DriverID: 3, Date: jan1, Start: hm(9, 0), End: hm(11, 0)}))
}
