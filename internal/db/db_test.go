package db

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/agingrasc/design3-vision/internal/camera"
	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/pipeline"
	"github.com/agingrasc/design3-vision/internal/testutil"
	"github.com/agingrasc/design3-vision/internal/world"
)

func init() {
	monitoring.SetLogger(nil)
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "vision.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_PragmasAndSchema(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 5000, busyTimeout)

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	for _, table := range []string{"camera_models", "calibration_sessions", "frames", "robot_positions"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestNewDB_ReopenIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "vision.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
}

func TestMigrateDown(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	require.NoError(t, db.MigrateDown())

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name='frames'`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, db.MigrateUp())
}

func TestCameraModels(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	m := testutil.TiltedCamera(t)

	_, err := db.CameraModel(m.ID())
	assert.ErrorIs(t, err, camera.ErrModelNotFound)

	require.NoError(t, db.SaveCameraModel(m))
	require.NoError(t, db.SaveCameraModel(m), "saving twice replaces the row")

	got, err := db.CameraModel(m.ID())
	require.NoError(t, err)
	if diff := cmp.Diff(m.ToDTO(), got.ToDTO()); diff != "" {
		t.Errorf("camera model mismatch (-want +got):\n%s", diff)
	}

	all, err := db.CameraModels()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	assert.ErrorIs(t, db.SaveCameraModel(nil), camera.ErrInvalidModel)
}

func TestCalibrationSessions(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	s := CalibrationSession{
		SessionID: "5b0c8a4e-8f41-4d1f-9a63-0f1f0f1f0f1f",
		ModelID:   1,
		Columns:   9,
		Rows:      6,
		Accepted:  12,
		Rejected:  3,
		RMS:       0.42,
		Quality:   string(camera.QualityGood),
	}
	require.NoError(t, db.RecordCalibrationSession(s))
	assert.Error(t, db.RecordCalibrationSession(s), "session ids are unique")

	got, err := db.CalibrationSessions()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].CreatedAt.IsZero())
	got[0].CreatedAt = time.Time{}
	assert.Equal(t, s, got[0])
}

func TestFrameLog(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	log := db.NewFrameLog()
	ctx := context.Background()
	var _ pipeline.PersistenceSink = log

	robot := world.NewRobot(r2.Vec{X: 100, Y: 200}, r2.Vec{X: 100, Y: 200}, r2.Vec{X: 110, Y: 200})
	placed := robot.Clone().(*world.Robot)
	placed.WorldPosition = &r2.Vec{X: 132, Y: 88}
	start := time.Unix(1700000000, 0)

	for i, state := range []*world.State{
		{},
		{Robot: robot},
		{World: &world.World{WidthMM: 264, LengthMM: 440}, Robot: placed},
	} {
		r := &pipeline.Result{Seq: uint64(i + 1), CapturedAt: start.Add(time.Duration(i) * time.Second), State: state, Duration: 5 * time.Millisecond}
		require.NoError(t, log.PersistFrame(ctx, r))
	}
	require.NoError(t, log.PersistFrame(ctx, nil))

	n, err := db.FrameCount(log.RunID())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	positions, err := db.RobotPositions(log.RunID())
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, uint64(2), positions[0].Seq)
	assert.Nil(t, positions[0].WorldX)
	require.NotNil(t, positions[1].WorldX)
	assert.Equal(t, 132.0, *positions[1].WorldX)
	assert.Equal(t, 88.0, *positions[1].WorldY)
	assert.True(t, start.Add(2*time.Second).Equal(positions[1].CapturedAt))

	other, err := db.RobotPositions(db.NewFrameLog().RunID())
	require.NoError(t, err)
	assert.Empty(t, other)

	latest, err := db.LatestRunID()
	require.NoError(t, err)
	assert.Equal(t, log.RunID(), latest)
}

func TestLatestRunID_Empty(t *testing.T) {
	t.Parallel()
	_, err := newTestDB(t).LatestRunID()
	assert.ErrorContains(t, err, "no frames logged")
}

func TestAttachAdminRoutes(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	req := httptest.NewRequest(http.MethodGet, "/debug/backup", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}
