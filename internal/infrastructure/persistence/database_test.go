package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database backed by sqlmock with the postgres dialect
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB, Driver: DriverPostgres}, mock, mockDB
}

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:     DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "frameshop.db"),
	}

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate())
	assert.NoError(t, db.Ping())

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections, "sqlite uses a single connection")

	for _, table := range []string{"stages", "batches", "frames", "frame_stage_progress", "timer_sessions", "time_logs"} {
		assert.True(t, db.DB.Migrator().HasTable(table), table)
	}
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, `unsupported database driver "oracle"`)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "data/frames.db?_foreign_keys=on&_busy_timeout=5000", SQLiteDSN("data/frames.db"))
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()

	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "timer_sessions" WHERE id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return NewGormTimerSessionRepository(tx).Delete(t.Context(), uuid.New())
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := db.Transaction(func(tx *gorm.DB) error {
			return assert.AnError
		})

		assert.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormBatchRepository_Save_SQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormBatchRepository(db.DB)

	batch, err := production.NewBatch("Spring", []uuid.UUID{uuid.New()}, uuid.New(), testNow)
	require.NoError(t, err)
	require.NoError(t, batch.Archive(testNow))

	mock.ExpectExec(`UPDATE "batches" SET .* WHERE \(?id = \$\d+ AND version = \$\d+\)?`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Save(t.Context(), batch)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStageRepository_IsReferenced_SQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormStageRepository(db.DB)
	stageID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "frames" WHERE current_stage_id = \$1`).
		WithArgs(stageID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "frame_stage_progress" WHERE stage_id = \$1`).
		WithArgs(stageID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "timer_sessions" WHERE stage_id = \$1`).
		WithArgs(stageID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	referenced, err := repo.IsReferenced(t.Context(), stageID)
	require.NoError(t, err)
	assert.True(t, referenced)
	assert.NoError(t, mock.ExpectationsWereMet(), "time logs are not queried once a reference is found")
}

func TestGormStageRepository_HasFramesInProduction_SQL(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormStageRepository(db.DB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "frames" WHERE status = \$1`).
		WithArgs(production.FrameStatusInProduction).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	busy, err := repo.HasFramesInProduction(t.Context())
	require.NoError(t, err)
	assert.True(t, busy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError_DriverFailure(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormTimeLogRepository(db.DB)

	mock.ExpectQuery(`SELECT \* FROM "time_logs"`).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.FindAll(t.Context(), production.TimeLogFilter{})
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.ErrorContains(t, err, "time logs")
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}
