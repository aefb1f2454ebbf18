package telemetry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/frameshop/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "trace.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	recorder := useRecorder(t)
	db := openSQLite(t)

	p := NewDBTracingPlugin(config.TelemetryConfig{Enabled: true, DBTraceEnabled: false}, "sqlite", zap.NewNop())
	require.NoError(t, p.Register(db))

	var n int
	require.NoError(t, db.Raw("SELECT 1").Scan(&n).Error)
	assert.Empty(t, recorder.Ended())
}

func TestDBTracingPlugin_RecordsQuerySpans(t *testing.T) {
	recorder := useRecorder(t)
	db := openSQLite(t)

	p := NewDBTracingPlugin(config.TelemetryConfig{Enabled: true, DBTraceEnabled: true}, "sqlite", zap.NewNop())
	require.NoError(t, p.Register(db))
	assert.Equal(t, defaultSlowQueryThresh, p.slowQueryThresh)

	ctx, parent := otel.Tracer("test").Start(context.Background(), "request")
	var n int
	require.NoError(t, db.WithContext(ctx).Raw("SELECT 1").Scan(&n).Error)
	parent.End()

	assert.Equal(t, 1, n)
	assert.GreaterOrEqual(t, len(recorder.Ended()), 2, "the query span is recorded under the request span")
}
