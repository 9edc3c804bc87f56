package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestZapLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core), gormlogger.Warn)
	ctx := context.Background()
	stmt := func() (string, int64) { return `SELECT * FROM "tasks"`, 3 }

	l.Trace(ctx, time.Now(), stmt, errors.New("relation does not exist"))
	l.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	l.Trace(ctx, time.Now(), stmt, nil)

	entries := logs.All()
	require.Len(t, entries, 2, "not-found and fast queries stay quiet at warn")
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "query failed", entries[0].Message)
	assert.Equal(t, "gorm", entries[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, `SELECT * FROM "tasks"`, entries[1].ContextMap()["sql"])
}

func TestZapLogger_LogMode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := NewZapLogger(zap.New(core), gormlogger.Warn)
	ctx := context.Background()

	base.LogMode(gormlogger.Info).Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	base.LogMode(gormlogger.Silent).Error(ctx, "dropped %s", "message")
	base.Info(ctx, "below warn")
	base.Warn(ctx, "pool at %d%%", 90)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "pool at 90%", entries[1].Message)
}
