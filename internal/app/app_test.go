package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/config"
	"github.com/iliyamo/wedding-seating/internal/logger"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

func TestOpenLayout_SQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := config.LayoutConfig{Backend: config.LayoutBackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "layout.db")}

	l, err := OpenLayout(ctx, cfg, nil, logger.Nop())
	require.NoError(t, err)
	_, err = l.Store.CreateTable(ctx, seating.TableDraft{Name: "Novios", Capacity: 2})
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = OpenLayout(ctx, cfg, nil, logger.Nop())
	require.NoError(t, err)
	defer l.Close()
	tables := l.Store.Tables()
	require.Len(t, tables, 1)
	assert.Equal(t, "Novios", tables[0].Name)
}

func TestOpenLayout_Errors(t *testing.T) {
	ctx := context.Background()
	_, err := OpenLayout(ctx, config.LayoutConfig{Backend: config.LayoutBackendRedis}, nil, logger.Nop())
	assert.Error(t, err)
	_, err = OpenLayout(ctx, config.LayoutConfig{Backend: "etcd"}, nil, logger.Nop())
	assert.Error(t, err)

	l, err := OpenLayout(ctx, config.LayoutConfig{Backend: config.LayoutBackendMemory}, nil, logger.Nop())
	require.NoError(t, err)
	assert.Empty(t, l.Store.Tables())
	assert.NoError(t, l.Close())
}
