package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsHarvester/internal/config"
	"NewsHarvester/internal/infrastructure/ledger"
	"NewsHarvester/internal/infrastructure/storage"
)

func TestBuildHarvester(t *testing.T) {
	t.Parallel()

	h, err := buildHarvester(config.FeedConfig{Harvester: "gofeed"})
	require.NoError(t, err)
	assert.Equal(t, "gofeed", h.Name())

	h, err = buildHarvester(config.FeedConfig{Harvester: "service", ParserURL: "http://parser.local/"})
	require.NoError(t, err)
	assert.Equal(t, "service", h.Name())

	_, err = buildHarvester(config.FeedConfig{Harvester: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestBuildLedger(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen.txt")
	a := &Application{cfg: config.Config{Ledger: config.LedgerConfig{Backend: config.LedgerFile, Path: path}}}
	l, err := a.buildLedger(context.Background())
	require.NoError(t, err)
	fileLedger, ok := l.(*ledger.FileLedger)
	require.True(t, ok)
	assert.Equal(t, path, fileLedger.Path())

	a.cfg.Ledger.Backend = config.LedgerPostgres
	l, err = a.buildLedger(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &storage.ProcessedTitleRepository{}, l)

	a.cfg.Ledger.Backend = "etcd"
	_, err = a.buildLedger(context.Background())
	require.Error(t, err)
}

func TestBuildLedgerRedis(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	a := &Application{cfg: config.Config{Ledger: config.LedgerConfig{
		Backend: config.LedgerRedis,
		Redis:   config.RedisConfig{Addr: mr.Addr(), Key: "titles"},
	}}}

	l, err := a.buildLedger(context.Background())
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NoError(t, l.MarkProcessed(context.Background(), "Hello"))
	assert.True(t, mr.Exists("titles"))
}
