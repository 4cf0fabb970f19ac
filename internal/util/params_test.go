package util

import (
	"hedgebacktest/internal/domain"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func Test_LoadStrategyParameters(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml overrides defaults", func(t *testing.T) {
		path := filepath.Join(dir, "params.yaml")
		err := os.WriteFile(path, []byte("btcRatio: 0.7\nshortAlt: false\nweights:\n  volumeWeight: 1\n"), 0644)
		require.NoError(t, err)

		params, err := LoadStrategyParameters(path)
		require.NoError(t, err)

		expected := domain.DefaultStrategyParameters()
		expected.BtcRatio = 0.7
		expected.ShortAlt = false
		expected.Weights.VolumeWeight = 1
		require.Equal(t, "", cmp.Diff(expected, *params))
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "params.json")
		err := os.WriteFile(path, []byte(`{"initialCapital": 500, "maxShortPositions": 2}`), 0644)
		require.NoError(t, err)

		params, err := LoadStrategyParameters(path)
		require.NoError(t, err)
		require.Equal(t, 500.0, params.InitialCapital)
		require.Equal(t, 2, params.MaxShortPositions)
		require.Equal(t, 0.5, params.BtcRatio)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "params.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0644))

		_, err := LoadStrategyParameters(path)
		require.ErrorContains(t, err, "unsupported parameters file type")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadStrategyParameters(filepath.Join(dir, "nope.yaml"))
		require.Error(t, err)
	})
}

func Test_LoadSecrets(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.json")
	err := os.WriteFile(path, []byte(`{"db": {"host": "localhost", "port": "5432", "user": "postgres", "password": "pw", "database": "hedge"}, "marketDataDir": "data"}`), 0644)
	require.NoError(t, err)

	t.Setenv("HEDGE_SECRETS_FILE", path)
	t.Setenv("HEDGE_PORT", "4000")
	t.Setenv("HEDGE_MARKET_DATA_DIR", "")

	secrets, err := LoadSecrets()
	require.NoError(t, err)
	require.Equal(t, 4000, secrets.Port)
	require.Equal(t, "data", secrets.MarketDataDir)
	require.True(t, secrets.Db.Configured())
	require.Equal(t, "host=localhost port=5432 user=postgres password=pw dbname=hedge sslmode=disable", secrets.Db.ToConnectionStr())

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("HEDGE_PORT", "http")
		_, err := LoadSecrets()
		require.ErrorContains(t, err, "invalid HEDGE_PORT")
	})
}

func Test_GranularityFromString(t *testing.T) {
	h, ok := GranularityFromString("daily")
	require.True(t, ok)
	require.Equal(t, 24.0, h)

	_, ok = GranularityFromString("fortnightly")
	require.False(t, ok)
}
