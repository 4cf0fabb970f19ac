package main

import (
	"bytes"
	"context"
	"encoding/json"
	"hedgebacktest/internal/domain"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeMarketData(t *testing.T, dir string) {
	reference := "timestamp,price,change_24h\n" +
		"2024-01-01T00:00:00Z,100,0\n" +
		"2024-01-01T08:00:00Z,110,0\n" +
		"2024-01-01T16:00:00Z,121,0\n"
	candidates := "timestamp,symbol,rank,price,price_change_24h,volume_24h,quote_volume_24h,volatility_24h,market_share,funding_rate\n" +
		"2024-01-01T00:00:00Z,ETHUSDT,2,10,-1,100,1000,2,1,0.0001\n" +
		"2024-01-01T08:00:00Z,ETHUSDT,2,9,-1,100,900,2,1,0.0001\n" +
		"2024-01-01T16:00:00Z,ETHUSDT,2,9.5,-1,100,950,2,1,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reference.csv"), []byte(reference), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "candidates.csv"), []byte(candidates), 0644))
}

func Test_run(t *testing.T) {
	dir := t.TempDir()
	writeMarketData(t, dir)
	paramsFile := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(paramsFile, []byte("tradingFeeRate: 0\n"), 0644))
	out := filepath.Join(dir, "snapshots.csv")

	stdout := &bytes.Buffer{}
	err := run(context.Background(), runOptions{
		ParamsFile: paramsFile,
		DataDir:    dir,
		Out:        out,
	}, stdout)
	require.NoError(t, err)

	metrics := domain.PerformanceMetrics{}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &metrics))
	require.Equal(t, 3, metrics.PeriodCount)

	csvBytes, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(csvBytes)), "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[1], "ETHUSDT")

	t.Run("range", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		err := run(context.Background(), runOptions{DataDir: dir, Start: "2024-01-01T08:00:00Z"}, stdout)
		require.NoError(t, err)
		metrics := domain.PerformanceMetrics{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &metrics))
		require.Equal(t, 2, metrics.PeriodCount)
	})

	t.Run("bad date", func(t *testing.T) {
		err := run(context.Background(), runOptions{DataDir: dir, End: "soon"}, &bytes.Buffer{})
		require.ErrorContains(t, err, "invalid --end")
	})
}

func Test_newRootCmd(t *testing.T) {
	dir := t.TempDir()
	writeMarketData(t, dir)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetArgs([]string{"run", "--data", dir})
	require.NoError(t, root.ExecuteContext(context.Background()))
	require.Contains(t, stdout.String(), "periodCount")
}
