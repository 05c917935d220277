package frequency

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/lector/pkg/apperr"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "freq.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	table, err := Load(strings.NewReader("word,score\nthe, 1.5\n猫,7\n,3\nthe,9\n"), Rarity)
	require.NoError(t, err)

	assert.Equal(t, Rarity, table.Direction)
	assert.Equal(t, map[string]float64{"the": 1.5, "猫": 7}, table.Scores)
}

func TestLoadWithoutHeader(t *testing.T) {
	table, err := Load(strings.NewReader("a,1\nb,2\n"), Frequency)
	require.NoError(t, err)
	assert.Len(t, table.Scores, 2)
}

func TestLoadRejectsBadScore(t *testing.T) {
	_, err := Load(strings.NewReader("word,score\na,1\nb,lots\n"), Rarity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")

	_, err = Load(strings.NewReader("lonely\n"), Rarity)
	require.Error(t, err)
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "", want: Rarity},
		{in: "rarity", want: Rarity},
		{in: " Frequency ", want: Frequency},
		{in: "zipf", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDirection(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestProviderUnsupportedLanguage(t *testing.T) {
	p := NewProvider(map[string]Source{"en": {Path: writeCSV(t, "a,1\n")}})

	_, err := p.Table(context.Background(), "ja")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.UnsupportedLanguage))
}

func TestProviderLoadsOnce(t *testing.T) {
	path := writeCSV(t, "word,score\na,1\n")
	p := NewProvider(map[string]Source{"zh-CN": {Path: path, Direction: Frequency}})

	var wg sync.WaitGroup
	tables := make([]*Table, 8)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := p.Table(context.Background(), "zh")
			assert.NoError(t, err)
			tables[i] = tbl
		}(i)
	}
	wg.Wait()

	for _, tbl := range tables {
		assert.Same(t, tables[0], tbl)
	}

	// The cached table survives the file going away.
	require.NoError(t, os.Remove(path))
	tbl, err := p.Table(context.Background(), "zh-cn")
	require.NoError(t, err)
	assert.Equal(t, Frequency, tbl.Direction)
}

func TestProviderMissingFile(t *testing.T) {
	p := NewProvider(map[string]Source{"en": {Path: filepath.Join(t.TempDir(), "nope.csv")}})
	_, err := p.Table(context.Background(), "en")
	require.Error(t, err)
	assert.False(t, apperr.Is(err, apperr.UnsupportedLanguage))
}
