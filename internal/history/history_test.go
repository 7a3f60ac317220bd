package history

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RiskSentinel/internal/model"
)

func d(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func f(v float64) *float64 { return &v }

func TestAppend_IdempotentPerDate(t *testing.T) {
	s := NewStore(t.TempDir(), zerolog.Nop())

	row := Row{Date: d("2024-03-01"), Score: 57, Band: "Hold/Neutral", PriceUSD: 61234.5}
	_, err := s.Append(row)
	require.NoError(t, err)
	first, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	_, err = s.Append(row)
	require.NoError(t, err)
	second, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))

	// a later run on the same date keeps the first row
	row.Date = d("2024-03-01").Add(20 * time.Hour)
	row.Score = 80
	row.Band = "Take Profits"
	rows, err := s.Append(row)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 57.0, rows[0].Score)
	assert.Equal(t, "Hold/Neutral", rows[0].Band)
	third, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(first), string(third))
}

func TestAppend_SortsAndLoads(t *testing.T) {
	s := NewStore(t.TempDir(), zerolog.Nop())
	for _, day := range []string{"2024-03-03", "2024-03-01", "2024-03-02"} {
		_, err := s.Append(Row{Date: d(day), Score: 40, Band: "Moderate Buying"})
		require.NoError(t, err)
	}
	rows, err := s.Load()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, d("2024-03-01"), rows[0].Date)
	assert.Equal(t, d("2024-03-03"), rows[2].Date)
}

func TestLoad_ToleratesBadRows(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, zerolog.Nop())
	content := "date,score,band,price_usd\n" +
		"2024-03-01,50,Hold/Neutral,60000.00\n" +
		"not-a-date,50,Hold/Neutral,1\n" +
		"2024-03-02,abc,Hold/Neutral,1\n" +
		"2024-03-04,66,Reduce Risk,\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o644))

	rows, err := s.Load()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 0.0, rows[1].PriceUSD)

	// 03-02 is missing, so the two newest rows are not comparable
	_, _, ok := Latest(rows)
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	s := NewStore(t.TempDir(), zerolog.Nop())
	rows, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestConsecutive(t *testing.T) {
	assert.True(t, Consecutive(d("2024-02-28"), d("2024-02-29")))
	assert.True(t, Consecutive(d("2024-02-29"), d("2024-03-01").Add(23*time.Hour)))
	assert.False(t, Consecutive(d("2024-03-01"), d("2024-03-01")))
	assert.False(t, Consecutive(d("2024-03-01"), d("2024-03-03")))
	assert.False(t, Consecutive(d("2024-03-02"), d("2024-03-01")))
}

func TestAppendFactors_UnionColumnsAndEmptyCells(t *testing.T) {
	s := NewStore(t.TempDir(), zerolog.Nop())

	_, err := s.AppendFactors([]string{"trend", "etf"}, FactorRow{
		Date:   d("2024-03-01"),
		Scores: map[string]*float64{"trend": f(40), "etf": f(55)},
	})
	require.NoError(t, err)

	_, err = s.AppendFactors([]string{"trend", "etf", "macro"}, FactorRow{
		Date:   d("2024-03-02"),
		Scores: map[string]*float64{"trend": f(42), "macro": f(61)},
	})
	require.NoError(t, err)

	keys, rows, err := s.LoadFactors()
	require.NoError(t, err)
	assert.Equal(t, []string{"trend", "etf", "macro"}, keys)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].Scores["macro"])
	assert.Nil(t, rows[1].Scores["etf"])
	assert.Equal(t, 61.0, *rows[1].Scores["macro"])

	prev, cur, ok := LatestFactors(rows)
	require.True(t, ok)
	assert.Equal(t, 40.0, *prev.Scores["trend"])
	assert.Equal(t, 42.0, *cur.Scores["trend"])
}

func TestFactorRowFromResults(t *testing.T) {
	results := []model.FactorResult{
		{Key: "a", Score: f(10), Status: model.StatusFresh},
		{Key: "b", Status: model.StatusExcluded, Reason: "insufficient_data"},
	}
	keys, row := FactorRowFromResults(d("2024-03-01").Add(5*time.Hour), results)
	assert.Equal(t, []string{"a", "b"}, keys)
	assert.Equal(t, d("2024-03-01"), row.Date)
	assert.Equal(t, 10.0, *row.Scores["a"])
	assert.NotContains(t, row.Scores, "b")
}

func TestAppendFactors_KeepsFirstRowOfDay(t *testing.T) {
	s := NewStore(t.TempDir(), zerolog.Nop())
	_, err := s.AppendFactors([]string{"trend"}, FactorRow{Date: d("2024-03-01"), Scores: map[string]*float64{"trend": f(40)}})
	require.NoError(t, err)

	rows, err := s.AppendFactors([]string{"trend", "macro"}, FactorRow{
		Date:   d("2024-03-01").Add(18 * time.Hour),
		Scores: map[string]*float64{"trend": f(90), "macro": f(10)},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 40.0, *rows[0].Scores["trend"])

	keys, _, err := s.LoadFactors()
	require.NoError(t, err)
	assert.Equal(t, []string{"trend"}, keys)
}

func TestLoadFactors_SkipsShortAndBlankRows(t *testing.T) {
	s := NewStore(t.TempDir(), zerolog.Nop())
	content := "date,trend\n" +
		"\"\"\n" +
		",\n" +
		"2024-03-01\n" +
		"2024-03-02,41\n"
	require.NoError(t, os.WriteFile(s.FactorPath(), []byte(content), 0o644))

	keys, rows, err := s.LoadFactors()
	require.NoError(t, err)
	assert.Equal(t, []string{"trend"}, keys)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].Scores["trend"])
	assert.Equal(t, 41.0, *rows[1].Scores["trend"])
}
