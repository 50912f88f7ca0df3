package claimmodel

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const sampleCSV = `Age,Provider,Visits,ClaimAmount
30,Acme,2,100
45,Zen,5,400
52,Acme,1,90
28,Beta,3,210
`

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Provider", "Visits", "ClaimAmount"}, table.Header)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "Zen", table.Rows[1][1])

	_, err = ReadCSV(strings.NewReader("Age,ClaimAmount\n"))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Age", "Provider", "ClaimAmount"},
		{30, "Acme", 100},
		{45, "Zen", 400},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := ReadXLSX(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Provider", "ClaimAmount"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"45", "Zen", "400"}, table.Rows[1])
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "claims.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 4)

	_, err = LoadFile(filepath.Join(dir, "claims.json"))
	assert.ErrorIs(t, err, ErrUnsupportedExt)
}

func TestEncode_OneHotSortedLevels(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	m, err := Encode(table, "ClaimAmount", []string{"Provider"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Age", "Provider=Acme", "Provider=Beta", "Provider=Zen", "Visits"}, m.Features)
	assert.Equal(t, []float64{45, 0, 0, 1, 5}, m.X[1])
	assert.Equal(t, []float64{28, 0, 1, 0, 3}, m.X[3])
	assert.Equal(t, []float64{100, 400, 90, 210}, m.Y)
}

func TestEncode_Errors(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	_, err = Encode(table, "Missing", nil)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Encode(table, "ClaimAmount", []string{"Nope"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	// Provider left numeric cannot be parsed
	_, err = Encode(table, "ClaimAmount", nil)
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	m := &Matrix{Features: []string{"x"}}
	for i := 0; i < 10; i++ {
		m.X = append(m.X, []float64{float64(i)})
		m.Y = append(m.Y, float64(i))
	}

	train, test, err := Split(m, 0.3, 42)
	require.NoError(t, err)
	assert.Len(t, test.Y, 3)
	assert.Len(t, train.Y, 7)

	seen := map[float64]bool{}
	for _, y := range append(append([]float64{}, train.Y...), test.Y...) {
		assert.False(t, seen[y], "row %v used twice", y)
		seen[y] = true
	}
	assert.Len(t, seen, 10)

	train2, test2, err := Split(m, 0.3, 42)
	require.NoError(t, err)
	assert.Equal(t, test.Y, test2.Y, "same seed gives the same split")
	assert.Equal(t, train.Y, train2.Y)

	_, _, err = Split(m, 1, 42)
	assert.Error(t, err)
}

func TestForest_FitsStepFunction(t *testing.T) {
	m := &Matrix{Features: []string{"x", "noise"}}
	for i := 0; i < 200; i++ {
		x := float64(i % 20)
		y := 10.0
		if x >= 10 {
			y = 50
		}
		m.X = append(m.X, []float64{x, float64(i % 3)})
		m.Y = append(m.Y, y)
	}

	f, err := Fit(context.Background(), m, ForestConfig{Trees: 20, MaxDepth: 4, Seed: 1})
	require.NoError(t, err)

	low, err := f.Predict([]float64{2, 0})
	require.NoError(t, err)
	high, err := f.Predict([]float64{15, 1})
	require.NoError(t, err)
	assert.InDelta(t, 10, low, 1e-9)
	assert.InDelta(t, 50, high, 1e-9)

	_, err = f.Predict([]float64{1})
	assert.Error(t, err)
}

func TestForest_Deterministic(t *testing.T) {
	m := &Matrix{Features: []string{"x"}}
	for i := 0; i < 50; i++ {
		m.X = append(m.X, []float64{float64(i)})
		m.Y = append(m.Y, math.Sin(float64(i)/5)*100)
	}
	cfg := ForestConfig{Trees: 10, MaxDepth: 5, Seed: 7, Workers: 4}

	a, err := Fit(context.Background(), m, cfg)
	require.NoError(t, err)
	b, err := Fit(context.Background(), m, cfg)
	require.NoError(t, err)

	pa, err := a.PredictAll(m.X)
	require.NoError(t, err)
	pb, err := b.PredictAll(m.X)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestFit_CancelledContext(t *testing.T) {
	m := &Matrix{Features: []string{"x"}, X: [][]float64{{1}, {2}}, Y: []float64{1, 2}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fit(ctx, m, ForestConfig{Trees: 5})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRMSE(t *testing.T) {
	got, err := RMSE([]float64{1, 2, 3}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = RMSE([]float64{0, 0}, []float64{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(12.5), got, 1e-12)

	_, err = RMSE([]float64{1}, nil)
	assert.Error(t, err)
	_, err = RMSE(nil, nil)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Age,Provider,ClaimAmount\n")
	providers := []string{"Acme", "Beta", "Zen"}
	for i := 0; i < 60; i++ {
		p := providers[i%3]
		amount := 100 + float64(i%3)*200
		fmt.Fprintf(&sb, "%d,%s,%.2f\n", 20+i%40, p, amount)
	}
	table, err := ReadCSV(strings.NewReader(sb.String()))
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Forest.Trees = 10
	res, err := Run(context.Background(), zap.NewNop(), table, opts)
	require.NoError(t, err)
	assert.Equal(t, 18, res.TestRows)
	assert.Equal(t, 42, res.TrainRows)
	assert.Contains(t, res.Features, "Provider=Zen")
	assert.Less(t, res.RMSE, 1.0)
}
