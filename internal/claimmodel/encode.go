package claimmodel

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Matrix is a numeric design matrix with its target vector.
type Matrix struct {
	Features []string
	X        [][]float64
	Y        []float64
}

// Encode turns a table into a Matrix. Each categorical column becomes one indicator column
// per distinct value, named "<column>=<value>" in sorted value order. Every other column
// except the target must parse as a float.
func Encode(t *Table, target string, categorical []string) (*Matrix, error) {
	targetIdx, err := t.Column(target)
	if err != nil {
		return nil, err
	}

	isCategorical := make(map[int]bool, len(categorical))
	for _, name := range categorical {
		idx, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if idx == targetIdx {
			return nil, fmt.Errorf("target %q cannot be categorical", target)
		}
		isCategorical[idx] = true
	}

	type block struct {
		column int
		levels map[string]int
		offset int
	}

	var (
		features []string
		blocks   []block
		numeric  = map[int]int{}
	)
	for col, name := range t.Header {
		if col == targetIdx {
			continue
		}
		if !isCategorical[col] {
			numeric[col] = len(features)
			features = append(features, name)
			continue
		}

		values := distinct(t.Rows, col)
		b := block{column: col, levels: make(map[string]int, len(values)), offset: len(features)}
		for i, v := range values {
			b.levels[v] = i
			features = append(features, name+"="+v)
		}
		blocks = append(blocks, b)
	}

	m := &Matrix{
		Features: features,
		X:        make([][]float64, len(t.Rows)),
		Y:        make([]float64, len(t.Rows)),
	}
	for r, row := range t.Rows {
		y, err := strconv.ParseFloat(row[targetIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %s: %w", r+2, target, err)
		}
		m.Y[r] = y

		x := make([]float64, len(features))
		for col, pos := range numeric {
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", r+2, t.Header[col], err)
			}
			x[pos] = v
		}
		for _, b := range blocks {
			x[b.offset+b.levels[row[b.column]]] = 1
		}
		m.X[r] = x
	}
	return m, nil
}

func distinct(rows [][]string, col int) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		seen[row[col]] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Split shuffles row indices with seed and holds out testFraction of them.
// The test set gets ceil(n*testFraction) rows, and both sides keep at least one row.
func Split(m *Matrix, testFraction float64, seed int64) (train, test *Matrix, err error) {
	n := len(m.Y)
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 rows to split", ErrEmptyDataset)
	}

	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 1 {
		nTest = 1
	}

	perm := newRand(seed).Perm(n)
	test = subset(m, perm[:nTest])
	train = subset(m, perm[nTest:])
	return train, test, nil
}

func subset(m *Matrix, idx []int) *Matrix {
	out := &Matrix{Features: m.Features, X: make([][]float64, len(idx)), Y: make([]float64, len(idx))}
	for i, j := range idx {
		out.X[i] = m.X[j]
		out.Y[i] = m.Y[j]
	}
	return out
}
