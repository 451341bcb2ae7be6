// Package dataset loads and generates labelled embedding batches.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Batch is a set of embeddings with index-aligned integer labels.
type Batch struct {
	Embeddings *mat.Dense
	Labels     []int
}

// Len returns the number of samples in the batch.
func (b *Batch) Len() int {
	return len(b.Labels)
}

// Dim returns the embedding width, or 0 for an empty batch.
func (b *Batch) Dim() int {
	if b.Embeddings == nil || b.Embeddings.IsEmpty() {
		return 0
	}
	_, d := b.Embeddings.Dims()
	return d
}

// LoadCSVFile opens filename and calls LoadCSV.
func LoadCSVFile(filename string, labelCol int, hasHeader bool) (*Batch, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return LoadCSV(file, labelCol, hasHeader)
}

// LoadCSV reads one sample per row. Column labelCol holds the integer label,
// every other column is an embedding coordinate in order.
// hasHeader skips the first line if true.
func LoadCSV(r io.Reader, labelCol int, hasHeader bool) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}

	if len(records) <= startRow {
		return nil, fmt.Errorf("csv file has no data rows")
	}

	numCols := len(records[startRow])
	if labelCol < 0 || labelCol >= numCols {
		return nil, fmt.Errorf("label column %d out of range [0, %d)", labelCol, numCols)
	}
	if numCols < 2 {
		return nil, fmt.Errorf("csv needs at least one embedding column besides the label")
	}

	numSamples := len(records) - startRow
	dim := numCols - 1
	data := make([]float64, 0, numSamples*dim)
	labels := make([]int, numSamples)

	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d: expected %d, got %d", i, numCols, len(record))
		}

		for j, valStr := range record {
			valStr = strings.TrimSpace(valStr)
			if j == labelCol {
				label, err := strconv.Atoi(valStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse label at row %d: %w", i, err)
				}
				labels[i-startRow] = label
				continue
			}
			val, err := strconv.ParseFloat(valStr, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			data = append(data, val)
		}
	}

	return &Batch{
		Embeddings: mat.NewDense(numSamples, dim, data),
		Labels:     labels,
	}, nil
}

// Random draws n standard-normal embeddings of width d with labels uniform
// in [0, classes). The same seed always yields the same batch.
func Random(n, d, classes int, seed uint64) *Batch {
	if n <= 0 {
		return &Batch{Embeddings: &mat.Dense{}}
	}
	src := rand.NewPCG(seed, seed+1)
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	data := make([]float64, n*d)
	for i := range data {
		data[i] = normal.Rand()
	}

	rng := rand.New(src)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = rng.IntN(classes)
	}

	return &Batch{
		Embeddings: mat.NewDense(n, d, data),
		Labels:     labels,
	}
}
