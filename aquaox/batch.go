package aquaox

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// aerationTestColumns are the CSV columns read by ReadAerationTests, in AerationTest order.
var aerationTestColumns = []string{"temperature", "salinity", "hp", "volume", "t10", "t70", "kwh_price", "aerator_id"}

// ReadAerationTests parses re-aeration tests from CSV. The first record is a header
// naming the columns temperature, salinity, hp, volume, t10, t70, kwh_price and
// aerator_id in any order; extra columns are ignored.
func ReadAerationTests(r io.Reader) ([]AerationTest, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, errors.New("aeration tests: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("aeration tests: read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range aerationTestColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("aeration tests: missing column %q", name)
		}
	}

	var tests []AerationTest
	for line := 2; ; line++ {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("aeration tests: %w", err)
		}

		var values [7]float64
		for i, name := range aerationTestColumns[:7] {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[index[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("aeration tests: line %d: column %s: %w", line, name, err)
			}
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, fmt.Errorf("aeration tests: line %d: column %s: %q is not a finite number", line, name, row[index[name]])
			}
			values[i] = v
		}

		tests = append(tests, AerationTest{
			Temperature: values[0],
			Salinity:    values[1],
			Horsepower:  values[2],
			Volume:      values[3],
			T10:         values[4],
			T70:         values[5],
			KWhPrice:    values[6],
			AeratorID:   row[index["aerator_id"]],
		})
	}
	return tests, nil
}

// BatchResult is the outcome of one AerationTest in a batch.
// Exactly one of Metrics and Err is meaningful.
type BatchResult struct {
	Test    AerationTest
	Metrics AerationMetrics
	Err     error
}

// BatchReport holds batch results in input order.
type BatchReport struct {
	GeneratedAt time.Time
	Results     []BatchResult
}

// Failed counts results that carry an error.
func (r *BatchReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// BatchOption configures EvaluateBatch.
type BatchOption func(*batchOptions)

type batchOptions struct {
	clock clockwork.Clock
}

// WithClock sets the clock that stamps BatchReport.GeneratedAt. The default is real time.
func WithClock(c clockwork.Clock) BatchOption {
	return func(o *batchOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// EvaluateBatch runs AerationMetrics for every test with at most workers concurrent
// evaluations. A failing test is recorded on its result and does not stop the batch.
// The only error returned is the context's.
func EvaluateBatch(ctx context.Context, pond *ShrimpPond, tests []AerationTest, workers int, opts ...BatchOption) (*BatchReport, error) {
	o := batchOptions{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]BatchResult, len(tests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range tests {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := pond.AerationMetrics(tests[i])
			results[i] = BatchResult{Test: tests[i], Metrics: m, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &BatchReport{
		GeneratedAt: o.clock.Now(),
		Results:     results,
	}, nil
}
