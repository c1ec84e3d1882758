// Package risk implements the portfolio risk pipeline: daily return series,
// covariance-based portfolio volatility, and parametric Value-at-Risk.
package risk

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/riskmetrics/internal/modules/market"
)

// ReturnTable is a wide table of daily percentage returns: one row per date
// (ascending, unique), one column per ticker (sorted). Every cell is defined;
// dates with a pricing gap in any column are dropped during construction.
type ReturnTable struct {
	Dates   []time.Time
	Tickers []string
	data    *mat.Dense // len(Dates) x len(Tickers)
}

// Rows returns the number of return observations
func (rt *ReturnTable) Rows() int {
	return len(rt.Dates)
}

// Columns returns the number of instruments
func (rt *ReturnTable) Columns() int {
	return len(rt.Tickers)
}

// At returns the return for date row i and ticker column j
func (rt *ReturnTable) At(i, j int) float64 {
	return rt.data.At(i, j)
}

// Row copies the returns of one date into a new slice
func (rt *ReturnTable) Row(i int) []float64 {
	return mat.Row(nil, i, rt.data)
}

// Column copies the return series of one ticker into a new slice
func (rt *ReturnTable) Column(j int) []float64 {
	return mat.Col(nil, j, rt.data)
}

// Matrix exposes the underlying dense matrix for covariance estimation
func (rt *ReturnTable) Matrix() mat.Matrix {
	return rt.data
}

// BuildReturnTable pivots long-format price records into a wide price table
// (rows = dates, columns = tickers, value = close) and converts it to simple
// percentage returns r[t] = p[t]/p[t-1] - 1.
//
// Duplicate (date, ticker) records resolve to the maximum close. Rows with
// any undefined cell are dropped: the first date always, and any date where
// a ticker has no price for it or the previous date. Returns
// ErrInsufficientData when no complete return row remains.
func BuildReturnTable(records []market.PriceRecord) (*ReturnTable, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no price records to pivot: %w", ErrInsufficientData)
	}

	// Pivot with max-close tie-break for duplicates.
	prices := make(map[time.Time]map[string]float64)
	tickerSet := make(map[string]struct{})
	for _, rec := range records {
		day := rec.Date
		if _, ok := prices[day]; !ok {
			prices[day] = make(map[string]float64)
		}
		if existing, ok := prices[day][rec.Ticker]; !ok || rec.Close > existing {
			prices[day][rec.Ticker] = rec.Close
		}
		tickerSet[rec.Ticker] = struct{}{}
	}

	dates := make([]time.Time, 0, len(prices))
	for day := range prices {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	tickers := make([]string, 0, len(tickerSet))
	for ticker := range tickerSet {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	// Column-wise percentage change; rows with any missing cell are dropped.
	var (
		retDates []time.Time
		retRows  [][]float64
	)
	for t := 1; t < len(dates); t++ {
		row := make([]float64, len(tickers))
		complete := true
		for j, ticker := range tickers {
			prev, hasPrev := prices[dates[t-1]][ticker]
			cur, hasCur := prices[dates[t]][ticker]
			if !hasPrev || !hasCur {
				complete = false
				break
			}
			row[j] = cur/prev - 1
		}
		if !complete {
			continue
		}
		retDates = append(retDates, dates[t])
		retRows = append(retRows, row)
	}

	if len(retRows) == 0 {
		return nil, fmt.Errorf("no complete return rows across %d dates and %d tickers: %w",
			len(dates), len(tickers), ErrInsufficientData)
	}

	data := mat.NewDense(len(retRows), len(tickers), nil)
	for i, row := range retRows {
		data.SetRow(i, row)
	}

	return &ReturnTable{
		Dates:   retDates,
		Tickers: tickers,
		data:    data,
	}, nil
}

// HasUndefined reports whether any cell of the table is NaN or infinite.
// Construction never produces one; this exists as a cheap integrity check
// for tables assembled from untrusted stores.
func (rt *ReturnTable) HasUndefined() bool {
	n, k := rt.data.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			v := rt.data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}
