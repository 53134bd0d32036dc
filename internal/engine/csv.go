package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"blackbox/types"
)

const csvDateLayout = "2006-01-02"

// WriteTradeHistoryCSVFile writes the trade history to a CSV file at path.
func WriteTradeHistoryCSVFile(path string, records []types.TradeRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trade history file: %w", err)
	}
	defer f.Close()

	return WriteTradeHistoryCSV(f, records)
}

// WriteTradeHistoryCSV writes trade records to any io.Writer as CSV.
// You can pass os.Stdout for debugging, or a file.
func WriteTradeHistoryCSV(w io.Writer, records []types.TradeRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"date",
		"symbol",
		"action",
		"weight",
		"price",
		"notional",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Date.Format(csvDateLayout),
			r.Symbol,
			string(r.Action),
			r.Weight.String(),
			r.Price.String(),
			r.Notional.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteLedgerCSVFile writes the daily equity ledger to a CSV file at path.
func WriteLedgerCSVFile(path string, logs []types.DailyLog) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}
	defer f.Close()

	return WriteLedgerCSV(f, logs)
}

// WriteLedgerCSV writes one row per processed trading day.
func WriteLedgerCSV(w io.Writer, logs []types.DailyLog) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"date",
		"equity",
		"cash",
		"pnl",
		"drawdown",
		"trades",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, l := range logs {
		row := []string{
			l.Date.Format(csvDateLayout),
			l.Equity.StringFixed(2),
			l.Cash.StringFixed(2),
			l.PnL.StringFixed(2),
			l.Drawdown.StringFixed(6),
			fmt.Sprintf("%d", len(l.Trades)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
