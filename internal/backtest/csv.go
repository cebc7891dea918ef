package backtest

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var tradeCSVHeader = []string{
	"date", "action", "price", "quantity", "value", "fee",
	"cash_after", "holdings_after", "portfolio_value",
}

// WriteTradesCSV writes trades as CSV with a header row
func WriteTradesCSV(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeCSVHeader); err != nil {
		return err
	}

	for _, t := range trades {
		record := []string{
			t.Date.Format(time.RFC3339),
			string(t.Action),
			formatFloat(t.Price),
			strconv.Itoa(t.Quantity),
			formatFloat(t.Value),
			formatFloat(t.Fee),
			formatFloat(t.CashAfter),
			strconv.Itoa(t.HoldingsAfter),
			formatFloat(t.PortfolioValue),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
