package server

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/askthatman/dividend/internal/analysis"
	"github.com/askthatman/dividend/internal/model"
	"github.com/askthatman/dividend/internal/session"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Loaded  bool   `json:"loaded"`
	Bank    string `json:"bank,omitempty"`
	Source  string `json:"source,omitempty"`
	Records int    `json:"records"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Failed  bool   `json:"failed"`
	Error   string `json:"error,omitempty"`
}

func toStatusResponse(id string, st session.Status) statusResponse {
	return statusResponse{
		Success: true,
		ID:      id,
		Loaded:  st.Loaded,
		Bank:    string(st.Bank),
		Source:  st.Source,
		Records: st.Records,
		From:    formatDate(st.From),
		To:      formatDate(st.To),
		Failed:  st.Failed,
		Error:   session.UserMessage(st.Error),
	}
}

type dividendRow struct {
	Date         string `json:"date"`
	Summary      string `json:"summary"`
	CreditAmount string `json:"credit_amount"`
}

type dividendResponse struct {
	Success bool          `json:"success"`
	Total   string        `json:"total"`
	Matched []dividendRow `json:"matched"`
}

func toDividendResponse(res model.DividendResult) dividendResponse {
	resp := dividendResponse{
		Success: true,
		Total:   res.Total.StringFixed(2),
		Matched: make([]dividendRow, 0, len(res.Matched)),
	}
	for _, m := range res.Matched {
		resp.Matched = append(resp.Matched, dividendRow{
			Date:         formatDate(m.Date),
			Summary:      m.Summary,
			CreditAmount: m.Credit.StringFixed(2),
		})
	}
	return resp
}

type analysisRequest struct {
	TransactionType string          `json:"transaction_type"`
	MinAmount       decimal.Decimal `json:"min_amount"`
	MaxAmount       decimal.Decimal `json:"max_amount"`
	FromDate        string          `json:"from_date"`
	ToDate          string          `json:"to_date"`
	ContainsText    string          `json:"contains_text"`
}

func (req analysisRequest) filter() (analysis.Filter, error) {
	typ, err := model.ParseTransactionType(req.TransactionType)
	if err != nil {
		return analysis.Filter{}, err
	}
	from, err := time.Parse(time.DateOnly, req.FromDate)
	if err != nil {
		return analysis.Filter{}, fmt.Errorf("from_date %q: want YYYY-MM-DD", req.FromDate)
	}
	to, err := time.Parse(time.DateOnly, req.ToDate)
	if err != nil {
		return analysis.Filter{}, fmt.Errorf("to_date %q: want YYYY-MM-DD", req.ToDate)
	}
	return analysis.Filter{
		Type:      typ,
		MinAmount: req.MinAmount,
		MaxAmount: req.MaxAmount,
		From:      from,
		To:        to,
		Contains:  req.ContainsText,
	}, nil
}

type analysisRow struct {
	Date    string `json:"date"`
	Summary string `json:"summary"`
	Amount  string `json:"amount"`
}

type analysisResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Total   string        `json:"total"`
	Rows    []analysisRow `json:"rows"`
}

func toAnalysisResponse(rows []model.AnalysisRow, total model.AnalysisTotal) analysisResponse {
	resp := analysisResponse{
		Success: true,
		Count:   total.Count,
		Total:   total.Amount.StringFixed(2),
		Rows:    make([]analysisRow, 0, len(rows)),
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, analysisRow{
			Date:    formatDate(row.Date),
			Summary: row.Summary,
			Amount:  row.Amount,
		})
	}
	return resp
}
