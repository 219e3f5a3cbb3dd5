package http

import (
	"time"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Amounts cross the API as decimals in currency units; the ledger keeps cents.

type createAccountRequest struct {
	ID             string          `json:"id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type transactionRequest struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
}

type monthRequest struct {
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
}

type pointDTO struct {
	Month    int     `json:"month"`
	Revenue  float64 `json:"revenue"`
	Expenses float64 `json:"expenses"`
}

type seriesRequest struct {
	Series  []pointDTO `json:"series"`
	Horizon int        `json:"horizon"`
}

type bucketDTO struct {
	Month    int             `json:"month"`
	Name     string          `json:"name"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
	Net      decimal.Decimal `json:"net"`
}

type transactionDTO struct {
	ID          int64           `json:"id"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	Description string          `json:"description"`
}

type accountResponse struct {
	ID             string           `json:"id"`
	InitialBalance decimal.Decimal  `json:"initial_balance"`
	Balance        decimal.Decimal  `json:"balance"`
	TotalRevenue   decimal.Decimal  `json:"total_revenue"`
	TotalExpenses  decimal.Decimal  `json:"total_expenses"`
	Revision       int64            `json:"revision"`
	Buckets        []bucketDTO      `json:"buckets"`
	Transactions   []transactionDTO `json:"transactions"`
}

type trendResponse struct {
	Trend []float64 `json:"trend"`
}

type modelResponse struct {
	Forecast [12]float64 `json:"forecast"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (r transactionRequest) input() (in ledger.TransactionInput, err error) {
	if in.Date, err = core.ParseDate(r.Date); err != nil {
		return in, err
	}
	if in.Amount, err = core.MoneyFromDecimal(r.Amount); err != nil {
		return in, err
	}
	if in.Kind, err = core.ParseKind(r.Kind); err != nil {
		return in, err
	}
	in.Description = r.Description
	return in, nil
}

func (r seriesRequest) series() core.MonthlySeries {
	out := make(core.MonthlySeries, len(r.Series))
	for i, p := range r.Series {
		out[i] = core.MonthlyPoint{Month: time.Month(p.Month), Revenue: p.Revenue, Expenses: p.Expenses}
	}
	return out
}

func newAccountResponse(a *core.Account) accountResponse {
	resp := accountResponse{
		ID:             a.ID,
		InitialBalance: a.InitialBalance.Decimal(),
		Balance:        a.Balance.Decimal(),
		TotalRevenue:   a.TotalRevenue.Decimal(),
		TotalExpenses:  a.TotalExpenses.Decimal(),
		Revision:       a.Revision,
		Buckets:        make([]bucketDTO, 0, len(a.Buckets)),
		Transactions:   make([]transactionDTO, 0, len(a.Transactions)),
	}
	for _, b := range a.Buckets {
		resp.Buckets = append(resp.Buckets, bucketDTO{
			Month:    int(b.Month),
			Name:     b.Name(),
			Revenue:  b.Revenue.Decimal(),
			Expenses: b.Expenses.Decimal(),
			Net:      b.Net().Decimal(),
		})
	}
	for _, t := range a.Transactions {
		resp.Transactions = append(resp.Transactions, newTransactionDTO(t))
	}
	return resp
}

func newTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          t.ID,
		Date:        t.Date.String(),
		Amount:      t.Amount.Decimal(),
		Kind:        string(t.Kind),
		Description: t.Description,
	}
}
