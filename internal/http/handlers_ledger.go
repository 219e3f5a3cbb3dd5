package http

import (
	"net/http"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	initial, err := core.MoneyFromDecimal(req.InitialBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.ledger.CreateAccount(r.Context(), req.ID, initial)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/accounts/"+a.ID)
	writeJSON(w, http.StatusCreated, newAccountResponse(a))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.ledger.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountResponse(a))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.AddTransaction(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.changed(r, id)
	writeJSON(w, http.StatusCreated, newTransactionDTO(t))
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	txID, err := pathTxID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.ledger.EditTransaction(r.Context(), id, txID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.changed(r, id)
	writeJSON(w, http.StatusOK, newTransactionDTO(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	txID, err := pathTxID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ledger.DeleteTransaction(r.Context(), id, txID); err != nil {
		writeError(w, r, err)
		return
	}
	s.changed(r, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEditMonth(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req monthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	revenue, err := core.MoneyFromDecimal(req.Revenue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := core.MoneyFromDecimal(req.Expenses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.ledger.EditMonthlyData(r.Context(), id, month, revenue, expenses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.changed(r, id)
	writeJSON(w, http.StatusOK, newAccountResponse(a))
}

// changed drops cached forecasts after a committed write.
func (s *Server) changed(r *http.Request, accountID string) {
	if s.forecasts == nil {
		return
	}
	s.forecasts.Invalidate(accountID)
	applog.FromContext(r.Context()).Debug("Forecast cache invalidated",
		applog.FieldAccountID, accountID)
}
