package http

import (
	"net/http"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type createTransactionRequest struct {
	Type        core.TxType `json:"type"`
	Category    string      `json:"category"`
	Amount      core.Money  `json:"amount"`
	Date        core.Date   `json:"tx_date"`
	Description string      `json:"description"`
}

type updateTransactionRequest struct {
	Type        *core.TxType `json:"type"`
	Category    *string      `json:"category"`
	Amount      *core.Money  `json:"amount"`
	Date        *core.Date   `json:"tx_date"`
	Description *string      `json:"description"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

type updateResponse struct {
	Success bool             `json:"success"`
	Updated core.Transaction `json:"updated"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

type exportResponse struct {
	ReportID string `json:"report_id"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	tx, err := s.txSvc.Create(r.Context(), userIDFrom(r.Context()), core.Transaction{
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, idResponse{ID: tx.ID})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	typeFilter := core.TxType(r.URL.Query().Get("type"))
	txs, err := s.txSvc.List(r.Context(), userIDFrom(r.Context()), typeFilter)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.txSvc.Update(r.Context(), userIDFrom(r.Context()), id, services.TransactionPatch{
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Date:        req.Date,
		Description: req.Description,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updateResponse{Success: true, Updated: updated})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.txSvc.Delete(r.Context(), userIDFrom(r.Context()), id); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deleteResponse{Success: true})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.txSvc.Summary(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, r, &core.ValidationError{Msg: "Invalid limit"})
			return
		}
		limit = n
	}

	txs, err := s.txSvc.Recent(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}

func (s *Server) handleByMonth(w http.ResponseWriter, r *http.Request) {
	points, err := s.txSvc.ByMonth(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if points == nil {
		points = []core.MonthlyPoint{}
	}
	respondJSON(w, http.StatusOK, points)
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	cats, err := s.txSvc.ExpensesByCategory(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.CategoryAmount{}
	}
	respondJSON(w, http.StatusOK, cats)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	reportID, err := s.txSvc.RequestExport(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusAccepted, exportResponse{ReportID: reportID})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Msg: "Invalid transaction id"}
	}
	return id, nil
}
