package http

import (
	"net/http"
	"slices"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// respondSnapshot writes the snapshot, downgrading degraded errors to a
// warning on a 200. With ?sort=time the list is ordered by date and time
// instead of entry order, unknown times last.
func (s *Server) respondSnapshot(w http.ResponseWriter, r *http.Request, status int, snap services.Snapshot, err error) {
	if err != nil && !degraded(err) {
		writeError(w, r, err)
		return
	}
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Serving degraded ledger", log.FieldError, err)
	}
	if r.URL.Query().Get("sort") == "time" {
		snap.Ledger.Transactions = slices.Clone(snap.Ledger.Transactions)
		core.SortByTime(snap.Ledger.Transactions)
	}
	writeJSON(w, status, toSnapshotResponse(s.finance.CurrencySymbol(), snap, err))
}

// handleOpenLedger is the transaction screen load; it seeds the starting
// balance on first use.
func (s *Server) handleOpenLedger(w http.ResponseWriter, r *http.Request) {
	snap, err := s.finance.Open(r.Context(), sessionFrom(r.Context()).Username)
	s.respondSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.finance.Dashboard(r.Context(), sessionFrom(r.Context()).Username)
	s.respondSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var in transactionInputJSON
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.finance.AddTransaction(r.Context(), sessionFrom(r.Context()).Username, in.input())
	s.respondSnapshot(w, r, http.StatusCreated, snap, err)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	old, err := req.Original.transaction()
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.finance.EditTransaction(r.Context(), sessionFrom(r.Context()).Username, old, req.Update.input())
	s.respondSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionJSON
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.transaction()
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.finance.RemoveTransaction(r.Context(), sessionFrom(r.Context()).Username, t)
	s.respondSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	snap, err := s.finance.Reconcile(r.Context(), sessionFrom(r.Context()).Username)
	s.respondSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	summary, err := s.finance.Reports(r.Context(), sessionFrom(r.Context()).Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
