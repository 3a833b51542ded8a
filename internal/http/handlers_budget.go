package http

import "net/http"

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, status, err := s.finance.CurrentBudget(r.Context(), sessionFrom(r.Context()).Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetResponse{
		MonthlyBudget: b.MonthlyBudget.StringFixed(2),
		CreationMonth: b.CreationMonth,
		Status:        toStatusJSON(status),
	})
}

// handleSetBudget takes the dialog text as typed. Empty or unreadable text
// clears the budget.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := s.finance.SetBudget(r.Context(), sessionFrom(r.Context()).Username, sanitizeInput(req.Amount))
	s.respondSnapshot(w, r, http.StatusOK, snap, err)
}
