package handler

import (
	"net/http"

	"github.com/bcnelson/erp-console/internal/card"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/go-chi/chi/v5"
)

// CardHandler exposes the non-gated card commands of open tabs.
type CardHandler struct{}

// NewCardHandler creates a new CardHandler.
func NewCardHandler() *CardHandler {
	return &CardHandler{}
}

func cardOf(w http.ResponseWriter, r *http.Request) (card.Handle, bool) {
	sess := session.FromContext(r.Context())
	h, err := sess.Shell.Card(chi.URLParam(r, "moduleKey"))
	if err != nil {
		handleError(w, err, nil)
		return nil, false
	}
	return h, true
}

// respondResult writes a command result, or its error with the notice.
func respondResult(w http.ResponseWriter, res *card.Result, err error) {
	if err != nil {
		var notice *domain.Notice
		if res != nil {
			notice = res.Notice
		}
		handleError(w, err, notice)
		return
	}
	if res == nil {
		res = &card.Result{}
	}
	respondJSON(w, http.StatusOK, res)
}

// Get returns the card view.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := cardOf(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, c.View())
}

type selectRequest struct {
	Key string `json:"key"`
}

// Select selects a row by primary key.
func (h *CardHandler) Select(w http.ResponseWriter, r *http.Request) {
	c, ok := cardOf(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err, nil)
		return
	}
	if err := c.Select(req.Key); err != nil {
		handleError(w, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, c.View())
}

// Save submits the open form.
func (h *CardHandler) Save(w http.ResponseWriter, r *http.Request) {
	c, ok := cardOf(w, r)
	if !ok {
		return
	}
	var rec domain.Record
	if err := decodeJSON(r, &rec); err != nil {
		handleError(w, err, nil)
		return
	}
	res, err := c.Save(r.Context(), rec)
	respondResult(w, res, err)
}

type confirmRequest struct {
	Yes bool `json:"yes"`
}

// Confirm answers the pending prompt.
func (h *CardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	c, ok := cardOf(w, r)
	if !ok {
		return
	}
	var req confirmRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, err, nil)
		return
	}
	res, err := c.Confirm(r.Context(), req.Yes)
	respondResult(w, res, err)
}

// Cancel closes the open form or prompt.
func (h *CardHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	c, ok := cardOf(w, r)
	if !ok {
		return
	}
	c.Cancel()
	respondJSON(w, http.StatusOK, c.View())
}

// SetConditions replaces the search inputs.
func (h *CardHandler) SetConditions(w http.ResponseWriter, r *http.Request) {
	c, ok := cardOf(w, r)
	if !ok {
		return
	}
	var conds map[string]string
	if err := decodeJSON(r, &conds); err != nil {
		handleError(w, err, nil)
		return
	}
	c.SetConditions(conds)
	respondJSON(w, http.StatusOK, c.View())
}

// SetColumns replaces the grid layout.
func (h *CardHandler) SetColumns(w http.ResponseWriter, r *http.Request) {
	c, ok := cardOf(w, r)
	if !ok {
		return
	}
	var cols []entity.Column
	if err := decodeJSON(r, &cols); err != nil {
		handleError(w, err, nil)
		return
	}
	if err := c.SetColumns(cols); err != nil {
		handleError(w, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, c.View())
}
