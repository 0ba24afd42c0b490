package handler

import (
	"net/http"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/go-chi/chi/v5"
)

// ShellHandler drives the session's tab shell.
type ShellHandler struct{}

// NewShellHandler creates a new ShellHandler.
func NewShellHandler() *ShellHandler {
	return &ShellHandler{}
}

// Get returns the shell snapshot.
func (h *ShellHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	respondJSON(w, http.StatusOK, sess.Shell.Snapshot())
}

// Menu returns the session's menu tree.
func (h *ShellHandler) Menu(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	respondJSON(w, http.StatusOK, sess.Menu.Mains())
}

// OpenTab opens (or activates) a tab.
func (h *ShellHandler) OpenTab(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if _, err := sess.Shell.OpenTab(chi.URLParam(r, "moduleKey")); err != nil {
		handleError(w, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, sess.Shell.Snapshot())
}

// ActivateTab switches to an open tab.
func (h *ShellHandler) ActivateTab(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if _, err := sess.Shell.SetActiveTab(chi.URLParam(r, "moduleKey")); err != nil {
		handleError(w, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, sess.Shell.Snapshot())
}

// CloseTab closes a tab.
func (h *ShellHandler) CloseTab(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if _, err := sess.Shell.CloseTab(chi.URLParam(r, "moduleKey")); err != nil {
		handleError(w, err, nil)
		return
	}
	respondJSON(w, http.StatusOK, sess.Shell.Snapshot())
}

// Dispatch runs a toolbar action on the active tab. Exports are streamed
// as attachments; everything else returns the outcome.
func (h *ShellHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	action, err := domain.ParseAction(chi.URLParam(r, "action"))
	if err != nil {
		handleError(w, err, nil)
		return
	}

	out, err := sess.Shell.Dispatch(r.Context(), action)
	if err != nil {
		handleError(w, err, out.Notice)
		return
	}
	if out.Download != nil {
		respondDownload(w, out.Download)
		return
	}
	respondJSON(w, http.StatusOK, out)
}
