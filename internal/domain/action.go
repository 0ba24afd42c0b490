package domain

import (
	"strings"

	"github.com/go-faster/errors"
)

// Action is a toolbar command dispatched to the active card.
type Action int

const (
	ActionSearch Action = iota
	ActionCreate
	ActionEdit
	ActionDelete
	ActionExportCSV
	ActionExportXLSX
	ActionExportPDF
	ActionPrint
	ActionReset
)

var actionNames = [...]string{"search", "create", "edit", "delete", "csv", "xlsx", "pdf", "print", "reset"}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// IsExport reports whether the action produces a download.
func (a Action) IsExport() bool {
	return a == ActionExportCSV || a == ActionExportXLSX || a == ActionExportPDF
}

// Actions lists every action in toolbar order.
func Actions() []Action {
	return []Action{
		ActionSearch, ActionCreate, ActionEdit, ActionDelete,
		ActionExportCSV, ActionExportXLSX, ActionExportPDF,
		ActionPrint, ActionReset,
	}
}

// ParseAction resolves a toolbar action name. "excel" is accepted for xlsx.
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "excel" {
		return ActionExportXLSX, nil
	}
	for i, n := range actionNames {
		if n == name {
			return Action(i), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownAction, "%q", name)
}
