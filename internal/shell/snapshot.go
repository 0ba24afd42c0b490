package shell

import (
	"github.com/bcnelson/erp-console/internal/card"
	"github.com/bcnelson/erp-console/internal/domain"
)

// Outcome is the result of a dispatched action.
type Outcome struct {
	Module string `json:"module,omitempty"`
	Action string `json:"action"`
	card.Result
}

// Tab is one entry of the tab bar.
type Tab struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Route  string `json:"route"`
	Active bool   `json:"active"`
}

// Snapshot is a consistent view of the shell state.
type Snapshot struct {
	Tabs        []Tab              `json:"tabs"`
	Active      string             `json:"active,omitempty"`
	Breadcrumb  []string           `json:"breadcrumb,omitempty"`
	ActiveMain  string             `json:"activeMain,omitempty"`
	Permissions domain.Permissions `json:"permissions"`
	Route       string             `json:"route"`
	Menu        []domain.MainMenu  `json:"menu"`
}

// Snapshot returns the current shell state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{
		Tabs:        make([]Tab, 0, len(o.tabs)),
		Active:      o.active,
		Breadcrumb:  append([]string(nil), o.breadcrumb...),
		ActiveMain:  o.menu.MainOf(o.active),
		Permissions: o.perms[o.active],
		Route:       o.route,
		Menu:        o.menu.Mains(),
	}
	for _, key := range o.tabs {
		s.Tabs = append(s.Tabs, Tab{
			Key:    key,
			Label:  o.label(key),
			Route:  RouteOf(key),
			Active: key == o.active,
		})
	}
	return s
}

func (o *Orchestrator) label(key string) string {
	if o.menu.Has(key) {
		return o.menu.Label(key)
	}
	if s, err := o.registry.Get(key); err == nil {
		return s.Title
	}
	return key
}
