// Package menu builds the sidebar menu tree from the gateway's flat menu
// rows and answers breadcrumb lookups for the shell.
package menu

import (
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/sirupsen/logrus"
)

// Row fields of comm.menu_s and comm.comm_s.
const (
	fieldModule   = "module"
	fieldButtonID = "buttonid"
	fieldRemark   = "remark"

	parentMarker = "parent"

	codeGroupField = "hz05020"
	codeValueField = "hz05030"
	codeLabelField = "hz05040"
)

type location struct {
	main int
	sub  int
}

// Tree is the immutable menu of one session.
type Tree struct {
	mains []domain.MainMenu
	index map[string]location
	codes []domain.Record
}

// Empty returns a tree with no menus.
func Empty() *Tree {
	return &Tree{index: map[string]location{}}
}

// Build partitions flat menu rows into main menus and their submenus. A
// submenu whose parent is missing is dropped, and a repeated moduleKey
// keeps its first occurrence.
func Build(rows []domain.Record, codes []domain.Record, logger *logrus.Logger) *Tree {
	t := Empty()
	mainIdx := map[string]int{}

	for _, row := range rows {
		if row.Get(fieldModule) != parentMarker {
			continue
		}
		id := row.Get(fieldButtonID)
		if _, dup := mainIdx[id]; dup {
			logger.WithField("buttonid", id).Warn("duplicate main menu ignored")
			continue
		}
		mainIdx[id] = len(t.mains)
		t.mains = append(t.mains, domain.MainMenu{ID: id, Label: row.Get(fieldRemark)})
	}

	for _, row := range rows {
		key := row.Get(fieldModule)
		if key == parentMarker || key == "" {
			continue
		}
		mi, ok := mainIdx[row.Get(fieldButtonID)]
		if !ok {
			logger.WithFields(logrus.Fields{"module": key, "buttonid": row.Get(fieldButtonID)}).
				Warn("submenu without parent dropped")
			continue
		}
		if _, dup := t.index[key]; dup {
			logger.WithField("module", key).Warn("duplicate module key ignored")
			continue
		}
		main := &t.mains[mi]
		t.index[key] = location{main: mi, sub: len(main.SubMenus)}
		main.SubMenus = append(main.SubMenus, domain.SubMenu{
			ID:        key,
			Label:     row.Get(fieldRemark),
			ModuleKey: key,
		})
	}

	t.codes = codes
	return t
}

// Mains returns a copy of the main menus in display order.
func (t *Tree) Mains() []domain.MainMenu {
	out := make([]domain.MainMenu, len(t.mains))
	for i, m := range t.mains {
		m.SubMenus = append([]domain.SubMenu(nil), m.SubMenus...)
		out[i] = m
	}
	return out
}

// Has reports whether moduleKey is a submenu of the tree.
func (t *Tree) Has(moduleKey string) bool {
	_, ok := t.index[moduleKey]
	return ok
}

// Breadcrumb returns [main label, sub label], or [moduleKey] when the key is
// not in the tree.
func (t *Tree) Breadcrumb(moduleKey string) []string {
	loc, ok := t.index[moduleKey]
	if !ok {
		return []string{moduleKey}
	}
	main := t.mains[loc.main]
	return []string{main.Label, main.SubMenus[loc.sub].Label}
}

// MainOf returns the id of the main menu owning moduleKey, or "".
func (t *Tree) MainOf(moduleKey string) string {
	loc, ok := t.index[moduleKey]
	if !ok {
		return ""
	}
	return t.mains[loc.main].ID
}

// Label returns the submenu label of moduleKey, falling back to the key.
func (t *Tree) Label(moduleKey string) string {
	loc, ok := t.index[moduleKey]
	if !ok {
		return moduleKey
	}
	return t.mains[loc.main].SubMenus[loc.sub].Label
}

// Codes returns the select options of a common-code group.
func (t *Tree) Codes(group string) []domain.CodeOption {
	var out []domain.CodeOption
	for _, row := range t.codes {
		if row.Get(codeGroupField) == group {
			out = append(out, domain.CodeOption{Value: row.Get(codeValueField), Label: row.Get(codeLabelField)})
		}
	}
	return out
}
