package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bcnelson/erp-console/internal/card"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/i18n"
	"github.com/bcnelson/erp-console/internal/session"
	"github.com/bcnelson/erp-console/internal/shell"
	"github.com/go-faster/errors"
)

// shellPage is the content of the shell page.
type shellPage struct {
	Shell      shell.Snapshot
	View       *card.View
	Toolbar    []toolButton
	Conditions []conditionInput
	Form       []formInput
	FormMode   string
	Prompt     string
	Loading    bool
	Failure    string
}

type toolButton struct {
	Action  string
	Label   string
	Enabled bool
}

type conditionInput struct {
	Name     string
	Label    string
	Value    string
	Checkbox bool
	Checked  bool
	Options  []domain.CodeOption
}

type formInput struct {
	Name     string
	Label    string
	Value    string
	Error    string
	Required bool
	MaxLen   int
	ReadOnly bool
	Options  []domain.CodeOption
}

// buildShellPage assembles the shell page from the session's current state.
func buildShellPage(sess *session.Session, l *i18n.Localizer) (shellPage, error) {
	page := shellPage{Shell: sess.Shell.Snapshot()}
	if page.Shell.Active == "" {
		return page, nil
	}

	h, err := sess.Shell.Card(page.Shell.Active)
	if err != nil {
		return page, err
	}
	schema, err := sess.Shell.Registry().Get(page.Shell.Active)
	if err != nil {
		return page, err
	}
	view := h.View()
	page.View = &view
	page.Loading = view.State == card.StateLoading.String()
	if view.State == card.StateError.String() && view.Notice != nil {
		page.Failure = l.Notice(view.Notice)
	}
	page.Toolbar = toolbar(schema, page.Shell.Permissions, l)
	page.Conditions = conditionInputs(schema, view)
	if view.Form != nil {
		page.FormMode = view.Form.Mode.String()
		page.Form = formInputs(schema, view)
	}
	if view.Prompt != nil {
		page.Prompt = l.T(view.Prompt.MessageID, view.Prompt.Data)
	}
	return page, nil
}

func toolbar(schema *entity.Schema, perms domain.Permissions, l *i18n.Localizer) []toolButton {
	actions := domain.Actions()
	out := make([]toolButton, 0, len(actions))
	for _, a := range actions {
		out = append(out, toolButton{
			Action:  a.String(),
			Label:   l.Text("Toolbar." + a.String()),
			Enabled: perms.Allows(schema.Requirement(a)),
		})
	}
	return out
}

func conditionInputs(schema *entity.Schema, view card.View) []conditionInput {
	out := make([]conditionInput, 0, len(schema.Conditions))
	for _, c := range schema.Conditions {
		v, ok := view.Conditions[c.Name]
		if !ok {
			v = c.Default
		}
		in := conditionInput{Name: c.Name, Label: c.Label, Value: v}
		switch c.Kind {
		case entity.CondCheckbox:
			in.Checkbox = true
			in.Checked = entity.IsChecked(v)
		case entity.CondSelect:
			in.Options = view.Codes[c.CodeGroup]
		}
		out = append(out, in)
	}
	return out
}

func formInputs(schema *entity.Schema, view card.View) []formInput {
	out := make([]formInput, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		in := formInput{
			Name:     f.Name,
			Label:    f.Label,
			Value:    view.Form.Record.Get(f.Name),
			Error:    view.Form.Errors[f.Name],
			Required: f.Required,
			MaxLen:   f.MaxLen,
			ReadOnly: view.Form.Mode == card.ModeEdit && f.Name == schema.PrimaryKey,
		}
		if f.Kind == entity.KindSelect {
			in.Options = view.Codes[f.CodeGroup]
		}
		out = append(out, in)
	}
	return out
}

// flashOf converts a notice into a flash message.
func flashOf(l *i18n.Localizer, n *domain.Notice) *FlashMessage {
	if n == nil {
		return nil
	}
	typ := "error"
	if n.Kind == domain.NoticeInfo {
		typ = "success"
	}
	return &FlashMessage{Type: typ, Message: l.Notice(n)}
}

// recordFromForm reads the schema's form fields from a parsed form. Fields
// the form did not submit are left out so the card keeps their values.
func recordFromForm(schema *entity.Schema, r *http.Request) domain.Record {
	rec := make(domain.Record, len(schema.Fields))
	for _, f := range schema.Fields {
		if vs, ok := r.PostForm[f.Name]; ok && len(vs) > 0 {
			rec[f.Name] = vs[0]
		}
	}
	return rec
}

// conditionsFromForm reads the search inputs. An unchecked checkbox is not
// submitted by the browser and reads as "".
func conditionsFromForm(schema *entity.Schema, r *http.Request) map[string]string {
	conds := make(map[string]string, len(schema.Conditions))
	for _, c := range schema.Conditions {
		conds[c.Name] = r.PostFormValue(c.Name)
	}
	return conds
}

// columnsFromForm reads the parallel field[], header[] and width[] lists.
func columnsFromForm(r *http.Request) ([]entity.Column, error) {
	fields := r.PostForm["field[]"]
	headers := r.PostForm["header[]"]
	widths := r.PostForm["width[]"]
	if len(headers) != len(fields) || len(widths) != len(fields) {
		return nil, errors.Wrap(domain.ErrInvalidInput, "column lists differ in length")
	}

	cols := make([]entity.Column, 0, len(fields))
	for i, field := range fields {
		width, err := strconv.Atoi(strings.TrimSpace(widths[i]))
		if err != nil {
			return nil, errors.Wrapf(domain.ErrInvalidInput, "width of %s: %v", field, err)
		}
		cols = append(cols, entity.Column{
			Field:  strings.TrimSpace(field),
			Header: strings.TrimSpace(headers[i]),
			Width:  width,
		})
	}
	return cols, nil
}
