// Package card implements the generic CRUD card. One Card is mounted per
// open tab and is driven entirely by its entity schema.
package card

import (
	"context"
	"sync"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/export"
	"github.com/bcnelson/erp-console/internal/gateway"
	"github.com/bcnelson/erp-console/internal/permission"
	"github.com/bcnelson/erp-console/internal/service"
	"github.com/sirupsen/logrus"
)

// Handle is the command surface the shell drives. The gated commands map
// one to one onto domain actions.
type Handle interface {
	Search(ctx context.Context) (*Result, error)
	Create(ctx context.Context) (*Result, error)
	Edit(ctx context.Context) (*Result, error)
	Delete(ctx context.Context) (*Result, error)
	ExportCSV(ctx context.Context) (*Result, error)
	ExportXLSX(ctx context.Context) (*Result, error)
	ExportPDF(ctx context.Context) (*Result, error)
	Print(ctx context.Context) (*Result, error)
	Reset(ctx context.Context) (*Result, error)

	Select(key string) error
	Save(ctx context.Context, rec domain.Record) (*Result, error)
	Confirm(ctx context.Context, yes bool) (*Result, error)
	Cancel()
	SetConditions(conds map[string]string)
	SetColumns(cols []entity.Column) error
	View() View
	Unmount()
}

// Reporter receives a card's resolved permissions and cache changes.
type Reporter interface {
	ReportPermissions(moduleKey string, perms domain.Permissions)
	ReportDataChange(moduleKey string, cache Cache)
}

// State is the load state of a card.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Mode is the form mode.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Form is an open create or edit dialog.
type Form struct {
	Mode     Mode              `json:"mode"`
	Original domain.Record     `json:"original,omitempty"`
	Record   domain.Record     `json:"record"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// Prompt is a pending confirmation.
type Prompt struct {
	Key       string         `json:"key"`
	MessageID string         `json:"messageId"`
	Data      map[string]any `json:"data,omitempty"`
}

// PrintView is the printable rendition of the grid.
type PrintView struct {
	Title   string          `json:"title"`
	Columns []entity.Column `json:"columns"`
	Rows    []domain.Record `json:"rows"`
	Count   int             `json:"count"`
}

// Result is what a command produced besides state changes.
type Result struct {
	Notice   *domain.Notice   `json:"notice,omitempty"`
	Download *export.Download `json:"-"`
	Print    *PrintView       `json:"print,omitempty"`
	Prompt   *Prompt          `json:"prompt,omitempty"`
	Form     *Form            `json:"form,omitempty"`
}

// View is a consistent snapshot of the card for rendering.
type View struct {
	Key        string                         `json:"key"`
	Title      string                         `json:"title"`
	PrimaryKey string                         `json:"primaryKey"`
	State      string                         `json:"state"`
	Columns    []entity.Column                `json:"columns"`
	Rows       []domain.Record                `json:"rows"`
	Conditions map[string]string              `json:"conditions"`
	Selected   string                         `json:"selected,omitempty"`
	Form       *Form                          `json:"form,omitempty"`
	Prompt     *Prompt                        `json:"prompt,omitempty"`
	Notice     *domain.Notice                 `json:"notice,omitempty"`
	Codes      map[string][]domain.CodeOption `json:"codes,omitempty"`
}

// Config wires a card to its collaborators.
type Config struct {
	Schema   *entity.Schema
	Client   gateway.Client
	Resolver permission.Resolver
	Persist  *service.PersistService
	Reporter Reporter
	Subject  permission.Subject
	// Scope is the durable storage scope, normally the user id.
	Scope string
	// Table is the tenant schema sent with every gateway call.
	Table string
	// Codes returns the options of a common-code group.
	Codes  func(group string) []domain.CodeOption
	Export export.Options
	// Mirror is the cache the shell kept from a previous mount.
	Mirror *Cache
	Logger *logrus.Logger
}

// Card is the generic entity card.
type Card struct {
	schema   *entity.Schema
	client   gateway.Client
	persist  *service.PersistService
	reporter Reporter
	scope    string
	table    string
	codes    func(group string) []domain.CodeOption
	export   export.Options
	log      *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	state      State
	seq        uint64
	cache      Cache
	selected   string
	conditions map[string]string
	columns    []entity.Column
	form       *Form
	prompt     *Prompt
	notice     *domain.Notice
	unmounted  bool
}

// Ensure Card implements Handle.
var _ Handle = (*Card)(nil)

// Mount restores the card's durable state and starts permission
// resolution. A cache restored from storage is reported to the shell
// before Mount returns. The card lives until Unmount or until parent is
// cancelled.
func Mount(parent context.Context, cfg Config) *Card {
	ctx, cancel := context.WithCancel(parent)
	c := &Card{
		schema:     cfg.Schema,
		client:     cfg.Client,
		persist:    cfg.Persist,
		reporter:   cfg.Reporter,
		scope:      cfg.Scope,
		table:      cfg.Table,
		codes:      cfg.Codes,
		export:     cfg.Export,
		log:        cfg.Logger.WithField("module", cfg.Schema.Key),
		ctx:        ctx,
		cancel:     cancel,
		cache:      newCache(),
		conditions: cfg.Schema.DefaultConditions(),
	}
	if c.restore(ctx, cfg.Mirror) {
		c.report(c.cache.Clone())
	}

	if cfg.Resolver != nil {
		c.wg.Add(1)
		go c.resolvePermissions(cfg.Resolver, cfg.Subject)
	}
	return c
}

func (c *Card) resolvePermissions(r permission.Resolver, subject permission.Subject) {
	defer c.wg.Done()

	perms, err := r.Resolve(c.ctx, subject, c.schema.Key)
	if err != nil {
		c.log.WithError(err).Debug("Permission resolution failed")
		return
	}
	if c.ctx.Err() != nil {
		return
	}
	c.reporter.ReportPermissions(c.schema.Key, perms)
}

// Key returns the card's moduleKey.
func (c *Card) Key() string {
	return c.schema.Key
}

// Unmount cancels in-flight work. Responses arriving afterwards are
// dropped.
func (c *Card) Unmount() {
	c.mu.Lock()
	c.unmounted = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// Select makes key the selected row.
func (c *Card) Select(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.cache.ByKey[key]; !ok {
		return domain.ErrNotFound
	}
	c.selected = key
	return nil
}

// Cancel closes any open form or confirmation.
func (c *Card) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form = nil
	c.prompt = nil
}

// View returns a snapshot for rendering.
func (c *Card) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Key:        c.schema.Key,
		Title:      c.schema.Title,
		PrimaryKey: c.schema.PrimaryKey,
		State:      c.state.String(),
		Columns:    c.columnsLocked(),
		Conditions: cloneMap(c.conditions),
		Selected:   c.selected,
		Notice:     c.notice,
		Codes:      c.codeOptions(),
	}
	if c.state != StateError {
		v.Rows = append([]domain.Record(nil), c.cache.Rows...)
	}
	if c.form != nil {
		f := *c.form
		v.Form = &f
	}
	if c.prompt != nil {
		p := *c.prompt
		v.Prompt = &p
	}
	return v
}

func (c *Card) columnsLocked() []entity.Column {
	if len(c.columns) > 0 {
		return append([]entity.Column(nil), c.columns...)
	}
	return append([]entity.Column(nil), c.schema.Columns...)
}

func (c *Card) codeOptions() map[string][]domain.CodeOption {
	if c.codes == nil {
		return nil
	}
	out := make(map[string][]domain.CodeOption)
	for _, cond := range c.schema.Conditions {
		if cond.CodeGroup != "" {
			out[cond.CodeGroup] = c.codes(cond.CodeGroup)
		}
	}
	for _, f := range c.schema.Fields {
		if f.CodeGroup != "" {
			out[f.CodeGroup] = c.codes(f.CodeGroup)
		}
	}
	return out
}

// bind ties ctx to the card lifetime so Unmount aborts the call.
func (c *Card) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// report pushes the cache to the shell. Must be called without c.mu held.
func (c *Card) report(cache Cache) {
	if c.reporter != nil {
		c.reporter.ReportDataChange(c.schema.Key, cache)
	}
}

func (c *Card) request(mapName string, params map[string]string) gateway.Request {
	return gateway.Request{Map: mapName, Table: c.table, Params: params}
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
