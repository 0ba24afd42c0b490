// Package shell implements the tab orchestrator: the open tabs, the active
// tab, per-tab permissions and cached results, breadcrumb and route, and the
// gated dispatch of toolbar actions to the active card.
package shell

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/bcnelson/erp-console/internal/card"
	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/bcnelson/erp-console/internal/entity"
	"github.com/bcnelson/erp-console/internal/menu"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// RootRoute is the route with no tab selected.
const RootRoute = "/"

// MountFunc mounts the card of schema. mirror is the cache kept from a
// previous mount, or nil.
type MountFunc func(ctx context.Context, schema *entity.Schema, reporter card.Reporter, mirror *card.Cache) card.Handle

// Config wires an Orchestrator.
type Config struct {
	Registry *entity.Registry
	Menu     *menu.Tree
	Mount    MountFunc
	Metrics  *Metrics
	Logger   *logrus.Logger
}

// Orchestrator owns the tab state of one session. Card methods are always
// called without o.mu held; cards report back through ReportPermissions and
// ReportDataChange.
type Orchestrator struct {
	registry *entity.Registry
	menu     *menu.Tree
	mount    MountFunc
	metrics  *Metrics
	log      *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	tabs       []string
	active     string
	breadcrumb []string
	route      string
	perms      map[string]domain.Permissions
	caches     map[string]card.Cache
	cards      map[string]card.Handle
	closed     bool
}

// Ensure Orchestrator implements card.Reporter.
var _ card.Reporter = (*Orchestrator)(nil)

// New creates an Orchestrator with no open tabs. Cards are mounted under
// ctx.
func New(ctx context.Context, cfg Config) *Orchestrator {
	ctx, cancel := context.WithCancel(ctx)
	tree := cfg.Menu
	if tree == nil {
		tree = menu.Empty()
	}
	return &Orchestrator{
		registry: cfg.Registry,
		menu:     tree,
		mount:    cfg.Mount,
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
		ctx:      ctx,
		cancel:   cancel,
		route:    RootRoute,
		perms:    make(map[string]domain.Permissions),
		caches:   make(map[string]card.Cache),
		cards:    make(map[string]card.Handle),
	}
}

// RouteOf returns the route of moduleKey.
func RouteOf(moduleKey string) string {
	return "/" + strings.ToLower(moduleKey)
}

// Menu returns the session's menu tree.
func (o *Orchestrator) Menu() *menu.Tree {
	return o.menu
}

// Registry returns the entity registry.
func (o *Orchestrator) Registry() *entity.Registry {
	return o.registry
}

// OpenTab opens moduleKey if needed and makes it active. It returns the
// route to navigate to. The card is mounted without holding the shell
// lock; when a concurrent call opened the same tab first, the extra card
// is unmounted.
func (o *Orchestrator) OpenTab(moduleKey string) (string, error) {
	schema, err := o.registry.Get(moduleKey)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return "", errors.Wrap(domain.ErrPreconditionFailed, "shell closed")
	}
	if slices.Contains(o.tabs, moduleKey) {
		o.activate(moduleKey)
		route := o.route
		o.mu.Unlock()
		return route, nil
	}
	var mirror *card.Cache
	if c, ok := o.caches[moduleKey]; ok {
		c = c.Clone()
		mirror = &c
	}
	o.mu.Unlock()

	h := o.mount(o.ctx, schema, o, mirror)

	o.mu.Lock()
	var stale card.Handle
	switch {
	case o.closed:
		o.mu.Unlock()
		h.Unmount()
		return "", errors.Wrap(domain.ErrPreconditionFailed, "shell closed")
	case slices.Contains(o.tabs, moduleKey):
		stale = h
	default:
		o.cards[moduleKey] = h
		o.tabs = append(o.tabs, moduleKey)
		o.metrics.tabsAdded(1)
		o.log.WithField("module", moduleKey).Debug("Tab opened")
	}
	o.activate(moduleKey)
	route := o.route
	o.mu.Unlock()

	if stale != nil {
		stale.Unmount()
	}
	return route, nil
}

// activate must be called with o.mu held.
func (o *Orchestrator) activate(moduleKey string) {
	o.active = moduleKey
	o.breadcrumb = o.menu.Breadcrumb(moduleKey)
	o.route = RouteOf(moduleKey)
}

// deactivate must be called with o.mu held.
func (o *Orchestrator) deactivate() {
	o.active = ""
	o.breadcrumb = nil
	o.route = RootRoute
}

// CloseTab closes moduleKey and unmounts its card. When the active tab is
// closed, the tab now at its position becomes active, or the new last tab
// if it was the last one. Cached results and permissions are kept for a
// quick reopen. It returns the route to navigate to.
func (o *Orchestrator) CloseTab(moduleKey string) (string, error) {
	o.mu.Lock()
	idx := slices.Index(o.tabs, moduleKey)
	if idx < 0 {
		o.mu.Unlock()
		return "", errors.Wrapf(domain.ErrTabNotOpen, "%s", moduleKey)
	}
	o.tabs = slices.Delete(o.tabs, idx, idx+1)
	h := o.cards[moduleKey]
	delete(o.cards, moduleKey)

	if o.active == moduleKey {
		switch {
		case len(o.tabs) == 0:
			o.deactivate()
		case idx < len(o.tabs):
			o.activate(o.tabs[idx])
		default:
			o.activate(o.tabs[len(o.tabs)-1])
		}
	}
	route := o.route
	o.metrics.tabsAdded(-1)
	o.mu.Unlock()

	if h != nil {
		h.Unmount()
	}
	o.log.WithField("module", moduleKey).Debug("Tab closed")
	return route, nil
}

// SetActiveTab switches to an open tab. It is a no-op when moduleKey is
// already active.
func (o *Orchestrator) SetActiveTab(moduleKey string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !slices.Contains(o.tabs, moduleKey) {
		return "", errors.Wrapf(domain.ErrTabNotOpen, "%s", moduleKey)
	}
	if o.active != moduleKey {
		o.activate(moduleKey)
	}
	return o.route, nil
}

// SyncRoute reconciles a navigated path with the tab state. A path naming
// an open tab (case-insensitively) activates it. Any other path falls back
// to the active tab, or to the root when no tab is open. It returns the
// canonical route to redirect to, or "" when path already is canonical.
func (o *Orchestrator) SyncRoute(path string) string {
	seg := strings.Trim(path, "/")

	o.mu.Lock()
	defer o.mu.Unlock()

	if seg != "" {
		for _, key := range o.tabs {
			if strings.EqualFold(seg, key) {
				if o.active != key {
					o.activate(key)
				}
				return redirect(path, o.route)
			}
		}
	}
	if o.active != "" {
		return redirect(path, o.route)
	}
	o.deactivate()
	return redirect(path, RootRoute)
}

func redirect(path, route string) string {
	if path == route {
		return ""
	}
	return route
}

// Dispatch runs action on the active tab's card when that tab's
// permissions grant the capability the action requires. A denied action
// never reaches the card.
func (o *Orchestrator) Dispatch(ctx context.Context, action domain.Action) (Outcome, error) {
	out := Outcome{Action: action.String()}

	o.mu.Lock()
	key := o.active
	h := o.cards[key]
	perms := o.perms[key]
	o.mu.Unlock()

	if key == "" || h == nil {
		out.Notice = domain.Blocking(domain.MsgSelectMenu)
		o.metrics.action(action.String(), resultDenied)
		return out, domain.ErrNoActiveTab
	}
	out.Module = key

	schema, err := o.registry.Get(key)
	if err != nil {
		return out, err
	}
	need := schema.Requirement(action)
	if !perms.Allows(need) {
		out.Notice = domain.Blocking(deniedMessage(action, need))
		o.metrics.action(action.String(), resultDenied)
		o.log.WithFields(logrus.Fields{
			"module": key,
			"action": action.String(),
			"needs":  need.String(),
		}).Info("Action denied")
		return out, errors.Wrapf(domain.ErrPermissionDenied, "%s on %s needs %s", action, key, need)
	}

	res, err := invoke(ctx, h, action)
	if res != nil {
		out.Result = *res
	}
	if err != nil {
		o.metrics.action(action.String(), resultFailed)
		return out, err
	}
	o.metrics.action(action.String(), resultInvoked)
	return out, nil
}

// invoke calls the card command of action.
func invoke(ctx context.Context, h card.Handle, action domain.Action) (*card.Result, error) {
	switch action {
	case domain.ActionSearch:
		return h.Search(ctx)
	case domain.ActionCreate:
		return h.Create(ctx)
	case domain.ActionEdit:
		return h.Edit(ctx)
	case domain.ActionDelete:
		return h.Delete(ctx)
	case domain.ActionExportCSV:
		return h.ExportCSV(ctx)
	case domain.ActionExportXLSX:
		return h.ExportXLSX(ctx)
	case domain.ActionExportPDF:
		return h.ExportPDF(ctx)
	case domain.ActionPrint:
		return h.Print(ctx)
	case domain.ActionReset:
		return h.Reset(ctx)
	}
	return nil, errors.Wrapf(domain.ErrUnknownAction, "%d", action)
}

func deniedMessage(action domain.Action, need domain.Capability) string {
	if action.IsExport() {
		return domain.MsgDeniedDownload
	}
	switch need {
	case domain.CapView:
		return domain.MsgDeniedView
	case domain.CapAdd:
		return domain.MsgDeniedAdd
	case domain.CapUpdate:
		return domain.MsgDeniedUpdate
	case domain.CapDelete:
		return domain.MsgDeniedDelete
	}
	return domain.MsgDeniedPrint
}

// ReportPermissions records the resolved permissions of moduleKey.
func (o *Orchestrator) ReportPermissions(moduleKey string, perms domain.Permissions) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.perms[moduleKey] = perms
}

// ReportDataChange mirrors the result cache of moduleKey.
func (o *Orchestrator) ReportDataChange(moduleKey string, cache card.Cache) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.caches[moduleKey] = cache.Clone()
}

// Permissions returns the permissions of moduleKey; all false until its
// card reported.
func (o *Orchestrator) Permissions(moduleKey string) domain.Permissions {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.perms[moduleKey]
}

// Cache returns the mirrored result cache of moduleKey.
func (o *Orchestrator) Cache(moduleKey string) (card.Cache, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.caches[moduleKey]
	if !ok {
		return card.Cache{}, false
	}
	return c.Clone(), true
}

// Card returns the card of an open tab.
func (o *Orchestrator) Card(moduleKey string) (card.Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	h, ok := o.cards[moduleKey]
	if !ok {
		return nil, errors.Wrapf(domain.ErrTabNotOpen, "%s", moduleKey)
	}
	return h, nil
}

// Close unmounts every card and resets all state. The orchestrator
// refuses new tabs afterwards.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	handles := make([]card.Handle, 0, len(o.cards))
	for _, key := range o.tabs {
		handles = append(handles, o.cards[key])
	}
	o.metrics.tabsAdded(-len(o.tabs))
	o.tabs = nil
	o.cards = make(map[string]card.Handle)
	o.perms = make(map[string]domain.Permissions)
	o.caches = make(map[string]card.Cache)
	o.deactivate()
	o.mu.Unlock()

	o.cancel()
	for _, h := range handles {
		h.Unmount()
	}
}
