package gateway

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

// Fixture is the JSON document behind a FileShim.
type Fixture struct {
	// Keys maps a statement base name (cd01.cd01110) to its primary key field.
	Keys   map[string]string          `json:"keys"`
	Tables map[string][]domain.Record `json:"tables"`
	Menu   []domain.Record            `json:"menu"`
	Codes  []domain.Record            `json:"codes"`
	Users  []domain.Record            `json:"users"`
}

// FileShim is an offline gateway backed by a JSON fixture file. Statement
// names follow <base>_<op> where op is s (select), s1 (select by key),
// i (insert), u (update) or d (delete).
type FileShim struct {
	filePath string
	logger   *logrus.Logger
	mu       sync.Mutex
}

// Ensure FileShim implements Client.
var _ Client = (*FileShim)(nil)

// NewFileShim creates a new file-based gateway.
func NewFileShim(filePath string, logger *logrus.Logger) *FileShim {
	return &FileShim{filePath: filePath, logger: logger}
}

func (f *FileShim) load() (*Fixture, error) {
	fx := &Fixture{}
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fx, nil
		}
		return nil, &domain.TransportError{Map: "fixture", Err: err}
	}
	if err := json.Unmarshal(data, fx); err != nil {
		return nil, errors.Wrapf(domain.ErrInvalidFormat, "parsing fixture: %v", err)
	}
	return fx, nil
}

func (f *FileShim) save(fx *Fixture) error {
	data, err := json.MarshalIndent(fx, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling fixture")
	}
	if err := os.WriteFile(f.filePath, data, 0o644); err != nil {
		return &domain.TransportError{Map: "fixture", Err: err}
	}
	return nil
}

func splitMap(name string) (base, op string) {
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

// Query reads rows from the fixture.
func (f *FileShim) Query(ctx context.Context, req Request) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.TransportError{Map: req.Map, Err: err}
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	fx, err := f.load()
	if err != nil {
		return nil, err
	}

	switch req.Map {
	case MapMenu:
		return cloneRows(fx.Menu), nil
	case MapCommonCode:
		return cloneRows(fx.Codes), nil
	}

	base, op := splitMap(req.Map)
	rows := fx.Tables[base]
	switch op {
	case "s":
		out := []domain.Record{}
		for _, row := range rows {
			if matches(row, req.Params) {
				out = append(out, row.Clone())
			}
		}
		return out, nil
	case "s1":
		pk := fx.Keys[base]
		for _, row := range rows {
			if pk != "" && row[pk] == req.Params[pk] {
				return []domain.Record{row.Clone()}, nil
			}
		}
		return []domain.Record{}, nil
	}
	return nil, &domain.GatewayError{Map: req.Map, Message: "unknown statement"}
}

// matches applies select filters: empty values are ignored, whitespace-only
// values match empty fields, other values match as substrings. Filters
// naming fields the row does not carry are ignored.
func matches(row domain.Record, params map[string]string) bool {
	for k, v := range params {
		field, ok := row[k]
		if !ok || v == "" {
			continue
		}
		want := strings.TrimSpace(v)
		if want == "" {
			if strings.TrimSpace(field) != "" {
				return false
			}
			continue
		}
		if !strings.Contains(field, want) {
			return false
		}
	}
	return true
}

func cloneRows(rows []domain.Record) []domain.Record {
	out := make([]domain.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// Write applies an insert, update or delete to the fixture and saves it.
func (f *FileShim) Write(ctx context.Context, kind WriteKind, req Request) error {
	if err := ctx.Err(); err != nil {
		return &domain.TransportError{Map: req.Map, Err: err}
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	fx, err := f.load()
	if err != nil {
		return err
	}

	base, _ := splitMap(req.Map)
	pk := fx.Keys[base]
	if pk == "" {
		return &domain.GatewayError{Map: req.Map, Message: "unknown table"}
	}
	key := req.Params[pk]
	if key == "" {
		return &domain.GatewayError{Map: req.Map, Message: pk + " is required"}
	}
	if fx.Tables == nil {
		fx.Tables = make(map[string][]domain.Record)
	}
	rows := fx.Tables[base]
	idx := -1
	for i, row := range rows {
		if row[pk] == key {
			idx = i
			break
		}
	}

	switch kind {
	case WriteInsert:
		if idx >= 0 {
			return &domain.GatewayError{Map: req.Map, Message: "duplicate key " + key}
		}
		rows = append(rows, domain.Record(req.Params).Clone())
	case WriteUpdate:
		if idx < 0 {
			return &domain.GatewayError{Map: req.Map, Message: "write affected no rows"}
		}
		rows[idx].Merge(req.Params)
	case WriteDelete:
		if idx < 0 {
			return &domain.GatewayError{Map: req.Map, Message: "write affected no rows"}
		}
		rows = append(rows[:idx], rows[idx+1:]...)
	default:
		return errors.Errorf("unknown write kind %d", kind)
	}
	fx.Tables[base] = rows

	if err := f.save(fx); err != nil {
		return err
	}
	f.logger.WithFields(logrus.Fields{"map": req.Map, "key": key}).Infof("[FileShim] %s applied", kind)
	return nil
}

// Login checks the credentials against the fixture users.
func (f *FileShim) Login(ctx context.Context, userID, password string) (*domain.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fx, err := f.load()
	if err != nil {
		return nil, err
	}
	for _, u := range fx.Users {
		if u["userId"] == userID && u["passwd"] == password {
			row := u.Clone()
			delete(row, "passwd")
			return loginResultFromRow(userID, row), nil
		}
	}
	return nil, domain.ErrUnauthorized
}
