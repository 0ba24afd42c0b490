package session

import (
	"context"

	"github.com/bcnelson/erp-console/internal/domain"
)

type contextKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session carried by ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// SetFlash stores a notice to show on the next page.
func (s *Session) SetFlash(n *domain.Notice) {
	s.flashMu.Lock()
	defer s.flashMu.Unlock()
	s.flash = n
}

// TakeFlash returns and clears the pending notice.
func (s *Session) TakeFlash() *domain.Notice {
	s.flashMu.Lock()
	defer s.flashMu.Unlock()
	n := s.flash
	s.flash = nil
	return n
}
