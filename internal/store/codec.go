package store

import (
	"context"
	"encoding/json"

	apperrors "github.com/RZKGWIXX/March/pkg/errors"
)

// Load reads a collection into a typed record. An absent collection decodes
// the defined default shape. A store failure also falls back to the default
// (degraded=true) so a stalled backend degrades reads instead of failing
// them; callers log the degradation. A document that exists but does not
// decode is rejected rather than propagated as half-empty state.
func Load[T any](ctx context.Context, s Store, c Collection, out *T) (degraded bool, err error) {
	doc, err := s.Get(ctx, c)
	if err != nil {
		doc = nil
		degraded = true
	}
	if doc == nil {
		doc = DefaultFor(c)
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return degraded, apperrors.Wrap(apperrors.CodeInternal, "malformed "+string(c)+" document", err)
	}
	return degraded, nil
}

// Save marshals and writes a collection document. Write failures surface to
// the caller; they are soft (logged, request continues) but distinguishable.
func Save[T any](ctx context.Context, s Store, c Collection, v T) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "encode "+string(c)+" document", err)
	}
	if err := s.Put(ctx, c, doc); err != nil {
		return apperrors.Wrap(apperrors.CodeDeadlineExceeded, "write "+string(c)+" document", err)
	}
	return nil
}
