package shadow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/logger"
)

// Policy is the allow-list of fields compared for one entity type.
// A Policy is immutable; the With* methods return modified copies.
type Policy[T any] struct {
	rules      []Rule[T]
	tolerances Tolerances
	log        *slog.Logger
	now        func() time.Time
}

// NewPolicy returns a policy comparing exactly the given rules, in order.
func NewPolicy[T any](rules ...Rule[T]) *Policy[T] {
	return &Policy[T]{
		rules: rules,
		log:   slog.Default(),
		now:   time.Now,
	}
}

// WithTolerances returns a copy whose numeric tolerances are overridden by t.
func (p *Policy[T]) WithTolerances(t Tolerances) *Policy[T] {
	c := *p
	c.tolerances = t
	return &c
}

// WithLogger returns a copy logging comparator failures to l.
func (p *Policy[T]) WithLogger(l *slog.Logger) *Policy[T] {
	c := *p
	if l != nil {
		c.log = l
	}
	return &c
}

// Fields lists the compared field names in declaration order.
func (p *Policy[T]) Fields() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name
	}
	return names
}

// Compare returns one Divergence per differing field, in rule order, or nil
// when the outcomes agree. Two failures agree; a single failure is reported
// as one OutcomeField divergence. A panicking rule is logged and the whole
// comparison yields nil.
func (p *Policy[T]) Compare(entityKey, entityID string, legacy, next datasource.Outcome[T]) (divs []Divergence) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error("shadow comparison panicked",
				logger.EntityKey(entityKey),
				logger.EntityID(entityID),
				slog.Any("panic", rec),
			)
			divs = nil
		}
	}()

	switch {
	case !legacy.OK() && !next.OK():
		return nil
	case !legacy.OK() || !next.OK():
		return []Divergence{p.divergence(entityKey, entityID, OutcomeField, describe(legacy.Err), describe(next.Err))}
	}

	for _, r := range p.rules {
		tol := p.tolerances.Lookup(entityKey, r.Name, r.Tolerance)
		lv, nv, differs := r.diff(legacy.Value, next.Value, tol)
		if differs {
			divs = append(divs, p.divergence(entityKey, entityID, r.Name, lv, nv))
		}
	}
	return divs
}

func (p *Policy[T]) divergence(entityKey, entityID, field string, lv, nv any) Divergence {
	return Divergence{
		ID:          uuid.New(),
		EntityKey:   entityKey,
		EntityID:    entityID,
		Field:       field,
		LegacyValue: lv,
		NewValue:    nv,
		Timestamp:   p.now().UTC(),
	}
}

func describe(err error) string {
	if err == nil {
		return "ok"
	}
	return fmt.Sprintf("error: %s", datasource.CodeOf(err))
}
