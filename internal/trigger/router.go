package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is a document-creation notification. Data is nil when the event
// carries no document snapshot.
type Event struct {
	ID       string
	Document string
	Params   map[string]string
	Data     map[string]interface{}
	Time     time.Time
}

type Handler func(ctx context.Context, ev Event) error

type binding struct {
	name    string
	pattern Pattern
	handler Handler
}

// Router binds path patterns to named handlers. Several handlers may share a
// pattern; each runs independently of the others.
type Router struct {
	bindings []binding
	logger   *logrus.Logger
}

func NewRouter(logger *logrus.Logger) *Router {
	return &Router{logger: logger}
}

func (r *Router) On(pattern, name string, h Handler) error {
	p, err := ParsePattern(pattern)
	if err != nil {
		return err
	}
	r.bindings = append(r.bindings, binding{name: name, pattern: p, handler: h})
	return nil
}

// Dispatch runs every handler bound to a pattern matching ev.Document, in
// registration order. A failing handler does not stop the rest; all failures
// are returned joined.
func (r *Router) Dispatch(ctx context.Context, ev Event) error {
	var errs []error
	matched := 0

	for _, b := range r.bindings {
		params, ok := b.pattern.Match(ev.Document)
		if !ok {
			continue
		}
		matched++

		bound := ev
		bound.Params = params

		log := r.logger.WithFields(logrus.Fields{
			"event_id": ev.ID,
			"handler":  b.name,
			"document": ev.Document,
		})

		start := time.Now()
		if err := b.handler(ctx, bound); err != nil {
			log.WithError(err).Error("Handler failed")
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
			continue
		}
		log.WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Handler completed")
	}

	if matched == 0 {
		r.logger.WithField("document", ev.Document).Debug("No handler bound to document")
	}

	return errors.Join(errs...)
}
