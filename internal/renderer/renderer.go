// Package renderer is the render dispatch entry point of storybridge.
//
// A Dispatcher resolves the caller's component path, merges the caller
// arguments with the injected preview context, asks the engine for HTML and
// returns markup in every case: either the rendered fragment inside a
// storybook-component envelope, or a storybook-error card describing why
// rendering failed. Render never returns an error; failures are content so
// the preview tool can show them in place of the component.
package renderer

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/conneroisu/storybridge/internal/engine"
	"github.com/conneroisu/storybridge/internal/errors"
	"github.com/conneroisu/storybridge/internal/logging"
	"github.com/conneroisu/storybridge/internal/resolver"
)

// Outcome labels reported to the Observer.
const (
	OutcomeRendered    = "rendered"
	OutcomeNotFound    = "not_found"
	OutcomeRenderError = "render_error"
)

// Observer receives one call per dispatch.
type Observer interface {
	ObserveRender(outcome string, duration time.Duration)
}

// Failure describes why a component could not be rendered.
type Failure struct {
	Title   string
	Message string
	Err     error
}

// Outcome is the result of one dispatch. Exactly one of HTML and Failure
// is meaningful: Failure is nil when the engine produced HTML.
type Outcome struct {
	Component resolver.Identifier
	Context   PreviewContext
	Args      map[string]any
	HTML      string
	Failure   *Failure
}

// Label returns the observer outcome label.
func (o Outcome) Label() string {
	switch {
	case o.Failure == nil:
		return OutcomeRendered
	case o.Failure.Title == TitleViewError:
		return OutcomeNotFound
	default:
		return OutcomeRenderError
	}
}

// Markup returns the envelope or the fallback card.
func (o Outcome) Markup() string {
	if o.Failure != nil {
		return fallbackCard(o.Failure.Title, o.Component.String(), o.Failure.Message, o.Args)
	}
	return envelope(o.Component.String(), o.Context.Theme, o.HTML)
}

// Dispatcher renders components by identifier. It holds no mutable state
// and is safe for concurrent use.
type Dispatcher struct {
	resolver *resolver.Resolver
	engine   engine.Engine
	logger   logging.Logger
	observer Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger logging.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger.WithComponent("renderer")
		}
	}
}

// WithObserver reports every outcome to o.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// New creates a Dispatcher.
func New(r *resolver.Resolver, e engine.Engine, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver: r,
		engine:   e,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Render dispatches and returns HTML for every outcome.
func (d *Dispatcher) Render(ctx context.Context, raw string, args, renderContext map[string]any) string {
	return d.Dispatch(ctx, raw, args, renderContext).Markup()
}

// Dispatch resolves raw, renders it and returns the discriminated outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, raw string, args, renderContext map[string]any) (out Outcome) {
	start := time.Now()
	id := d.resolver.Resolve(raw)
	pc := NewPreviewContext(renderContext)

	out = Outcome{Component: id, Context: pc, Args: args}

	defer func() {
		if r := recover(); r != nil {
			err := errors.NewRenderError(id.String(), fmt.Errorf("panic: %v", r))
			out.HTML = ""
			out.Failure = &Failure{Title: TitleRenderError, Message: engineMessage(err), Err: err}
		}
		d.report(ctx, out, time.Since(start))
	}()

	if !d.engine.Exists(id.String()) {
		err := errors.NewNotFoundError(id.String())
		out.Failure = &Failure{Title: TitleViewError, Message: err.Message, Err: err}
		return out
	}

	html, err := d.engine.Render(ctx, id.String(), viewData(args, pc))
	if err != nil {
		if errors.IsNotFound(err) {
			nf := errors.NewNotFoundError(id.String())
			out.Failure = &Failure{Title: TitleViewError, Message: nf.Message, Err: err}
			return out
		}
		out.Failure = &Failure{Title: TitleRenderError, Message: engineMessage(err), Err: err}
		return out
	}

	out.HTML = html
	return out
}

func (d *Dispatcher) report(ctx context.Context, out Outcome, elapsed time.Duration) {
	label := out.Label()

	if out.Failure == nil {
		d.logger.Debug(ctx, "Rendered component",
			"component", out.Component.String(),
			"theme", out.Context.Theme,
			"duration", elapsed)
	} else {
		d.logger.Warn(ctx, out.Failure.Err, "Component render failed",
			"component", out.Component.String(),
			"outcome", label,
			"duration", elapsed)
	}

	if d.observer != nil {
		d.observer.ObserveRender(label, elapsed)
	}
}

// engineMessage extracts the message of the innermost engine failure,
// without the code and component decorations of PreviewError.
func engineMessage(err error) string {
	var pe *errors.PreviewError
	if !stderrors.As(err, &pe) {
		return err.Error()
	}

	for {
		var inner *errors.PreviewError
		if pe.Cause == nil || !stderrors.As(pe.Cause, &inner) {
			break
		}
		pe = inner
	}

	if pe.Cause != nil {
		return pe.Cause.Error()
	}
	return pe.Message
}
