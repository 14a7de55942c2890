package runner

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cheerchampion/e2email/model"
)

// Reporter receives run lifecycle events. OnTestEnd may be called from
// several workers at once.
type Reporter interface {
	OnBegin(planned int)
	OnTestEnd(rec *model.TestRecord)
	OnEnd(ctx context.Context)
}

type multiReporter []Reporter

// Multi fans events out to every reporter in order.
func Multi(reporters ...Reporter) Reporter {
	return multiReporter(reporters)
}

func (m multiReporter) OnBegin(planned int) {
	for _, r := range m {
		r.OnBegin(planned)
	}
}

func (m multiReporter) OnTestEnd(rec *model.TestRecord) {
	for _, r := range m {
		r.OnTestEnd(rec)
	}
}

func (m multiReporter) OnEnd(ctx context.Context) {
	for _, r := range m {
		r.OnEnd(ctx)
	}
}

// LineReporter logs one line per finished test and a summary at the end.
type LineReporter struct {
	logger zerolog.Logger

	mu       sync.Mutex
	planned  int
	outcomes map[model.Outcome]int
}

// NewLineReporter creates a LineReporter writing to logger.
func NewLineReporter(logger zerolog.Logger) *LineReporter {
	return &LineReporter{
		logger:   logger,
		outcomes: make(map[model.Outcome]int),
	}
}

func (l *LineReporter) OnBegin(planned int) {
	l.mu.Lock()
	l.planned = planned
	l.mu.Unlock()
	l.logger.Info().Int("tests", planned).Msg("Running tests")
}

func (l *LineReporter) OnTestEnd(rec *model.TestRecord) {
	l.mu.Lock()
	l.outcomes[rec.Outcome]++
	l.mu.Unlock()

	title := strings.Join(append(append([]string{}, rec.TitleChain...), rec.Title), " > ")

	var ev *zerolog.Event
	switch rec.Outcome {
	case model.OutcomePassed, model.OutcomeSkipped:
		ev = l.logger.Info()
	default:
		ev = l.logger.Error()
		if first := rec.FirstError(); first != nil {
			msg, _, _ := strings.Cut(first.Message, "\n")
			ev = ev.Str("error", msg)
		}
	}

	ev.Str("project", rec.Project).
		Str("test", title).
		Str("outcome", string(rec.Outcome)).
		Dur("duration", rec.Duration).
		Int("retry", rec.Retry).
		Msg(outcomeMarker(rec.Outcome) + " " + rec.Location.File)
}

func (l *LineReporter) OnEnd(context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Info().
		Int("planned", l.planned).
		Int("passed", l.outcomes[model.OutcomePassed]).
		Int("failed", l.outcomes[model.OutcomeFailed]+l.outcomes[model.OutcomeTimedOut]).
		Int("skipped", l.outcomes[model.OutcomeSkipped]).
		Int("interrupted", l.outcomes[model.OutcomeInterrupted]).
		Msg("Test run complete")
}

func outcomeMarker(o model.Outcome) string {
	switch o {
	case model.OutcomePassed:
		return "✓"
	case model.OutcomeSkipped:
		return "-"
	default:
		return "✘"
	}
}
