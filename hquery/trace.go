package hquery

import (
	"io"
	"log/slog"
	"os"
)

// Tracer receives the events of the compilation and of the evaluation of a
// query.
type Tracer interface {
	Enter(string)
	Leave(string)
	Error(string, error)

	// Bind is called each time a let or for clause defines a variable.
	Bind(string, Value)
	// Mark is called with the branch of a union and the number of nodes
	// newly tagged with it.
	Mark(int, int)
	// Interpolate is called with the source of a template and the text it
	// produced.
	Interpolate(string, string)
}

type discardTracer struct{}

func (_ discardTracer) Enter(_ string)                 {}
func (_ discardTracer) Leave(_ string)                 {}
func (_ discardTracer) Error(_ string, _ error)        {}
func (_ discardTracer) Bind(_ string, _ Value)         {}
func (_ discardTracer) Mark(_, _ int)                  {}
func (_ discardTracer) Interpolate(_ string, _ string) {}

type stdioTracer struct {
	logger   *slog.Logger
	depth    int
	errcount int
}

func TraceStdout() Tracer {
	return TraceWriter(os.Stdout)
}

func TraceStderr() Tracer {
	return TraceWriter(os.Stderr)
}

// TraceWriter logs every event as a debug record written to w.
func TraceWriter(w io.Writer) Tracer {
	opts := slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	tracer := stdioTracer{
		logger: slog.New(slog.NewTextHandler(w, &opts)),
	}
	return &tracer
}

func (t *stdioTracer) Enter(rule string) {
	t.depth++
	t.logger.Debug("enter", slog.String("expression", rule), slog.Int("depth", t.depth))
}

func (t *stdioTracer) Leave(rule string) {
	t.logger.Debug("leave", slog.String("expression", rule), slog.Int("depth", t.depth))
	t.depth--
}

func (t *stdioTracer) Error(rule string, err error) {
	t.errcount++
	t.logger.Error("failure",
		slog.String("expression", rule),
		slog.Int("depth", t.depth),
		slog.Int("count", t.errcount),
		slog.Any("err", err),
	)
}

func (t *stdioTracer) Bind(ident string, value Value) {
	t.logger.Debug("bind",
		slog.String("variable", ident),
		slog.String("type", typeName(value)),
		slog.Int("items", len(itemsOf(value))),
	)
}

func (t *stdioTracer) Mark(branch, count int) {
	t.logger.Debug("union", slog.Int("branch", branch), slog.Int("nodes", count))
}

func (t *stdioTracer) Interpolate(source, result string) {
	t.logger.Debug("template", slog.String("source", source), slog.String("result", result))
}
