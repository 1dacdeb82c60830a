package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/midbel/cli"
	"github.com/midbel/hq/dom"
	"github.com/midbel/hq/hquery"
)

var queryCmd = cli.Command{
	Name:    "query",
	Summary: "evaluate a query or, with -css, a css selector",
	Help:    usage,
	Handler: &QueryCmd{},
}

type QueryCmd struct {
	ConfigFile string
	Config
}

const queryInfo = "query took %s - %d item(s) returned by %q"

func (q QueryCmd) Run(args []string) error {
	set := cli.NewFlagSet("query")
	set.StringVar(&q.File, "file", "", "read query from file")
	set.BoolVar(&q.CSS, "css", false, "select nodes with a css selector")
	set.BoolVar(&q.Preserve, "preserve", false, "preserve whitespace in string values")
	set.BoolVar(&q.Ugly, "ugly", false, "print nodes and json as compact as possible")
	set.BoolVar(&q.Verbose, "verbose", false, "trace evaluation of the query on stderr")
	set.BoolVar(&q.Trace, "trace", false, "trace evaluation of the query on stdout")
	set.IntVar(&q.Indent, "indent", 1, "number of spaces used to indent nodes")
	set.StringVar(&q.ConfigFile, "config", "", "configuration file")
	if err := set.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if err := q.configure(set); err != nil {
		return err
	}

	expr, rest, err := readProgram(q.File, set.Args())
	if err != nil {
		return err
	}
	var docfile string
	if len(rest) > 0 {
		docfile = rest[0]
	}
	doc, err := loadDocument(docfile)
	if err != nil {
		return err
	}
	if q.CSS {
		return q.selectNodes(doc, expr)
	}
	options := []hquery.Option{
		hquery.WithPreserveSpace(q.Preserve),
	}
	switch {
	case q.Trace:
		options = append(options, hquery.WithTracer(hquery.TraceStdout()))
	case q.Verbose:
		options = append(options, hquery.WithTracer(hquery.TraceStderr()))
	}

	now := time.Now()
	query, err := hquery.CompileWith(expr, options...)
	if err != nil {
		return reportError(err)
	}
	res, err := query.Run(doc.Root())
	if err != nil {
		return reportError(err)
	}
	elapsed := time.Since(now)

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	printValue(w, res, q.Config)
	if q.Verbose {
		fmt.Fprintf(os.Stderr, queryInfo, elapsed, len(hquery.Items(res)), query)
		fmt.Fprintln(os.Stderr)
	}
	return nil
}

func (q QueryCmd) selectNodes(doc *dom.Document, selector string) error {
	list, err := doc.Select(selector)
	if err != nil {
		return reportError(err)
	}
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for _, n := range list {
		fmt.Fprintln(w, formatItem(hquery.Node{Node: n}, q.Config))
	}
	return nil
}

// configure applies the settings of the configuration file for every flag not
// given on the command line.
func (q *QueryCmd) configure(set *flag.FlagSet) error {
	if q.ConfigFile == "" {
		return nil
	}
	cfg, err := loadConfig(q.ConfigFile)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	set.Visit(func(f *flag.Flag) {
		seen[f.Name] = true
	})
	if !seen["file"] {
		q.File = cfg.File
	}
	if !seen["css"] {
		q.CSS = cfg.CSS
	}
	if !seen["trace"] {
		q.Trace = cfg.Trace
	}
	if !seen["preserve"] {
		q.Preserve = cfg.Preserve
	}
	if !seen["ugly"] {
		q.Ugly = cfg.Ugly
	}
	if !seen["verbose"] {
		q.Verbose = cfg.Verbose
	}
	if !seen["indent"] && cfg.Indent > 0 {
		q.Indent = cfg.Indent
	}
	return nil
}

// readProgram returns the query text, from file when given or else from the
// first argument, and the remaining arguments.
func readProgram(file string, args []string) (string, []string, error) {
	if file != "" {
		buf, err := os.ReadFile(file)
		if err != nil {
			return "", nil, err
		}
		return string(buf), args, nil
	}
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%w: no query given", errUsage)
	}
	return args[0], args[1:], nil
}

func loadDocument(file string) (*dom.Document, error) {
	if file == "" || file == "-" {
		return dom.Parse(os.Stdin)
	}
	return dom.ParseFile(file)
}

func reportError(err error) error {
	var (
		serr hquery.SyntaxError
		eerr hquery.EvaluationError
	)
	switch {
	case errors.As(err, &serr):
		fmt.Fprintf(os.Stderr, "syntax error: %s (%s)", serr.Cause, serr.Position)
		fmt.Fprintln(os.Stderr)
	case errors.As(err, &eerr):
		fmt.Fprintln(os.Stderr, "query error:", eerr)
	case errors.Is(err, dom.ErrSelector):
		fmt.Fprintln(os.Stderr, "selector error:", err)
	default:
		return err
	}
	return fmt.Errorf("%w: %w", errFail, err)
}

func printValue(w io.Writer, v hquery.Value, cfg Config) {
	for _, item := range hquery.Items(v) {
		fmt.Fprintln(w, formatItem(item, cfg))
	}
}

type formatter interface {
	Format(string) string
}

func formatItem(item hquery.Value, cfg Config) string {
	if f, ok := item.(formatter); ok {
		if cfg.Ugly {
			return f.Format("")
		}
		return f.Format(cfg.indent())
	}
	n, ok := item.(hquery.Node)
	if !ok {
		return hquery.StringValue(item, cfg.Preserve)
	}
	switch n.Type() {
	case dom.TypeElement, dom.TypeDocument:
		var (
			buf strings.Builder
			ws  = dom.NewWriter(&buf)
		)
		ws.Indent = cfg.indent()
		if cfg.Ugly {
			ws.WriterOptions |= dom.OptionCompact
		}
		ws.Write(n.Node)
		return buf.String()
	default:
		return n.Value()
	}
}
