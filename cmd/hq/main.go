package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/midbel/cli"
	"github.com/midbel/hq/dom"
	"github.com/midbel/hq/hquery"
)

var (
	errFail  = errors.New("fail")
	errUsage = errors.New("usage")
)

const (
	exitOK = iota
	exitFailure
	exitUsage
	exitSyntax
	exitQuery
)

const summary = "hq extracts data from html documents"

const usage = `usage: hq [command] [options] <query> [document]

Run the query against the document, or stdin when no document is given,
and print every item of the result on its own line. Without a command,
hq runs the query command.

commands:
  query   evaluate a query or, with -css, a css selector
  tokens  print the tokens of a query
  repl    query a document interactively
  help    print this message

exit status:
  0  success
  1  failure reading a file or writing the result
  2  invalid command line
  3  invalid query or selector
  4  error while evaluating the query`

func main() {
	err := dispatch(os.Args[1:])
	if err != nil && !errors.Is(err, errFail) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func commands() []*cli.Command {
	help := cli.Help(summary, usage)
	help.Name = "help"
	help.Summary = "print this message"
	return []*cli.Command{&queryCmd, &tokensCmd, &replCmd, help}
}

// dispatch runs the command named by the first argument. Any other first
// argument starts a query.
func dispatch(args []string) error {
	var (
		list = commands()
		root = cli.New()
	)
	root.SetSummary(summary)
	root.SetHelp(usage)
	for _, c := range list {
		root.Register([]string{c.Name}, c)
	}
	if len(args) == 0 {
		root.Help()
		return errUsage
	}
	known := slices.ContainsFunc(list, func(c *cli.Command) bool {
		return c.Name == args[0]
	})
	if known {
		return root.Execute(args)
	}
	err := queryCmd.Run(args)
	if errors.Is(err, flag.ErrHelp) {
		root.Help()
		return nil
	}
	return err
}

func exitCode(err error) int {
	var (
		serr hquery.SyntaxError
		eerr hquery.EvaluationError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &serr), errors.Is(err, dom.ErrSelector):
		return exitSyntax
	case errors.As(err, &eerr):
		return exitQuery
	case errors.Is(err, errUsage):
		return exitUsage
	default:
		return exitFailure
	}
}
