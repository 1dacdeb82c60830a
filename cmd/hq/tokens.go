package main

import (
	"fmt"
	"os"

	"github.com/midbel/cli"
	"github.com/midbel/hq/hquery"
)

var tokensCmd = cli.Command{
	Name:    "tokens",
	Summary: "print the tokens of a query",
	Handler: &TokensCmd{},
}

type TokensCmd struct {
	File string
}

func (t TokensCmd) Run(args []string) error {
	set := cli.NewFlagSet("tokens")
	set.StringVar(&t.File, "file", "", "read query from file")
	if err := set.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	expr, _, err := readProgram(t.File, set.Args())
	if err != nil {
		return err
	}
	scan := hquery.Scan(expr)
	for {
		tok := scan.Scan()
		if tok.Type == hquery.EOF {
			break
		}
		fmt.Fprintf(os.Stdout, "%s: %s", tok.Position, tok)
		fmt.Fprintln(os.Stdout)
		if tok.Type == hquery.Invalid {
			return errFail
		}
	}
	return nil
}
