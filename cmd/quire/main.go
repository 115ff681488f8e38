// Command quire builds static sites from a directory of pages and templates.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/quire/internal/foundation/errors"
	"git.home.luguber.info/inful/quire/internal/version"
)

func main() {
	cli := &CLI{}
	parser := kong.Parse(cli,
		kong.Name("quire"),
		kong.Description("A static site generator: pages and templates in, a website out."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&Global{Logger: slog.Default(), Stdout: os.Stdout}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
