package main

import (
	"fmt"

	"git.home.luguber.info/inful/quire/internal/quickstart"
)

// QuickstartCmd implements the 'quickstart' command.
type QuickstartCmd struct {
	ProjectDir       string `arg:"" optional:"" name:"project-dir" default:"." type:"path" help:"Directory to create the project in."`
	TemplatingEngine string `name:"templating-engine" short:"t" default:"gotemplate" help:"Templating engine for the scaffold (gotemplate, pongo2, jinja2)."`
	Source           string `name:"source" default:"filesystem" help:"Data source written to _config.yml."`
	AuthorName       string `name:"author-name" help:"Author name (default: login name)."`
	AuthorEmail      string `name:"author-email" help:"Author email (default: <login>@localhost)."`
	WebsiteURL       string `name:"website-url" default:"http://www.example.org" help:"Website URL."`
	Timezone         string `name:"timezone" default:"UTC" help:"Site timezone, e.g. Europe/Berlin."`
	Language         string `name:"language" default:"de" help:"Default language tag of pages."`
	Force            bool   `help:"Overwrite an existing _config.yml and scaffold files."`
}

func (q *QuickstartCmd) Run(g *Global) error {
	res, err := quickstart.Run(quickstart.Options{
		ProjectDir:       q.ProjectDir,
		TemplatingEngine: q.TemplatingEngine,
		Source:           q.Source,
		AuthorName:       q.AuthorName,
		AuthorEmail:      q.AuthorEmail,
		WebsiteURL:       q.WebsiteURL,
		Timezone:         q.Timezone,
		Language:         q.Language,
		Force:            q.Force,
		Logger:           g.Logger,
	})
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		_, _ = fmt.Fprintf(g.Stdout, "created %s\n", f)
	}
	_, _ = fmt.Fprintf(g.Stdout, "Project ready in %s\n", res.ProjectDir)
	return nil
}
