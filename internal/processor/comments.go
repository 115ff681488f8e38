package processor

import (
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/quire/internal/logfields"
	"git.home.luguber.info/inful/quire/internal/page"
)

const (
	CommentsName = "comments"
	// CommentsField is the header that receives the comment list.
	CommentsField = "comments"
	// CommentsExt is the suffix of comment files next to a page.
	CommentsExt = ".comments"
)

// Comments reads comments that an external tool stored in a YAML list next
// to a page (blog/post.md and blog/post.comments) into the page's comments header.
type Comments struct {
	reader Reader
	logger *slog.Logger
}

// NewComments needs a Reader to load comment files.
func NewComments(env Env) (Processor, error) {
	if env.Reader == nil {
		return nil, fmt.Errorf("comments: no file reader")
	}
	return &Comments{reader: env.Reader, logger: env.logger()}, nil
}

func (*Comments) Name() string { return CommentsName }

func (c *Comments) BeforePageParsing(p *page.Page) error {
	file, ok := c.find(p)
	if !ok {
		return nil
	}
	text, err := c.reader.Read(file)
	if err != nil {
		c.logger.Error("Skipping comments for page", logfields.Page(p.Path), logfields.Path(file), logfields.Error(err))
		return nil
	}
	var comments []any
	if err := yaml.Unmarshal([]byte(text), &comments); err != nil {
		c.logger.Error("Skipping comments for page", logfields.Page(p.Path), logfields.Path(file), logfields.Error(err))
		return nil
	}
	if len(comments) == 0 {
		return nil
	}
	if existing, ok := p.Extra[CommentsField].([]any); ok {
		comments = append(existing, comments...)
	}
	return p.Set(CommentsField, comments)
}

func (c *Comments) find(p *page.Page) (string, bool) {
	suffix := p.Slug + CommentsExt
	for _, f := range p.StaticFiles {
		if strings.HasSuffix(f, suffix) {
			c.logger.Debug("Comment file found", logfields.Page(p.Path), logfields.Path(f))
			return f, true
		}
	}
	return "", false
}
