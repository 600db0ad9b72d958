// Package indexer turns a built documentation site into search records.
package indexer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"docsearch/internal/domain"
)

const doctype = "<!DOCTYPE html>"

// Area names the part of the site a URL belongs to
type Area struct {
	Match string
	Name  string
}

// Options configures an Indexer
type Options struct {
	BaseURL string
	Exclude []string // path fragments to skip, e.g. "/reference/v1/"
	Areas   []Area   // first match wins
}

// Indexer walks build directories and extracts records
type Indexer struct {
	opts   Options
	logger *zap.Logger
}

// New creates an indexer. A nil logger discards log output.
func New(opts Options, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{opts: opts, logger: logger.Named("indexer")}
}

// Walk parses every HTML page below root in lexical order
func (ix *Indexer) Walk(ctx context.Context, root string) ([]domain.Record, error) {
	var records []domain.Record
	pages := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			ix.logger.Warn("error walking path", zap.String("path", path), zap.Error(err))
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if ix.excluded(rel, d.IsDir()) {
			ix.logger.Debug("skipping excluded path", zap.String("path", rel))
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		recs, err := ix.ParseFile(path, rel)
		if err != nil {
			ix.logger.Warn("skipping unreadable page", zap.String("path", rel), zap.Error(err))
			return nil
		}
		if len(recs) > 0 {
			pages++
			records = append(records, recs...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	ix.logger.Info("indexed build directory",
		zap.String("root", root), zap.Int("pages", pages), zap.Int("records", len(records)))
	return records, nil
}

func (ix *Indexer) excluded(rel string, dir bool) bool {
	if rel == "." {
		return false
	}
	p := "/" + rel
	if dir {
		p += "/"
	}
	for _, frag := range ix.opts.Exclude {
		if frag != "" && strings.Contains(p, frag) {
			return true
		}
	}
	return false
}

// ParseFile parses one page; rel is its slash separated path below the build root
func (ix *Indexer) ParseFile(path, rel string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ix.Parse(f, rel)
}

// Parse extracts records from a page. Files that do not start with an HTML5
// doctype, or have no content heading, yield nothing.
func (ix *Indexer) Parse(r io.Reader, rel string) ([]domain.Record, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	if strings.TrimSpace(first) != doctype {
		return nil, nil
	}

	page, err := parsePage(br)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", rel, err)
	}
	if page == nil {
		return nil, nil
	}

	url := URLFor(ix.opts.BaseURL, rel)
	area := ix.areaFor(url)
	id := strings.TrimSuffix(rel, ".html")

	var records []domain.Record
	for _, sec := range page.sections {
		crumbs := breadcrumbs(area, page.title, sec.heading)

		if sec.text != "" {
			records = append(records, domain.Record{
				ObjectID:    fmt.Sprintf("%s#%d", id, len(records)),
				Title:       page.title,
				Permalink:   url,
				Section:     sec.heading,
				Content:     sec.text,
				Breadcrumbs: crumbs,
				Type:        "text",
				Depth:       depth(sec.heading, ""),
			})
		}

		for _, p := range sec.parameters {
			records = append(records, domain.Record{
				ObjectID:    fmt.Sprintf("%s#%d", id, len(records)),
				Title:       "Parameter `" + p.name + "`",
				Permalink:   url,
				Section:     sec.heading,
				Content:     p.text,
				Breadcrumbs: crumbs,
				Type:        "parameter",
				Parameter:   p.name,
				Depth:       depth(sec.heading, p.name),
			})
		}
	}
	return records, nil
}

func (ix *Indexer) areaFor(url string) string {
	for _, a := range ix.opts.Areas {
		if strings.Contains(url, a.Match) {
			return a.Name
		}
	}
	return ""
}

var buildPath = regexp.MustCompile(`^(html/)?(.*?)(\.html)?$`)

// URLFor maps a build-relative file path to its public URL
func URLFor(base, rel string) string {
	p := buildPath.ReplaceAllString(rel, "$2")
	if p == "index" {
		p = ""
	}
	return base + p
}

func breadcrumbs(area, title, section string) domain.Breadcrumbs {
	var crumbs domain.Breadcrumbs
	if area != "" {
		crumbs = append(crumbs, area)
	}
	crumbs = append(crumbs, title)
	if section != "" {
		crumbs = append(crumbs, section)
	}
	return crumbs
}

// depth ranks shallow records first: one for a section, plus one per
// parameter nesting level
func depth(section, parameter string) int {
	d := 0
	if section != "" {
		d++
	}
	if parameter != "" {
		d += 1 + strings.Count(parameter, ".")
	}
	return d
}
