// Package session owns the current tree and its view state.
//
// A Session is mutated from a single goroutine (the TUI update loop or the
// command running). Loads and walks may run elsewhere; node children and the
// Tracker are safe to touch concurrently, the root pointer is not. Work that
// rebuilds the root off the owning goroutine goes through PrepareRerender
// and Commit.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-structview/pkg/lazy"
	"github.com/mattsolo1/grove-structview/pkg/metrics"
	"github.com/mattsolo1/grove-structview/pkg/render"
	"github.com/mattsolo1/grove-structview/pkg/source/fsdir"
	"github.com/mattsolo1/grove-structview/pkg/source/repo"
	"github.com/mattsolo1/grove-structview/pkg/traverse"
	"github.com/mattsolo1/grove-structview/pkg/tree"
	"github.com/mattsolo1/grove-structview/pkg/viewstate"
)

// Mode is the kind of source the current tree came from.
type Mode string

const (
	ModeNone   Mode = ""
	ModeFolder Mode = "folder"
	ModeRepo   Mode = "repo"
	ModeJSON   Mode = "json"
)

// Title returns the prefix used in the meta line.
func (m Mode) Title() string {
	switch m {
	case ModeFolder:
		return "Folder"
	case ModeRepo:
		return "Repo"
	case ModeJSON:
		return "JSON"
	default:
		return ""
	}
}

var (
	ErrNoRoot      = errors.New("no tree loaded")
	ErrUnknownNode = errors.New("unknown node")
)

// MetaTimeFormat is the layout of the load time in the meta line.
const MetaTimeFormat = "2006-01-02 15:04:05"

// Options configures a Session.
type Options struct {
	Logger    *logrus.Entry
	Metrics   *metrics.Collector
	Collation tree.Collation
	// FS defaults to fsdir.DefaultOptions.
	FS *fsdir.Options
	// PriorityFields names array elements in JSON/YAML trees.
	PriorityFields []string
	// Repo is the transport for repository trees.
	Repo repo.API
	// Now is the clock used for the meta line.
	Now func() time.Time
}

// Rebuild produces a fresh root for the current source.
type Rebuild func(ctx context.Context) (*tree.Node, error)

// Session holds the single current root.
type Session struct {
	opts    Options
	log     *logrus.Entry
	loader  *lazy.Controller
	tracker *viewstate.Tracker
	render  render.Options

	root     *tree.Node
	mode     Mode
	source   string
	loadedAt time.Time
	rebuild  Rebuild
	dirPath  string
}

// New creates an empty Session.
func New(opts Options) *Session {
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		opts.Logger = logrus.NewEntry(logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	fsOpts := fsdir.DefaultOptions()
	if opts.FS != nil {
		fsOpts = *opts.FS
	}
	if fsOpts.Logger == nil {
		fsOpts.Logger = opts.Logger
	}
	opts.FS = &fsOpts

	return &Session{
		opts: opts,
		log:  opts.Logger.WithField("component", "session"),
		loader: lazy.New(
			lazy.WithCollation(opts.Collation),
			lazy.WithLogger(opts.Logger),
			lazy.WithMetrics(opts.Metrics),
		),
		tracker: viewstate.NewTracker(),
	}
}

// Root returns the current root, or nil.
func (s *Session) Root() *tree.Node { return s.root }

// Mode returns the source kind of the current root.
func (s *Session) Mode() Mode { return s.mode }

// Source returns the display name of the current source.
func (s *Session) Source() string { return s.source }

// Dir returns the absolute path of the shown directory in folder mode.
func (s *Session) Dir() string { return s.dirPath }

// Tracker returns the view state of the current root.
func (s *Session) Tracker() *viewstate.Tracker { return s.tracker }

// Loader returns the lazy loading controller.
func (s *Session) Loader() *lazy.Controller { return s.loader }

// Metrics returns the collector, which may be nil.
func (s *Session) Metrics() *metrics.Collector { return s.opts.Metrics }

// SetRenderOptions changes how Rows decorates rows.
func (s *Session) SetRenderOptions(o render.Options) { s.render = o }

// ReplaceRoot installs root as the current tree, resets the view state and
// expands the root. rebuild, if not nil, is used by Reload.
func (s *Session) ReplaceRoot(root *tree.Node, mode Mode, source string, rebuild Rebuild) {
	s.root = root
	s.mode = mode
	s.source = source
	s.rebuild = rebuild
	s.loadedAt = s.opts.Now()
	s.tracker.CollapseAll()
	if mode != ModeFolder {
		s.dirPath = ""
	}
	if root != nil {
		s.tracker.Expand(root, traverse.Path{root.Label()})
	}

	s.log.WithFields(logrus.Fields{
		"mode":   mode,
		"source": source,
		"nodes":  traverse.Count(root),
	}).Debug("replaced root")
}

// Meta returns the status line describing the current source.
func (s *Session) Meta() string {
	if s.root == nil {
		return "No data loaded."
	}
	return fmt.Sprintf("%s: %s • loaded: %s", s.mode.Title(), s.source, s.loadedAt.Format(MetaTimeFormat))
}

// Rows returns the visible rows of the current tree.
func (s *Session) Rows() []render.Row {
	return render.Rows(s.root, s.tracker, s.render)
}
