// Package lazy loads the children of tree nodes on demand.
//
// A node is fetched from its source at most once per successful load. Calls
// for a node that is already loaded, or that has no children, return
// immediately. Concurrent calls for the same node share a single fetch.
// A failed fetch leaves the node unloaded and records the error on the node
// itself, so siblings and any traversal in progress are unaffected.
package lazy

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mattsolo1/grove-structview/pkg/metrics"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Controller performs lazy loads for every node of a session.
type Controller struct {
	flight    singleflight.Group
	collation tree.Collation
	log       *logrus.Entry
	metrics   *metrics.Collector
}

// Option configures a Controller.
type Option func(*Controller)

// WithCollation sets how loaded children are ordered.
func WithCollation(c tree.Collation) Option {
	return func(ctl *Controller) { ctl.collation = c }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(log *logrus.Entry) Option {
	return func(ctl *Controller) { ctl.log = log }
}

// WithMetrics sets the collector that counts load results.
func WithMetrics(m *metrics.Collector) Option {
	return func(ctl *Controller) { ctl.metrics = m }
}

// New creates a Controller.
func New(opts ...Option) *Controller {
	ctl := &Controller{}
	for _, opt := range opts {
		opt(ctl)
	}
	if ctl.log == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		ctl.log = logrus.NewEntry(logger)
	}
	ctl.log = ctl.log.WithField("component", "lazy")
	return ctl
}

// EnsureLoaded makes sure node's children reflect its source. The returned
// error wraps tree.ErrPartialLoad and the source error.
func (c *Controller) EnsureLoaded(ctx context.Context, node *tree.Node) error {
	if node == nil || node.Loaded() || !node.HasChildren() {
		c.metrics.RecordLoad(metrics.ResultSkipped)
		return nil
	}

	_, err, shared := c.flight.Do(string(node.ID()), func() (interface{}, error) {
		// A previous flight may have finished between the check above and now.
		if node.Loaded() {
			return nil, nil
		}
		return nil, c.load(ctx, node)
	})
	if shared {
		c.metrics.RecordLoad(metrics.ResultShared)
	}
	return err
}

func (c *Controller) load(ctx context.Context, node *tree.Node) error {
	log := c.log.WithFields(logrus.Fields{
		"node_id": node.ID(),
		"label":   node.Label(),
	})

	handle := node.Handle()
	if handle == nil {
		err := fmt.Errorf("node %q has no source to load from", node.Label())
		node.MarkFailed(err)
		c.metrics.RecordLoad(metrics.ResultFailed)
		return fmt.Errorf("load %q: %w: %w", node.Label(), tree.ErrPartialLoad, err)
	}

	start := time.Now()
	children, err := handle.Enumerate(ctx)
	if err != nil {
		node.MarkFailed(err)
		c.metrics.RecordLoad(metrics.ResultFailed)
		log.WithError(err).Warn("failed to load children")
		return fmt.Errorf("load %q: %w: %w", node.Label(), tree.ErrPartialLoad, err)
	}

	tree.SortEntries(children, c.collation)
	node.SetChildren(children)
	c.metrics.RecordLoad(metrics.ResultLoaded)

	log.WithFields(logrus.Fields{
		"children": len(children),
		"duration": time.Since(start),
	}).Debug("loaded children")
	return nil
}
