// Package metrics counts tree loads, traversal steps and icon fetches.
//
// Counters live on a private registry so several sessions (and tests) never
// collide on the global prometheus registry. A nil *Collector is valid and
// records nothing.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sv"

// Load results.
const (
	ResultLoaded  = "loaded"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
	ResultShared  = "shared"
)

// Icon resolution results.
const (
	IconMemory  = "memory"
	IconStore   = "store"
	IconRemote  = "remote"
	IconMissing = "missing"
	IconFailed  = "failed"
)

// Walk names.
const (
	WalkExpandAll = "expand_all"
	WalkRestore   = "restore"
)

// Collector holds the counters of one process.
type Collector struct {
	registry *prometheus.Registry

	// NodeLoads counts EnsureLoaded calls by result.
	// Labels: result (loaded, failed, skipped, shared)
	NodeLoads *prometheus.CounterVec

	// TraversalNodes counts nodes visited by traversal walks.
	// Labels: walk (expand_all, restore)
	TraversalNodes *prometheus.CounterVec

	// IconFetches counts icon resolutions by result.
	// Labels: result (memory, store, remote, missing, failed)
	IconFetches *prometheus.CounterVec
}

// New creates a Collector registered on its own registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		NodeLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_loads_total",
				Help:      "Lazy child loads by result",
			},
			[]string{"result"},
		),
		TraversalNodes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "traversal_nodes_total",
				Help:      "Nodes visited by traversal walks",
			},
			[]string{"walk"},
		),
		IconFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "icon_fetch_total",
				Help:      "Icon resolutions by result",
			},
			[]string{"result"},
		),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) RecordLoad(result string) {
	if c == nil {
		return
	}
	c.NodeLoads.WithLabelValues(result).Inc()
}

func (c *Collector) RecordVisit(walk string) {
	if c == nil {
		return
	}
	c.TraversalNodes.WithLabelValues(walk).Inc()
}

func (c *Collector) RecordIcon(result string) {
	if c == nil {
		return
	}
	c.IconFetches.WithLabelValues(result).Inc()
}

// Write prints every non-zero counter as `name{label="value"} count`, sorted.
func (c *Collector) Write(w io.Writer) error {
	if c == nil {
		return nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value := m.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", mf.GetName(), strings.Join(labels, ","), value))
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
