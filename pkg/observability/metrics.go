package observability

import (
	"errors"
	"net/http"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formtree"

// Metrics holds the collectors fed by editor hooks.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	rejections *prometheus.CounterVec
	migrations *prometheus.CounterVec
	mounts     *prometheus.CounterVec
	nodes      *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Structural operations applied to form trees.",
			},
			[]string{"op"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejections_total",
				Help:      "Operations rejected without changing the form.",
			},
			[]string{"op", "reason"},
		),
		migrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "migrations_total",
				Help:      "Legacy field renames applied while loading forms.",
			},
			[]string{"rule"},
		),
		mounts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mounts_total",
				Help:      "Mount events sent to visual layers.",
			},
			[]string{"control_id"},
		),
		nodes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "nodes",
				Help:      "Number of nodes in each open form.",
			},
			[]string{"form"},
		),
	}
	m.registry.MustRegister(m.operations, m.rejections, m.migrations, m.mounts, m.nodes)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns the hooks recording the activity of the editor of formID.
func (m *Metrics) Hooks(formID string) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTreeChanged: func(ev domain.TreeChangedEvent) {
			m.operations.WithLabelValues(string(ev.Op)).Inc()
			m.nodes.WithLabelValues(formID).Set(float64(ev.Nodes))
		},
		OnMount: func(ev domain.MountEvent) {
			m.mounts.WithLabelValues(ev.ControlID).Inc()
		},
		OnRejected: func(ev domain.RejectedEvent) {
			m.rejections.WithLabelValues(string(ev.Op), Reason(ev.Err)).Inc()
		},
		OnMigrated: func(ev domain.MigrationEvent) {
			for _, rule := range ev.Rules {
				m.migrations.WithLabelValues(rule).Inc()
			}
		},
	}
}

// Forget drops the per-form series once a form is closed.
func (m *Metrics) Forget(formID string) {
	m.nodes.DeleteLabelValues(formID)
}

var reasons = []struct {
	err  error
	name string
}{
	{domain.ErrParentNotFound, "parent_not_found"},
	{domain.ErrNodeNotFound, "node_not_found"},
	{domain.ErrInvalidTarget, "invalid_target"},
	{domain.ErrUnknownControlType, "unknown_control"},
	{domain.ErrNotLeaf, "not_leaf"},
	{domain.ErrNotContainer, "not_container"},
	{domain.ErrPreviewActive, "preview_active"},
	{domain.ErrEditPending, "edit_pending"},
	{domain.ErrNoPendingEdit, "no_pending_edit"},
	{domain.ErrUnknownProperty, "unknown_property"},
	{domain.ErrUnknownOption, "unknown_option"},
	{domain.ErrInvalidDrop, "invalid_drop"},
}

// Reason maps an editor error to a bounded label value.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return "invalid_value"
}
