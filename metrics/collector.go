// Package metrics 用 Prometheus 计数代理的作用域和调用
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

const (
	namespace = "scopedproxy"
	subsystem = "proxy"
)

// Collector 实现 proxy.Observer，使用独立的 Registry，不对外暴露 HTTP 接口
type Collector struct {
	registry *prometheus.Registry

	scopesOpened *prometheus.CounterVec
	scopesClosed *prometheus.CounterVec
	activeScopes *prometheus.GaugeVec
	calls        *prometheus.CounterVec
}

// New 创建 Collector 并注册所有指标
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
	}

	c.scopesOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scopes_opened_total",
			Help:      "Total number of scopes opened by proxied calls",
		},
		[]string{"proxy"},
	)
	c.registry.MustRegister(c.scopesOpened)

	c.scopesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scopes_closed_total",
			Help:      "Total number of scopes disposed by proxied calls",
		},
		[]string{"proxy"},
	)
	c.registry.MustRegister(c.scopesClosed)

	c.activeScopes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_scopes",
			Help:      "Number of scopes currently open",
		},
		[]string{"proxy"},
	)
	c.registry.MustRegister(c.activeScopes)

	c.calls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "calls_total",
			Help:      "Total number of proxied operations by outcome",
		},
		[]string{"proxy", "outcome"},
	)
	c.registry.MustRegister(c.calls)

	return c
}

// Registry 返回内部 Registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ScopeOpened(proxy string) {
	c.scopesOpened.WithLabelValues(proxy).Inc()
	c.activeScopes.WithLabelValues(proxy).Inc()
}

func (c *Collector) ScopeClosed(proxy string) {
	c.scopesClosed.WithLabelValues(proxy).Inc()
	c.activeScopes.WithLabelValues(proxy).Dec()
}

func (c *Collector) CallCompleted(proxy string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.calls.WithLabelValues(proxy, outcome).Inc()
}

// Snapshot 所有代理的指标合计
type Snapshot struct {
	Opened    float64
	Closed    float64
	Active    float64
	Succeeded float64
	Failed    float64
}

// Snapshot 从 Registry 读取当前值
func (c *Collector) Snapshot() (Snapshot, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return Snapshot{}, fmt.Errorf("metrics: gather: %w", err)
	}

	var snap Snapshot
	for _, family := range families {
		for _, m := range family.GetMetric() {
			switch family.GetName() {
			case namespace + "_" + subsystem + "_scopes_opened_total":
				snap.Opened += m.GetCounter().GetValue()
			case namespace + "_" + subsystem + "_scopes_closed_total":
				snap.Closed += m.GetCounter().GetValue()
			case namespace + "_" + subsystem + "_active_scopes":
				snap.Active += m.GetGauge().GetValue()
			case namespace + "_" + subsystem + "_calls_total":
				if labelValue(m, "outcome") == "error" {
					snap.Failed += m.GetCounter().GetValue()
				} else {
					snap.Succeeded += m.GetCounter().GetValue()
				}
			}
		}
	}
	return snap, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, pair := range m.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}
