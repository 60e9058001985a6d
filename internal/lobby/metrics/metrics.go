// Package metrics 提供局域网发现的 Prometheus 指标
//
// 所有方法对 nil *Collector 安全，未启用指标的组件直接传 nil。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lobby"

// 扫描结果标签值
const (
	OutcomeFound   = "found"
	OutcomeTimeout = "timeout"
)

// Collector 发现子系统指标
type Collector struct {
	packetsSent      prometheus.Counter
	sendErrors       prometheus.Counter
	packetsReceived  prometheus.Counter
	packetsMalformed prometheus.Counter
	packetsIgnored   prometheus.Counter
	scanOutcomes     *prometheus.CounterVec
	transitions      *prometheus.CounterVec
}

// NewCollector 创建并注册指标
//
// reg 为 nil 时只创建不注册，便于测试。
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		packetsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "packets_sent_total",
			Help:      "Discovery packets broadcast by the host.",
		}),
		sendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "send_errors_total",
			Help:      "Transient failures while broadcasting discovery packets.",
		}),
		packetsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "packets_received_total",
			Help:      "Datagrams received on the discovery port while scanning.",
		}),
		packetsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "packets_malformed_total",
			Help:      "Received datagrams discarded as malformed.",
		}),
		packetsIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "packets_ignored_total",
			Help:      "Well-formed packets advertising a different session code.",
		}),
		scanOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "outcomes_total",
			Help:      "Completed scans by outcome.",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions by target state.",
		}, []string{"to"}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{
			c.packetsSent, c.sendErrors, c.packetsReceived,
			c.packetsMalformed, c.packetsIgnored, c.scanOutcomes, c.transitions,
		} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

// PacketSent 记录一次成功广播
func (c *Collector) PacketSent() {
	if c != nil {
		c.packetsSent.Inc()
	}
}

// SendError 记录一次广播失败
func (c *Collector) SendError() {
	if c != nil {
		c.sendErrors.Inc()
	}
}

// PacketReceived 记录收到的数据报
func (c *Collector) PacketReceived() {
	if c != nil {
		c.packetsReceived.Inc()
	}
}

// PacketMalformed 记录畸形数据包
func (c *Collector) PacketMalformed() {
	if c != nil {
		c.packetsMalformed.Inc()
	}
}

// PacketIgnored 记录会话码不匹配的数据包
func (c *Collector) PacketIgnored() {
	if c != nil {
		c.packetsIgnored.Inc()
	}
}

// ScanOutcome 记录扫描结果
func (c *Collector) ScanOutcome(outcome string) {
	if c != nil {
		c.scanOutcomes.WithLabelValues(outcome).Inc()
	}
}

// Transition 记录状态迁移
func (c *Collector) Transition(to string) {
	if c != nil {
		c.transitions.WithLabelValues(to).Inc()
	}
}
