// Package promquery wraps the Prometheus HTTP API for the handful of
// instant queries the scheduler needs. Every lookup is best-effort: a
// failed or empty query reports ok=false and the caller degrades to a
// conservative default, never an aborted scheduling decision.
package promquery

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"k8s.io/klog/v2"
)

const DefaultQueryTimeout = 2 * time.Second

// Client issues instant PromQL queries with a short per-query timeout.
type Client struct {
	api     promv1.API
	timeout time.Duration
}

func NewClient(address string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	client, err := api.NewClient(api.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &Client{api: promv1.NewAPI(client), timeout: timeout}, nil
}

// NodeNetworkLatency returns the node's mean round-trip latency in
// milliseconds, from the network-latency exporter's RTT metric.
func (c *Client) NodeNetworkLatency(ctx context.Context, nodeName string) (float64, bool) {
	query := fmt.Sprintf(`avg(network_latency_rtt_seconds{target_node=%q})`, nodeName)
	seconds, ok := c.scalar(ctx, query)
	if !ok {
		return 0, false
	}
	return seconds * 1000.0, true
}

// NodeCPULoad returns the node's CPU utilization fraction over the last 5m.
func (c *Client) NodeCPULoad(ctx context.Context, nodeName string) (float64, bool) {
	query := fmt.Sprintf(`avg(rate(node_cpu_seconds_total{instance=~"%s.*",mode!="idle"}[5m]))`, nodeName)
	return c.scalar(ctx, query)
}

// NodeMemoryLoad returns the node's memory utilization fraction.
func (c *Client) NodeMemoryLoad(ctx context.Context, nodeName string) (float64, bool) {
	query := fmt.Sprintf(
		`(1 - (node_memory_MemAvailable_bytes{instance=~"%s.*"} / node_memory_MemTotal_bytes{instance=~"%s.*"}))`,
		nodeName, nodeName)
	return c.scalar(ctx, query)
}

// scalar runs an instant query and returns the first sample value.
func (c *Client) scalar(ctx context.Context, query string) (float64, bool) {
	queryCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, warnings, err := c.api.Query(queryCtx, query, time.Now())
	if err != nil {
		klog.V(4).Infof("Prometheus query %q failed: %v", query, err)
		return 0, false
	}
	for _, w := range warnings {
		klog.V(4).Infof("Prometheus query %q warning: %s", query, w)
	}

	vector, ok := result.(model.Vector)
	if !ok || len(vector) == 0 {
		return 0, false
	}
	return float64(vector[0].Value), true
}
