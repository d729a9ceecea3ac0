package metrics

import "github.com/kilianp07/gridwalk/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the address the /metrics endpoint listens on when
	// serving. Empty disables the endpoint.
	PrometheusPort string `json:"prometheus_port"`
}
