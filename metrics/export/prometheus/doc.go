// Package prometheus exports engine metrics through client_golang.
//
// [Collector] implements prometheus.Collector over
// [schoolAuth.Engine.MetricsSnapshot]; register it on any registry or serve
// it with [Handler]. Metric names come from internaldefs.
package prometheus
