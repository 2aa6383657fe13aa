// Package metrics provides scheduler and store observability for azkard.
//
// Components receive a Recorder through an option and default to NoopRecorder,
// so metrics cost nothing unless the daemon is configured with a textfile sink.
// PrometheusRecorder registers counters and gauges on a private registry;
// TextfileWriter periodically dumps that registry in the node_exporter
// textfile format, which keeps the daemon free of any listening socket.
package metrics
