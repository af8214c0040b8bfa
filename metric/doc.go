// Package metric provides Prometheus-based metrics collection and an HTTP
// server for observing the ingestion pipeline.
//
// The package offers a centralized metrics registry managing both core
// pipeline metrics (batches, inserted records, duplicates, schema versions,
// change events) and custom component-specific metrics. It includes an HTTP
// server exposing metrics in Prometheus format for monitoring system
// integration.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Pipeline-level metrics automatically registered (Metrics type)
//  2. Component Registry: Extensible registration for component-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with health checks (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && err != http.ErrServerClosed {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core pipeline metrics
//	core := registry.CoreMetrics()
//	core.RecordIngest("ecommerce", "products", 95, 5, elapsed)
//	core.RecordVersionCreated("ecommerce", "products", 2)
//	core.RecordChanges("ecommerce", "products", 3)
//
// The server exposes Prometheus-formatted metrics at
// http://localhost:9090/metrics and a health check at
// http://localhost:9090/health.
//
// # Core Metrics
//
// All core metrics use the namespace "schemaflow". Ingest-related metrics
// carry (source, entity) labels so one process ingesting many categories
// stays observable per category:
//
//   - schemaflow_ingest_batches_total{source,entity}
//   - schemaflow_ingest_records_inserted_total{source,entity}
//   - schemaflow_ingest_duplicates_dropped_total{source,entity}
//   - schemaflow_ingest_insert_failures_total{source,entity}
//   - schemaflow_ingest_duration_seconds{source,entity}
//   - schemaflow_ingest_errors_total{source,stage}
//   - schemaflow_schema_versions_created_total{source,entity}
//   - schemaflow_schema_current_version{source,entity}
//   - schemaflow_changes_detected_total{source,entity}
//   - schemaflow_semantic_fields_classified_total{category}
//
// # Component-Specific Metrics
//
// Components can register custom metrics through the registry:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Name: "export_requests_total",
//	    Help: "Total number of schema export requests",
//	})
//	err := registry.RegisterCounter("schemaexport", "export_requests_total", counter)
//
// Vector variants (RegisterCounterVec, RegisterGaugeVec,
// RegisterHistogramVec) accept labeled metrics. Registration returns an
// error for duplicate names, both at the registry level and when Prometheus
// itself reports a conflict.
//
// # Thread Safety
//
// All registry operations are thread-safe. Registration methods use mutex
// protection; metric recording itself is lock-free per the Prometheus client
// guarantees.
package metric
