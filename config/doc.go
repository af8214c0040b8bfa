// Package config provides layered configuration loading for the pipeline.
//
// Configuration is assembled from three layers, later layers winning:
//
//  1. Built-in defaults (Defaults)
//  2. Config files (JSON or YAML), merged in the order they were added
//  3. Environment overrides (SCHEMAFLOW_* variables)
//
// # Basic Usage
//
//	loader := config.NewLoader()
//	loader.AddLayer("config.yaml")
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//	    return err
//	}
//
// Duration fields accept human-readable strings in files ("10s", "2m").
// Recognized environment overrides: SCHEMAFLOW_STORAGE_URI,
// SCHEMAFLOW_NATS_URLS (comma separated), SCHEMAFLOW_NATS_USERNAME,
// SCHEMAFLOW_NATS_PASSWORD, SCHEMAFLOW_NATS_TOKEN, SCHEMAFLOW_LOG_LEVEL,
// SCHEMAFLOW_METRICS_PORT.
//
// # Thread Safety
//
// Config itself is a plain value; wrap it in SafeConfig when multiple
// goroutines need a shared, atomically updatable view. SafeConfig.Update
// validates before swapping, so readers never observe an invalid config.
//
// File loading applies defensive limits (size cap, JSON depth cap, path
// traversal rejection) before parsing.
package config
