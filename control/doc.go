// File: control/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package control
//
// Configuration, hot reload, runtime metrics and debug introspection for the
// mediagate front-end.
//
// Provides:
//   - YAML + environment configuration resolved into validated settings
//   - A ConfigStore with reload listeners, fed by a file Watcher
//   - Prometheus metrics and named debug probes, served by ObservabilityServer
package control
