// Package factory provides a generic registry used to build pluggable
// modules (planning strategies, metrics sinks) from configuration.
package factory
