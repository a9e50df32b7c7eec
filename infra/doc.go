// Package infra contains technical adapters such as the host bridge,
// MQTT notifier, metrics sinks and Sentry monitor. These packages should
// depend only on the interfaces defined in the core packages.
package infra
