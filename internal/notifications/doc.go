// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Event categories (run lifecycle, quarantine alerts, errors) can be
// toggled independently so operators only hear about what they care about.
//
// Extend this package if you need alternative transports; pipeline code
// depends only on the simple Service interface.
package notifications
