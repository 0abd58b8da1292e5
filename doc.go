// Geotrack resolves an approximate location of IPv4 addresses.
//
// Idea is simple: there are many free geolocation services and all of
// them are a bit wrong. Geotrack asks every configured provider,
// normalizes their answers into the same schema and reconciles them
// into a single estimate with a confidence label. If at least two
// providers agree on coordinates, accuracy is high.
//
// Code is organized into several packages:
//
// Geolib
//
// geolib is a core of the application: provider abstraction,
// config-driven HTTP providers, reconciliation and Orchestrator which
// drives a query across providers. Orchestrator also acts as
// http.Handler.
//
// Providers
//
// A table of built-in providers, public IP discovery and an offline
// MaxMind provider.
//
// Storage and Report
//
// Persistence of tracking history in SQLite or PostgreSQL and
// rendering of this history into reports and maps.
//
// Geotrack
//
// A main package itself wires everything into a CLI. serve command
// exposes HTTP API and Prometheus metrics.
package main
