// This package provides a set of structs and functions which are used
// to geolocate IPv4 addresses by asking several independent providers
// and reconciling their answers.
//
// geolib is a core of the geotrack project. The rest of the
// application (storage, reports, CLI) can be treated as an example on
// how to use this library.
//
// Orchestrator is a main entity of the geolib. It walks all providers
// of the Registry in their configured order, collects normalized
// records, skips failed providers and passes the successful records to
// Reconciler. Reconciler produces a ReconciledResult: averaged
// coordinates and an accuracy label.
//
// Providers are not subclassed. Each HTTP provider is described by a
// ProviderConfig: a URL template and a table which maps normalized
// keys to the native JSON fields of the provider.
package geolib
