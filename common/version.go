package common

// Version is overridden at build time with -ldflags "-X .../common.Version=...".
var Version = "dev"

const PackageName = "github.com/ruteri/ra-quote-explorer"

// MetricsNamespace prefixes every exported Prometheus metric.
const MetricsNamespace = "ra_quote_explorer"
