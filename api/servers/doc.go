/*
Package servers runs the public HTTP server.

The router mounts every API handler next to the operational endpoints:

  - GET /livez - Liveness
  - GET /readyz - Readiness; fails while draining or when the abuse ledger is unreachable
  - GET /drain, GET /undrain - Toggle readiness ahead of a rollout
  - /debug/* - pprof, when enabled

All routes go through access logging and panic recovery. When a legacy host
is configured, page requests for it are redirected to the canonical host.

The Prometheus metrics server is started and stopped together with the API
server when a metrics address is set.
*/
package servers
