/*
Package api provides the HTTP surface of the quote explorer gateway.

Subpackages:

1. uploadhandler - the admission-gated quote upload endpoint
2. reporthandler - read-only proxies for reports, collateral and raw quotes
3. clients - the client of the external verification backend
4. servers - HTTP server configuration and lifecycle management
5. mockverifier - a stand-in verification backend for development and tests

This package holds what they share: server configuration, client-facing
messages and JSON response helpers.

# Response Model

Every rejection carries a JSON body of the form {"error": "..."}. Validation
failures add "remainingAttempts". Internal faults of any origin (ledger,
verification backend, decoding) are reported as the same generic 500 with
no detail.
*/
package api
