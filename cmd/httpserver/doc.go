// Command httpserver runs the RA quote upload gateway.
//
// Every submission to POST /api/upload passes the admission gate (block
// check, then per-client rate limit) before it is validated and forwarded to
// the verification backend at --api-prefix. Counters and block records live
// in the abuse ledger at --redis-url; both flags are required and the ledger
// is pinged before the server starts.
//
// Flags can also be set through environment variables, which are read from
// a .env file in the working directory when present.
//
// Example usage:
//
//	httpserver \
//	  --api-prefix https://verifier.example.com \
//	  --redis-url redis://127.0.0.1:6379/0 \
//	  --archive-uri file:///var/lib/ra-quote-explorer \
//	  --listen-addr 0.0.0.0:8080
//
// For local development without redis, pair --redis-url memory:// with the
// mock verifier:
//
//	mock-verifier --listen-addr 127.0.0.1:9000 &
//	httpserver --api-prefix http://127.0.0.1:9000 --redis-url memory://
package main
