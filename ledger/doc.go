// Package ledger implements the abuse ledger: the shared, expiring key-value
// store that holds per-client request counters, error counters and block
// records for the upload admission gate.
//
// RedisLedger is the production implementation. Counter creation and expiry
// happen in a single Lua script, so a counter created by one request always
// carries the window TTL even under concurrent increments.
//
// MemoryLedger satisfies the same contract in process memory and accepts an
// injected clock; it backs the package tests of the gate and handlers.
package ledger
