// Package interfaces defines the contracts between the gateway and its
// collaborators, separating interface definitions from implementations.
//
// # Abuse Ledger
//
// Ledger is the shared expiring key-value store holding request counters,
// error counters and block records. Implementations live in package ledger.
//
// # Verification Backend
//
// Verifier submits canonical quote bytes and returns the backend's JSON
// result as a VerificationResult. ReportSource relays backend-owned report
// data by checksum. Both are implemented by clients.VerifierClient.
//
// # Quote Archive
//
// QuoteArchive stores admitted quotes addressed by ContentID, the SHA-256 of
// the canonical quote bytes. Implementations live in package storage.
package interfaces
