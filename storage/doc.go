// Package storage archives admitted quotes in content-addressed backends.
//
// Quotes are identified by the SHA-256 hash of their canonical bytes, so the
// same quote always lands under the same key and a stored quote can be
// checked against its ID on read.
//
// # Location URIs
//
// Backends are selected by URI scheme:
//
//   - file:///var/lib/ra-quote-explorer
//   - s3://ACCESS_KEY:SECRET_KEY@bucket/prefix?region=us-east-1
//   - ipfs://127.0.0.1:5001/?timeout=30s
//
// Several comma-separated URIs are combined into a MultiArchive that writes
// to every backend and reads from the first one holding the quote.
package storage
