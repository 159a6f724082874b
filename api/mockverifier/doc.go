// Package mockverifier is an in-memory stand-in for the attestation
// verification backend, used for local development and end-to-end tests.
package mockverifier
