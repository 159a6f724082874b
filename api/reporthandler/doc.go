// Package reporthandler serves read-only report data for verified quotes:
// collateral, rendered reports and raw quote bytes.
package reporthandler
