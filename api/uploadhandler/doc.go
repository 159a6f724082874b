// Package uploadhandler implements POST /api/upload: admission control,
// payload validation and forwarding of admitted quotes to the verification
// backend.
package uploadhandler
