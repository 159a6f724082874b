/*
Package clients talks to the external attestation verification backend.

VerifierClient submits quotes to POST /api/attestations/verify as a single
multipart "file" field and relays backend-owned report data:

  - Collateral - GET /api/collateral/{checksum}
  - Report - GET /api/attestations/view/{checksum}
  - RawQuote - GET /raw/{checksum}

Requests are never retried. MockVerifier stands in for the backend in tests.

	client := clients.NewVerifierClient("https://api.example.com", 30*time.Second)
	result, err := client.Verify(ctx, quote)
	if err != nil {
	    return err
	}
	fmt.Println(result.Checksum(), result.Success())
*/
package clients
