package ledger

import (
	"log/slog"
	"strings"

	"github.com/ruteri/ra-quote-explorer/interfaces"
)

// MemoryURL selects the in-process ledger. Counters are lost on restart and
// are not shared between replicas.
const MemoryURL = "memory://"

// Open returns the ledger for a redis:// or rediss:// URL, or a MemoryLedger
// for MemoryURL.
func Open(url string, log *slog.Logger) (interfaces.Ledger, error) {
	if strings.HasPrefix(url, MemoryURL) {
		log.Warn("Using in-memory abuse ledger, limits are per process and reset on restart")
		return NewMemoryLedger(), nil
	}
	return NewRedisLedgerFromURL(url, log)
}
