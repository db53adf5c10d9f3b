package store

import (
	"fmt"
	"time"

	"github.com/MisterBo-ops/Gestionfil/internal/models"
)

const ticketNumberPad = 3

// PriorityFor maps an HVC tier to its queue priority. Unknown tiers fall
// through to the lowest priority rather than erroring.
func PriorityFor(typeClient string) int {
	switch typeClient {
	case models.TypeHVCOr:
		return 1
	case models.TypeHVCArgent, models.TypeHVCBronze:
		return 2
	default:
		return 3
	}
}

// FormatTicketNumber renders the date-scoped ticket number, e.g. 20260216-001.
func FormatTicketNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%0*d", day.Format("20060102"), ticketNumberPad, seq)
}
