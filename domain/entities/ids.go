package entities

import (
	"strings"

	"github.com/google/uuid"
)

// ID prefixes keep identifiers self-describing in logs and payment metadata
const (
	CompetitionIDPrefix = "comp"
	OrderIDPrefix       = "order"
	TransactionIDPrefix = "txn"
	TicketIDPrefix      = "ticket"
	WinnerIDPrefix      = "winner"
)

// NewID returns prefix_ followed by 12 random hex characters
func NewID(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "_" + hex[:12]
}
