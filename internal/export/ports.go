// Package export defines the ports for pushing ledger rows to an
// external backup destination.
package export

import (
	"context"

	"github.com/flwkf/financeguard/internal/ledger"
)

// RowAppender appends one ledger entry to the backup destination and
// returns a destination-specific row reference.
type RowAppender interface {
	Append(ctx context.Context, e ledger.Entry) (rowRef string, err error)
}
