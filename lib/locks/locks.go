// Package locks serialises work on a single invoice.
//
// The poller and manual verification both write payments for an invoice, a
// Locker keeps them from doing that at the same time. Local is enough for a
// single process, Redis covers several replicas sharing one database.
package locks

import (
	"context"
	"errors"
	"fmt"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (release func(), err error)
}

func InvoiceKey(invoiceID int64) string {
	return fmt.Sprintf("cryptobill:invoice:%d", invoiceID)
}
