/*
Package ledger is the only code that changes a wallet balance.

Every change is a Delta: a signed amount, a reason and an idempotency key.
ApplyDelta locks the wallet row, checks whether the key was already applied,
refuses any delta that would take the balance below its floor, and records a
LedgerEntry next to the new balance. A replayed key returns the original entry
and applies nothing.

Workflows that change a record's status together with money call ApplyDeltaTx
from inside their own transaction so both commit or neither does:

	err := store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
	    ok, err := tx.Deposits().Complete(ctx, id, adminID, now)
	    ...
	    _, err = ledgerSvc.ApplyDeltaTx(ctx, tx, ledger.Delta{...})
	    return err
	})
	ledgerSvc.Invalidate(ctx, userID)

Cached wallet snapshots are dropped after commit. The cache is never read on a
money-moving path.
*/
package ledger
