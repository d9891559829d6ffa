// Package repository implements data access for stock items, the usage
// ledger, stored plans and the background job queue.
package repository

import "fmt"

// ConflictError means a consumption precondition (quantity or status) failed
// at commit time, typically because a concurrent commit or a stale plan got
// there first. The caller must re-fetch stock and recompute the plan; the
// core never retries on its own.
type ConflictError struct {
	StockID string
	Reason  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("stock %s: %s", e.StockID, e.Reason)
}

// NotFoundError means a referenced row no longer exists.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
