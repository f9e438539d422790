/*
Package ledger provides the wallet ledger: per-party balances plus an
append-only log of every balance event.

Every credit or debit runs as one transaction that locks the wallet account,
writes the new balance with a version check and appends a SUCCESS entry. If
the transaction fails, a FAILED entry carrying the error is written outside
it and the balance is left unchanged. FAILED entries can be retried a
bounded number of times; each retry appends a new entry pointing back at
the original through RetryOf.

Usage:

	svc := ledger.NewService(repo, balanceCache, ledger.Config{}, nil, log)

	// Credit a vendor for an approved report
	res, err := svc.Credit(ctx, ledger.Request{
	    Party:    models.Vendor(vendorID),
	    Amount:   2950,
	    Type:     models.TxReportUpload,
	    Metadata: models.InstallmentMetadata(models.TxReportUpload, meta),
	})

	// Retry a failed entry
	res, err = svc.Retry(ctx, res.Entry.ID)

Debits never drive the balance below zero. A debit larger than the balance
removes what is there, records the removed amount on the entry and still
adds the full requested amount to the account's TotalDeducted. Callers that
must not clamp (withdrawal processing) set RequireSufficient.

Reconcile recomputes a balance from its SUCCESS entries and repairs drift
larger than one cent. Balance reconciles before it caches a snapshot.
*/
package ledger
