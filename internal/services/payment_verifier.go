// Package services – PaymentVerifier
//
// This file implements payment verification against the ledger. Verification
// fails closed: unless every expected property of the finalized transaction
// checks out, the payment is not accepted. A transaction the ledger does not
// know about (not yet confirmed, or never submitted) is a verification
// failure, not a fatal error; the caller decides retry policy.
package services

import (
	"context"
	"errors"
	"fmt"

	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

// PaymentVerifier checks that a finalized ledger transaction paid an exact
// amount to an expected recipient, optionally tied to a specific payer.
type PaymentVerifier struct {
	// Ledger is the read surface used to fetch transaction details.
	Ledger solanaledger.Ledger
}

// Verify fetches the transaction by base58 signature and confirms ALL of:
//
//   - the transaction executed without error;
//   - the first instruction targets the system transfer program;
//   - its destination account equals recipient;
//   - the recipient's lamport delta (post - pre) equals amount exactly, with
//     no tolerance in either direction;
//   - when payer is non-empty, the transaction's account list contains it.
//
// On success it returns the transaction detail so callers can inspect the
// account list (e.g. to learn the payer). Any mismatch, as well as a missing
// or unparsable transaction, yields ErrVerificationFailed. Errors talking to
// the ledger are returned as-is so callers can report upstream trouble
// separately from a failed check.
func (v *PaymentVerifier) Verify(ctx context.Context, signature, recipient string, amount uint64, payer string) (*solanaledger.TransactionDetail, error) {
	detail, err := v.Ledger.TransactionDetail(ctx, signature)
	if err != nil {
		if errors.Is(err, solanaledger.ErrTxNotFound) {
			return nil, fmt.Errorf("%w: transaction not found", ErrVerificationFailed)
		}
		return nil, err
	}

	if detail.Failed {
		return nil, fmt.Errorf("%w: transaction failed on ledger", ErrVerificationFailed)
	}
	if detail.Program != solanaledger.SystemProgram {
		return nil, fmt.Errorf("%w: unexpected program", ErrVerificationFailed)
	}
	if detail.Destination == "" || detail.Destination != recipient {
		return nil, fmt.Errorf("%w: unexpected recipient", ErrVerificationFailed)
	}

	i := detail.DestinationIndex
	if i < 0 || i >= len(detail.PreBalances) || i >= len(detail.PostBalances) {
		return nil, fmt.Errorf("%w: balances unavailable", ErrVerificationFailed)
	}
	delta := int64(detail.PostBalances[i]) - int64(detail.PreBalances[i])
	if delta != int64(amount) {
		return nil, fmt.Errorf("%w: amount mismatch", ErrVerificationFailed)
	}

	if payer != "" {
		found := false
		for _, k := range detail.AccountKeys {
			if k == payer {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: payer not in transaction", ErrVerificationFailed)
		}
	}

	return detail, nil
}
