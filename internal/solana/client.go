// Package solanaledger wraps the Solana JSON-RPC client behind a small,
// test-friendly surface. Services depend on the Ledger interface and the
// neutral detail types here; only the concrete Client touches the network.
//
// The wrapper exposes exactly what the actions need: the latest blockhash for
// building unsigned transactions, finalized transaction details for payment
// verification, fee estimation, and the signature/token-account reads used by
// the wallet analyzer.
package solanaledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SystemProgram is the base58 ID of the system (native transfer) program.
// Payment verification accepts transfers through this program only.
var SystemProgram = solana.SystemProgramID.String()

// SignatureInfo is one entry of an address's transaction history.
type SignatureInfo struct {
	Signature string
	Memo      string
}

// TransactionDetail is the decoded view of a finalized transaction that the
// payment verifier inspects. Balances are in lamports, indexed in the same
// order as AccountKeys.
type TransactionDetail struct {
	// Failed is true when the ledger recorded an execution error.
	Failed bool
	// Program is the base58 program ID of the first instruction.
	Program string
	// Destination is the base58 key of the first instruction's second
	// account, which for a system transfer is the funds recipient.
	Destination string
	// DestinationIndex is that account's position in AccountKeys.
	DestinationIndex int
	// AccountKeys lists every account referenced by the transaction.
	AccountKeys []string
	// PreBalances / PostBalances are the lamport balances of AccountKeys
	// before and after execution.
	PreBalances  []uint64
	PostBalances []uint64
}

// Ledger is the read/build surface services depend on.
type Ledger interface {
	// LatestBlockhash returns a recent blockhash usable in a new transaction.
	LatestBlockhash(ctx context.Context) (string, error)
	// TransactionDetail fetches a finalized transaction by base58 signature.
	// A missing transaction yields ErrTxNotFound.
	TransactionDetail(ctx context.Context, signature string) (*TransactionDetail, error)
	// FeeForMessage estimates the fee in lamports for a base64 message.
	FeeForMessage(ctx context.Context, messageBase64 string) (uint64, error)
	// SignaturesForAddress returns up to limit recent signatures for account.
	SignaturesForAddress(ctx context.Context, account string, limit int) ([]SignatureInfo, error)
	// TokenAccountCount returns how many SPL token accounts account owns.
	TokenAccountCount(ctx context.Context, account string) (int, error)
}

// ErrTxNotFound reports that the ledger has no record of a signature, e.g.
// because the transaction is not yet confirmed.
var ErrTxNotFound = fmt.Errorf("transaction not found")

// Client implements Ledger over a JSON-RPC endpoint.
type Client struct {
	rpc *rpc.Client
}

// NewClient dials the given RPC endpoint URL.
func NewClient(endpoint string) *Client {
	return &Client{rpc: rpc.New(endpoint)}
}

// LatestBlockhash implements Ledger.
func (c *Client) LatestBlockhash(ctx context.Context) (string, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}
	return out.Value.Blockhash.String(), nil
}

// TransactionDetail implements Ledger.
func (c *Client) TransactionDetail(ctx context.Context, signature string) (*TransactionDetail, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("parse signature: %w", err)
	}

	maxVersion := uint64(0)
	res, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if res == nil || res.Transaction == nil {
		return nil, ErrTxNotFound
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}

	detail := &TransactionDetail{
		Failed:           res.Meta != nil && res.Meta.Err != nil,
		DestinationIndex: -1,
	}
	for _, k := range tx.Message.AccountKeys {
		detail.AccountKeys = append(detail.AccountKeys, k.String())
	}
	if res.Meta != nil {
		detail.PreBalances = res.Meta.PreBalances
		detail.PostBalances = res.Meta.PostBalances
	}

	if len(tx.Message.Instructions) > 0 {
		inst := tx.Message.Instructions[0]
		if int(inst.ProgramIDIndex) < len(detail.AccountKeys) {
			detail.Program = detail.AccountKeys[inst.ProgramIDIndex]
		}
		// Account layout of a system transfer: [source, destination].
		if len(inst.Accounts) > 1 && int(inst.Accounts[1]) < len(detail.AccountKeys) {
			detail.DestinationIndex = int(inst.Accounts[1])
			detail.Destination = detail.AccountKeys[inst.Accounts[1]]
		}
	}
	return detail, nil
}

// FeeForMessage implements Ledger.
func (c *Client) FeeForMessage(ctx context.Context, messageBase64 string) (uint64, error) {
	res, err := c.rpc.GetFeeForMessage(ctx, messageBase64, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("get fee for message: %w", err)
	}
	if res == nil || res.Value == nil {
		return 0, fmt.Errorf("fee unavailable for message")
	}
	return *res.Value, nil
}

// SignaturesForAddress implements Ledger.
func (c *Client) SignaturesForAddress(ctx context.Context, account string, limit int) ([]SignatureInfo, error) {
	pk, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return nil, fmt.Errorf("parse account: %w", err)
	}
	sigs, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, pk, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}
	out := make([]SignatureInfo, 0, len(sigs))
	for _, s := range sigs {
		info := SignatureInfo{Signature: s.Signature.String()}
		if s.Memo != nil {
			info.Memo = *s.Memo
		}
		out = append(out, info)
	}
	return out, nil
}

// TokenAccountCount implements Ledger.
func (c *Client) TokenAccountCount(ctx context.Context, account string) (int, error) {
	pk, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return 0, fmt.Errorf("parse account: %w", err)
	}
	tokenProgram := solana.TokenProgramID
	res, err := c.rpc.GetTokenAccountsByOwner(ctx, pk,
		&rpc.GetTokenAccountsConfig{ProgramId: &tokenProgram},
		&rpc.GetTokenAccountsOpts{Commitment: rpc.CommitmentFinalized},
	)
	if err != nil {
		return 0, fmt.Errorf("get token accounts: %w", err)
	}
	if res == nil {
		return 0, nil
	}
	return len(res.Value), nil
}
