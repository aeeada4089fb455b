// Package solanaledger – unsigned transaction construction and input
// validation helpers. Building is pure given a blockhash; nothing here signs
// or submits anything.
package solanaledger

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// ValidateAddress parses a base58 wallet address, returning its canonical
// base58 form or an error for malformed input.
func ValidateAddress(account string) (string, error) {
	pk, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return "", fmt.Errorf("invalid account address: %w", err)
	}
	return pk.String(), nil
}

// ValidateSignature parses a base58 transaction signature, returning its
// canonical base58 form or an error for malformed input.
func ValidateSignature(signature string) (string, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return "", fmt.Errorf("invalid transaction signature: %w", err)
	}
	return sig.String(), nil
}

// UnsignedTransfer is a serialized, not-yet-signed transfer transaction ready
// to hand to a wallet.
type UnsignedTransfer struct {
	// TransactionBase64 is the wire transaction, base64-encoded, as expected
	// by Blink clients in an action POST response.
	TransactionBase64 string
	// MessageBase64 is the compiled message alone, usable for fee estimation.
	MessageBase64 string
}

// BuildTransfer constructs an unsigned system transfer of lamports from payer
// to recipient, with payer as fee payer. A zero-lamport self transfer
// (payer == recipient, lamports == 0) is the conventional no-op used by
// actions that only need the wallet to sign something.
func BuildTransfer(payer, recipient string, lamports uint64, blockhash string) (*UnsignedTransfer, error) {
	from, err := solana.PublicKeyFromBase58(payer)
	if err != nil {
		return nil, fmt.Errorf("invalid payer address: %w", err)
	}
	to, err := solana.PublicKeyFromBase58(recipient)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	hash, err := solana.HashFromBase58(blockhash)
	if err != nil {
		return nil, fmt.Errorf("invalid blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, from, to).Build(),
		},
		hash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	txB64, err := tx.ToBase64()
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	msgBytes, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize message: %w", err)
	}

	return &UnsignedTransfer{
		TransactionBase64: txB64,
		MessageBase64:     base64.StdEncoding.EncodeToString(msgBytes),
	}, nil
}
