// Package services – AnalyzeService
//
// Wallet analysis heuristics: a wallet's recent transaction history and token
// holdings are summarized into an avatar label and trait list. Purely
// read-only against the ledger.
package services

import (
	"context"
	"strings"

	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

// WalletReport is the outcome of analyzing one wallet.
type WalletReport struct {
	Avatar           string   `json:"avatar"`
	Traits           []string `json:"traits"`
	TransactionCount int      `json:"transaction_count"`
	TokenCount       int      `json:"token_count"`
}

// AnalyzeService derives a wallet avatar from on-chain activity.
type AnalyzeService struct {
	// Ledger is the read surface for history and token accounts.
	Ledger solanaledger.Ledger
	// HistoryLimit caps how many recent signatures are inspected; values
	// <= 0 fall back to 100.
	HistoryLimit int
}

// Analyze inspects the account's recent signatures and token accounts and
// assigns an avatar. Later rules override earlier ones, so the most specific
// observed behavior names the avatar while every matched rule contributes a
// trait.
func (s *AnalyzeService) Analyze(ctx context.Context, account string) (*WalletReport, error) {
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = 100
	}

	sigs, err := s.Ledger.SignaturesForAddress(ctx, account, limit)
	if err != nil {
		return nil, err
	}
	tokens, err := s.Ledger.TokenAccountCount(ctx, account)
	if err != nil {
		return nil, err
	}

	report := &WalletReport{
		Avatar:           "Solana Newbie",
		Traits:           []string{},
		TransactionCount: len(sigs),
		TokenCount:       tokens,
	}

	if len(sigs) >= 50 {
		report.Avatar = "Active Hunter"
		report.Traits = append(report.Traits, "High transaction volume")
	}
	if tokens > 5 {
		report.Avatar = "Token Collector"
		report.Traits = append(report.Traits, "Diverse token portfolio")
	}
	if countMemoMatches(sigs, "nft", "metaplex") > 0 {
		report.Avatar = "NFT Enthusiast"
		report.Traits = append(report.Traits, "Interested in digital collectibles")
	}
	if countMemoMatches(sigs, "swap", "yield", "farm") > 0 {
		report.Avatar = "DeFi Explorer"
		report.Traits = append(report.Traits, "Engaged in decentralized finance")
	}

	return report, nil
}

// countMemoMatches counts signatures whose memo contains any of the given
// substrings, case-insensitively.
func countMemoMatches(sigs []solanaledger.SignatureInfo, subs ...string) int {
	n := 0
	for _, s := range sigs {
		memo := strings.ToLower(s.Memo)
		if memo == "" {
			continue
		}
		for _, sub := range subs {
			if strings.Contains(memo, sub) {
				n++
				break
			}
		}
	}
	return n
}
