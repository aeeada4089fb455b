// Package session – redemption state machine.
//
// Transitions (per inbound text message, one conversation per chat):
//
//	Idle              + start command → AwaitingCoupon (prompt for code)
//	Idle              + anything else → help message, no state change
//	AwaitingCoupon    + text          → validate format, look up coupon;
//	                                    stay on failure, advance on success
//	AwaitingWallet    + text          → validate address; stay on failure
//	AwaitingSignature + text          → verify payment and mark coupon Used;
//	                                    on verification failure reset to Idle
//	                                    (restart, no partial retry)
//
// Upstream trouble (ledger or storage unavailable) keeps the current state so
// the user can simply try again later.
package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/dappshunt/actions-backend/internal/codegen"
	"github.com/dappshunt/actions-backend/internal/domain"
	"github.com/dappshunt/actions-backend/internal/services"
	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

// Coupons is the coupon surface the machine needs; *services.CouponService
// satisfies it.
type Coupons interface {
	Lookup(ctx context.Context, code string) (*domain.Coupon, error)
	Redeem(ctx context.Context, code, wallet, signature string) (*domain.Coupon, error)
}

// Conversation commands.
const (
	StartCommand  = "/redeem"
	CancelCommand = "/cancel"
)

// Machine drives redemption conversations. It is stateless itself; all
// per-user progress lives in Store.
type Machine struct {
	// Store holds in-flight sessions.
	Store Store
	// Coupons looks up and redeems coupons.
	Coupons Coupons
	// CollectWallet controls whether the wallet address step runs. When
	// false the machine goes straight from coupon to signature and the
	// payer check falls back to the coupon's recorded owner.
	CollectWallet bool
	// RewardURL is the artifact delivered on successful redemption.
	RewardURL string
}

// Fixed user-facing replies.
const (
	msgHelp          = "Send /redeem to redeem a coupon code."
	msgAskCoupon     = "Please enter your 12-character coupon code."
	msgAskWallet     = "Please enter the wallet address you paid with."
	msgAskSignature  = "Please enter the transaction signature of your payment."
	msgBadCoupon     = "Invalid coupon format. Please enter a valid 12-character coupon code."
	msgCouponMissing = "Coupon not found. Please check the code and try again."
	msgCouponUsed    = "This coupon has already been used."
	msgCouponExpired = "This coupon has expired."
	msgBadWallet     = "That does not look like a valid wallet address. Please try again."
	msgBadSignature  = "That does not look like a valid transaction signature. Please try again."
	msgVerifyFailed  = "Payment verification failed. If you just paid, wait for the transaction to confirm, then send /redeem to start over."
	msgCancelled     = "Redemption cancelled."
	msgUpstreamDown  = "Sorry, something went wrong on our side. Please try again in a moment."
)

// Handle processes one inbound message for chatID and returns the reply to
// send. It never returns an empty reply.
func (m *Machine) Handle(ctx context.Context, chatID int64, text string) string {
	if text == CancelCommand {
		m.Store.Delete(chatID)
		return msgCancelled
	}

	s, ok := m.Store.Get(chatID)
	if !ok {
		s = &Session{State: Idle}
	}

	switch s.State {
	case AwaitingCoupon:
		return m.onCoupon(ctx, chatID, s, text)
	case AwaitingWallet:
		return m.onWallet(chatID, s, text)
	case AwaitingSignature:
		return m.onSignature(ctx, chatID, s, text)
	default:
		return m.onIdle(chatID, text)
	}
}

func (m *Machine) onIdle(chatID int64, text string) string {
	if text != StartCommand {
		return msgHelp
	}
	m.Store.Put(chatID, &Session{State: AwaitingCoupon})
	return msgAskCoupon
}

func (m *Machine) onCoupon(ctx context.Context, chatID int64, s *Session, text string) string {
	code := codegen.Normalize(text)
	if !codegen.Valid(code) {
		return msgBadCoupon
	}

	_, err := m.Coupons.Lookup(ctx, code)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrCouponNotFound):
		return msgCouponMissing
	case errors.Is(err, services.ErrCouponUsed):
		return msgCouponUsed
	case errors.Is(err, services.ErrCouponExpired):
		return msgCouponExpired
	default:
		log.Error().Err(err).Int64("chat_id", chatID).Msg("coupon lookup failed")
		return msgUpstreamDown
	}

	s.Code = code
	if m.CollectWallet {
		s.State = AwaitingWallet
		m.Store.Put(chatID, s)
		return msgAskWallet
	}
	s.State = AwaitingSignature
	m.Store.Put(chatID, s)
	return msgAskSignature
}

func (m *Machine) onWallet(chatID int64, s *Session, text string) string {
	wallet, err := solanaledger.ValidateAddress(text)
	if err != nil {
		return msgBadWallet
	}
	s.Wallet = wallet
	s.State = AwaitingSignature
	m.Store.Put(chatID, s)
	return msgAskSignature
}

func (m *Machine) onSignature(ctx context.Context, chatID int64, s *Session, text string) string {
	sig, err := solanaledger.ValidateSignature(text)
	if err != nil {
		return msgBadSignature
	}

	_, err = m.Coupons.Redeem(ctx, s.Code, s.Wallet, sig)
	switch {
	case err == nil:
		m.Store.Delete(chatID)
		return "Coupon redeemed! Here is your report: " + m.RewardURL
	case errors.Is(err, services.ErrCouponUsed):
		m.Store.Delete(chatID)
		return msgCouponUsed
	case errors.Is(err, services.ErrCouponExpired):
		m.Store.Delete(chatID)
		return msgCouponExpired
	case errors.Is(err, services.ErrVerificationFailed):
		// Force a clean restart rather than retrying mid-conversation, so a
		// stale signature can never be replayed against a drifted session.
		m.Store.Delete(chatID)
		return msgVerifyFailed
	default:
		log.Error().Err(err).Int64("chat_id", chatID).Msg("redemption failed")
		return msgUpstreamDown
	}
}
