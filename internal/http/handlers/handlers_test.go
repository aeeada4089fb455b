package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dappshunt/actions-backend/internal/actions"
	"github.com/dappshunt/actions-backend/internal/domain"
	"github.com/dappshunt/actions-backend/internal/services"
	solanaledger "github.com/dappshunt/actions-backend/internal/solana"
)

const (
	payerAddr     = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	testSig       = "5j7s88Kq8ccaa7P4JsTPrAYBhPvaZ7Rk6v1wsoqSEYSBUxnnnD1cBYdeyzGz4vYPp1gC8rsdcbYKzrq8939MLTzt"
	testBlockhash = "GfVcyD4kkTrj4bKc7WA9sZCin9JDbdT4Zkd3EittNR1W"
)

// ---------- stubs ----------

type stubLedger struct {
	blockhash    string
	blockhashErr error
	fee          uint64
	feeErr       error
}

func (s *stubLedger) LatestBlockhash(context.Context) (string, error) {
	if s.blockhashErr != nil {
		return "", s.blockhashErr
	}
	if s.blockhash == "" {
		return testBlockhash, nil
	}
	return s.blockhash, nil
}

func (s *stubLedger) TransactionDetail(context.Context, string) (*solanaledger.TransactionDetail, error) {
	return nil, solanaledger.ErrTxNotFound
}

func (s *stubLedger) FeeForMessage(context.Context, string) (uint64, error) {
	if s.feeErr != nil {
		return 0, s.feeErr
	}
	if s.fee == 0 {
		return 5000, nil
	}
	return s.fee, nil
}

func (s *stubLedger) SignaturesForAddress(context.Context, string, int) ([]solanaledger.SignatureInfo, error) {
	return nil, nil
}

func (s *stubLedger) TokenAccountCount(context.Context, string) (int, error) {
	return 0, nil
}

type stubCoupons struct {
	issue    func(ctx context.Context, account string) (*domain.Coupon, error)
	activate func(ctx context.Context, sig string) (*domain.Coupon, error)
}

func (s stubCoupons) Issue(ctx context.Context, account string) (*domain.Coupon, error) {
	if s.issue != nil {
		return s.issue(ctx, account)
	}
	return &domain.Coupon{Code: "ABCD1234WXYZ", Status: domain.CouponPending}, nil
}

func (s stubCoupons) ActivateOnPayment(ctx context.Context, sig string) (*domain.Coupon, error) {
	if s.activate != nil {
		return s.activate(ctx, sig)
	}
	return &domain.Coupon{Code: "ABCD1234WXYZ", Status: domain.CouponActive}, nil
}

type stubAnalyzer struct {
	report *services.WalletReport
	err    error
}

func (s stubAnalyzer) Analyze(context.Context, string) (*services.WalletReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

type stubJobs struct{ err error }

func (s stubJobs) Submit(context.Context, string, string) (*domain.JobSubmission, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.JobSubmission{WalletAddress: payerAddr}, nil
}

type stubMatcher struct {
	msg string
	err error
}

func (s stubMatcher) FindBuddy(context.Context, services.MatchProfile) (string, error) {
	return s.msg, s.err
}

type stubMachine struct {
	reply    string
	lastChat int64
	lastText string
}

func (s *stubMachine) Handle(_ context.Context, chatID int64, text string) string {
	s.lastChat = chatID
	s.lastText = text
	return s.reply
}

type stubSender struct {
	sent []string
	err  error
}

func (s *stubSender) Send(_ int64, text string) error {
	s.sent = append(s.sent, text)
	return s.err
}

// ---------- harness ----------

func newTestHandlers() (*Handlers, *stubMachine, *stubSender) {
	machine := &stubMachine{reply: "ok"}
	sender := &stubSender{}
	h := &Handlers{
		Coupons:            stubCoupons{},
		Analyzer:           stubAnalyzer{report: &services.WalletReport{Avatar: "Solana Newbie"}},
		Jobs:               stubJobs{},
		Matcher:            stubMatcher{msg: "No match found yet."},
		Machine:            machine,
		Sender:             sender,
		Ledger:             &stubLedger{},
		Recipient:          "2KsTX7z6AFR5cMjNuiWmrBSPHPk3F3tb7K5Fw14iek3t",
		PaymentLamports:    5_800_000,
		AnalyzeFeeLamports: 1_000_000,
	}
	return h, machine, sender
}

func newEngine(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/actions.json", Manifest)
	r.GET("/api/actions/coupon", h.CouponDescriptor)
	r.POST("/api/actions/coupon", h.CouponAction)
	r.OPTIONS("/api/actions/coupon", ActionOptions)
	r.GET("/api/actions/analyze", h.AnalyzeDescriptor)
	r.POST("/api/actions/analyze", h.AnalyzeAction)
	r.GET("/api/actions/job", h.JobDescriptor)
	r.POST("/api/actions/job", h.JobAction)
	r.GET("/api/actions/hackathon", h.HackathonDescriptor)
	r.POST("/api/actions/hackathon", h.HackathonAction)
	r.GET("/api/webhook", WebhookStatus)
	r.POST("/api/webhook", h.Webhook)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return v
}

// ---------- manifest ----------

func TestManifest(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodGet, "/actions.json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO = %q", got)
	}
	m := decode[actions.Manifest](t, w)
	if len(m.Rules) == 0 {
		t.Fatal("manifest has no rules")
	}
	found := false
	for _, rule := range m.Rules {
		if rule.PathPattern == "/coupon" && rule.APIPath == "/api/actions/coupon" {
			found = true
		}
	}
	if !found {
		t.Fatalf("coupon rule missing: %+v", m.Rules)
	}
}

// ---------- coupon ----------

func TestCouponDescriptor(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodGet, "/api/actions/coupon", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	d := decode[actions.GetResponse](t, w)
	if d.Title != "Generate Coupon" {
		t.Fatalf("title = %q", d.Title)
	}
	if !strings.Contains(d.Description, "0.0058 SOL") {
		t.Fatalf("description does not render the price: %q", d.Description)
	}
}

func TestCouponAction_IssuesAndReturnsTransaction(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/coupon", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	resp := decode[actions.PostResponse](t, w)
	if resp.Transaction == "" {
		t.Fatal("missing transaction")
	}
	if want := "Your coupon code is: ABCD1234WXYZ"; resp.Message != want {
		t.Fatalf("message = %q, want %q", resp.Message, want)
	}
}

func TestCouponAction_InvalidAccount(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/coupon", actions.PostRequest{Account: "not-an-address"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	e := decode[ErrorResponse](t, w)
	if e.Code != ErrCodeInvalidAccount {
		t.Fatalf("code = %q", e.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatal("protocol CORS headers must survive error paths")
	}
}

func TestCouponAction_IssueExhausted(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Coupons = stubCoupons{issue: func(context.Context, string) (*domain.Coupon, error) {
		return nil, services.ErrExhaustedRetries
	}}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/coupon", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeIssueFailed {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestCouponAction_IssueStorageError(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Coupons = stubCoupons{issue: func(context.Context, string) (*domain.Coupon, error) {
		return nil, errors.New("disk full")
	}}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/coupon", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeIssueFailed {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestCouponWebhook_ActivatesCoupon(t *testing.T) {
	h, _, _ := newTestHandlers()
	var activated string
	h.Coupons = stubCoupons{activate: func(_ context.Context, sig string) (*domain.Coupon, error) {
		activated = sig
		return &domain.Coupon{Code: "FEEDC0DE2222", Status: domain.CouponActive}, nil
	}}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/coupon?webhook=true", WebhookActivateRequest{Signature: testSig})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if resp := decode[WebhookActivateResponse](t, w); resp.Code != "FEEDC0DE2222" {
		t.Fatalf("code = %q", resp.Code)
	}
	if activated != testSig {
		t.Fatalf("activated sig = %q", activated)
	}
}

func TestCouponWebhook_VerificationFailed(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Coupons = stubCoupons{activate: func(context.Context, string) (*domain.Coupon, error) {
		return nil, services.ErrVerificationFailed
	}}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/coupon?webhook=true", WebhookActivateRequest{Signature: testSig})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeVerificationFailed {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestCouponWebhook_MissingSignature(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/coupon?webhook=true", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestActionOptions_Preflight(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodOptions, "/api/actions/coupon", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Fatalf("allow-methods = %q", got)
	}
}

// ---------- analyze ----------

func TestAnalyzeAction(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Analyzer = stubAnalyzer{report: &services.WalletReport{
		Avatar: "DeFi Explorer",
		Traits: []string{"High transaction volume", "Engaged in decentralized finance"},
	}}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/analyze", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	resp := decode[actions.PostResponse](t, w)
	if !strings.Contains(resp.Message, "Your wallet avatar is: DeFi Explorer") {
		t.Fatalf("message = %q", resp.Message)
	}
	if !strings.Contains(resp.Message, "- Engaged in decentralized finance") {
		t.Fatalf("traits missing from message: %q", resp.Message)
	}
	if resp.Transaction == "" {
		t.Fatal("missing fee transaction")
	}
}

func TestAnalyzeAction_LedgerDown(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Analyzer = stubAnalyzer{err: errors.New("rpc timeout")}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/analyze", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
}

// ---------- job ----------

func TestJobAction_Submits(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Ledger = &stubLedger{fee: 5000}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/job?profileLink=https://github.com/octocat", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	resp := decode[actions.PostResponse](t, w)
	if !strings.Contains(resp.Message, "Estimated transaction fee: 0.000005 SOL") {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestJobAction_MissingProfileLink(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/job", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestJobAction_DuplicateWallet(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Jobs = stubJobs{err: services.ErrProfileExists}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/job?profileLink=https://github.com/octocat", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d", w.Code)
	}
	if e := decode[ErrorResponse](t, w); e.Code != ErrCodeConflict {
		t.Fatalf("code = %q", e.Code)
	}
}

func TestJobAction_InvalidLink(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Jobs = stubJobs{err: services.ErrInvalidProfileLink}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/job?profileLink=https://example.com/me", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

// ---------- hackathon ----------

func TestHackathonAction_ReturnsMatchMessage(t *testing.T) {
	h, _, _ := newTestHandlers()
	h.Matcher = stubMatcher{msg: "Match found! Your hackathon buddy is user123 (Backend)."}
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/hackathon?input=frontend:me42:find:backend", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	resp := decode[actions.PostResponse](t, w)
	if !strings.Contains(resp.Message, "Match found!") {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestHackathonAction_BadInputFormat(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/actions/hackathon?input=garbage", actions.PostRequest{Account: payerAddr})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

// ---------- telegram webhook ----------

type tgUpdate struct {
	UpdateID int        `json:"update_id"`
	Message  *tgMessage `json:"message,omitempty"`
}

type tgMessage struct {
	MessageID int    `json:"message_id"`
	Text      string `json:"text"`
	Chat      tgChat `json:"chat"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

func TestWebhookStatus(t *testing.T) {
	h, _, _ := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodGet, "/api/webhook", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Webhook is active") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestWebhook_DispatchesToMachineAndSends(t *testing.T) {
	h, machine, sender := newTestHandlers()
	machine.reply = "Please enter your 12-character coupon code."
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/webhook", tgUpdate{
		UpdateID: 1,
		Message:  &tgMessage{MessageID: 10, Text: "/redeem", Chat: tgChat{ID: 77}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if machine.lastChat != 77 || machine.lastText != "/redeem" {
		t.Fatalf("machine got chat=%d text=%q", machine.lastChat, machine.lastText)
	}
	if len(sender.sent) != 1 || sender.sent[0] != machine.reply {
		t.Fatalf("sent = %v", sender.sent)
	}
}

func TestWebhook_IgnoresNonTextUpdates(t *testing.T) {
	h, machine, sender := newTestHandlers()
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/webhook", tgUpdate{UpdateID: 2})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if machine.lastChat != 0 || len(sender.sent) != 0 {
		t.Fatal("non-text update must not reach the machine or sender")
	}
}

func TestWebhook_SendFailureStillAcks(t *testing.T) {
	h, _, sender := newTestHandlers()
	sender.err = errors.New("telegram 502")
	r := newEngine(h)

	w := doJSON(t, r, http.MethodPost, "/api/webhook", tgUpdate{
		UpdateID: 3,
		Message:  &tgMessage{MessageID: 11, Text: "hello", Chat: tgChat{ID: 5}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, webhook must ack to stop Bot API retries", w.Code)
	}
}
