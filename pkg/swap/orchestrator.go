package swap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"anonswap/pkg/activity"
	"anonswap/pkg/attest"
	"anonswap/pkg/journal"
	"anonswap/pkg/metrics"
	"anonswap/pkg/types"
	"anonswap/pkg/validator"
)

const (
	DefaultPollInterval   = 10 * time.Second
	DefaultSettleDelay    = 3 * time.Second
	DefaultDepositWindow  = 30 * time.Minute
	DefaultHandshakeDelay = 400 * time.Millisecond
)

var (
	// ErrBusy is returned by Submit while a run is in progress
	ErrBusy = errors.New("a swap is already in progress")

	// ErrReset is returned by Submit when the run was reset before the order came back
	ErrReset = errors.New("swap was reset")
)

var handshake = []string{
	"Connecting to relayer network...",
	"Establishing encrypted channel...",
	"Routing request through anonymity relays...",
	"Requesting swap order from exchange...",
}

// OrderCreationError wraps a remote rejection or network failure while
// creating the order. The orchestrator is back in Form when it is returned.
type OrderCreationError struct {
	Err error
}

func (e *OrderCreationError) Error() string {
	return "order creation failed: " + e.Err.Error()
}

func (e *OrderCreationError) Unwrap() error {
	return e.Err
}

// Exchange creates orders and reports their status
type Exchange interface {
	CreateSwapOrder(ctx context.Context, req types.OrderRequest) (*types.SwapOrder, error)
	GetSwapStatus(ctx context.Context, orderID string) (string, error)
}

// RequestValidator rejects requests before any network call
type RequestValidator interface {
	Validate(req types.SwapRequest, identitySecret string) error
}

// Attester produces and confirms swap attestations
type Attester interface {
	Commitment(secret string) (string, error)
	Attest(secret string, p attest.Params) (*attest.Attestation, error)
	ConfirmAsync(ctx context.Context, att *attest.Attestation, done func(error))
}

// Recorder is the durable swap journal
type Recorder interface {
	Append(ctx context.Context, e journal.Entry) error
	UpdateStatus(ctx context.Context, orderID, status string) error
	SetProofHash(ctx context.Context, orderID, proofHash string) error
}

// Config tunes the orchestrator's timings
type Config struct {
	PollInterval   time.Duration
	SettleDelay    time.Duration
	DepositWindow  time.Duration
	HandshakeDelay time.Duration

	// Now is the wall clock used for the deposit window
	Now func() time.Time

	// OnTransition, if set, is called with the orchestrator lock held after
	// every stage change. It must not call back into the orchestrator.
	OnTransition func(from, to Stage)
}

func (c *Config) setDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.DepositWindow <= 0 {
		c.DepositWindow = DefaultDepositWindow
	}
	if c.HandshakeDelay < 0 {
		c.HandshakeDelay = 0
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Deps are the orchestrator's collaborators. Metrics may be nil.
type Deps struct {
	Exchange  Exchange
	Validator RequestValidator
	Attester  Attester
	Journal   Recorder
	Activity  *activity.Log
	Metrics   *metrics.Metrics
}

// Orchestrator drives one swap at a time through its lifecycle. It is the
// only writer of the stage, the current order and its attestation; the
// poller, settle timer and attestation goroutines propose events tagged with
// the run generation they were started for, and stale proposals are dropped.
type Orchestrator struct {
	exchange  Exchange
	validator RequestValidator
	attester  Attester
	journal   Recorder
	log       *activity.Log
	metrics   *metrics.Metrics
	logger    *zap.Logger
	cfg       Config

	mu           sync.Mutex
	stage        Stage
	gen          uint64
	req          types.SwapRequest
	order        *types.SwapOrder
	att          *attest.Attestation
	lastStatus   string
	deadline     time.Time
	expiryWarned bool
	runCtx       context.Context
	runCancel    context.CancelFunc
	poll         *Task
	done         chan struct{}
	doneClosed   bool
}

// New creates an idle orchestrator in Form
func New(deps Deps, cfg Config, logger *zap.Logger) *Orchestrator {
	cfg.setDefaults()
	if deps.Activity == nil {
		deps.Activity = activity.NewLog(logger)
	}

	done := make(chan struct{})
	close(done)

	return &Orchestrator{
		exchange:   deps.Exchange,
		validator:  deps.Validator,
		attester:   deps.Attester,
		journal:    deps.Journal,
		log:        deps.Activity,
		metrics:    deps.Metrics,
		logger:     logger.Named("swap"),
		cfg:        cfg,
		stage:      StageForm,
		done:       done,
		doneClosed: true,
	}
}

// Activity returns the relayer activity log
func (o *Orchestrator) Activity() *activity.Log {
	return o.log
}

// Stage returns the current stage
func (o *Orchestrator) Stage() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stage
}

// Order returns a copy of the current order, or nil
func (o *Orchestrator) Order() *types.SwapOrder {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.order == nil {
		return nil
	}
	cp := *o.order
	return &cp
}

// Attestation returns a copy of the current order's attestation, or nil
func (o *Orchestrator) Attestation() *attest.Attestation {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.att == nil {
		return nil
	}
	cp := *o.att
	return &cp
}

// Deadline is the end of the deposit window, zero when no order exists
func (o *Orchestrator) Deadline() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deadline
}

// Remaining is the time left in the deposit window at now. It never goes
// below zero and is zero when no order exists.
func (o *Orchestrator) Remaining(now time.Time) time.Duration {
	o.mu.Lock()
	deadline := o.deadline
	o.mu.Unlock()

	if deadline.IsZero() {
		return 0
	}
	if left := deadline.Sub(now); left > 0 {
		return left
	}
	return 0
}

// Done is closed when the current run completes or is reset
func (o *Orchestrator) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Submit validates req and creates the exchange order. It returns once the
// order exists (stage DepositWaiting) or creation failed; polling and
// attestation continue in the background.
func (o *Orchestrator) Submit(ctx context.Context, req types.SwapRequest, secret string) (*types.SwapOrder, error) {
	o.mu.Lock()
	if o.stage != StageForm {
		o.mu.Unlock()
		return nil, ErrBusy
	}

	if err := o.validator.Validate(req, secret); err != nil {
		o.mu.Unlock()
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			o.metrics.ValidationFailed(string(ve.Reason))
		}
		return nil, err
	}

	o.log.Clear()
	o.gen++
	gen := o.gen
	o.runCtx, o.runCancel = context.WithCancel(context.Background())
	runCtx := o.runCtx
	o.done = make(chan struct{})
	o.doneClosed = false
	o.transitionLocked(EventSubmit)
	o.mu.Unlock()

	// The caller's ctx bounds the creation call; a Reset aborts it too.
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(runCtx, cancel)
	defer stop()

	order, err := o.createOrder(opCtx, req)
	if err != nil {
		o.metrics.OrderFailed()
		return nil, o.failCreation(gen, err)
	}

	return o.acceptOrder(gen, req, secret, order)
}

func (o *Orchestrator) createOrder(ctx context.Context, req types.SwapRequest) (*types.SwapOrder, error) {
	for _, msg := range handshake {
		o.log.Info(msg)
		if err := sleep(ctx, o.cfg.HandshakeDelay); err != nil {
			return nil, err
		}
	}

	order, err := o.exchange.CreateSwapOrder(ctx, types.NewOrderRequest(req))
	if err != nil {
		return nil, err
	}
	if order == nil || order.OrderID == "" || order.DepositAddress == "" {
		return nil, fmt.Errorf("exchange returned an incomplete order")
	}
	return order, nil
}

func (o *Orchestrator) failCreation(gen uint64, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.gen {
		return &OrderCreationError{Err: ErrReset}
	}

	o.logger.Warn("Swap order creation failed", zap.Error(err))
	o.log.Warning("Order creation failed: " + err.Error())

	o.transitionLocked(EventFailed)
	// The log stays so the failure remains visible in Form.
	o.teardownLocked()
	return &OrderCreationError{Err: err}
}

func (o *Orchestrator) acceptOrder(gen uint64, req types.SwapRequest, secret string, order *types.SwapOrder) (*types.SwapOrder, error) {
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = o.cfg.Now()
		order.CreatedAt = createdAt
	}

	// The order exists server-side even if the user reset meanwhile, so it is
	// journaled either way. The write happens before the lock is taken; the
	// poller that updates the entry is only started below.
	o.recordOrder(req, secret, order)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.gen {
		return nil, ErrReset
	}

	o.metrics.OrderCreated()
	o.req = req
	o.order = order
	o.lastStatus = ""
	o.deadline = createdAt.Add(o.cfg.DepositWindow)
	o.expiryWarned = false
	o.transitionLocked(EventOrderCreated)

	o.log.Success("Swap order created: " + order.OrderID)
	o.log.Info(fmt.Sprintf("Send %s %s to %s", order.DepositAmount, order.DepositCurrency, order.DepositAddress))
	o.logger.Info("Swap order created",
		zap.String("order_id", order.OrderID),
		zap.String("deposit_address", order.DepositAddress),
		zap.Time("deadline", o.deadline))

	task := newTask(o.runCtx)
	o.poll = task
	orderID := order.OrderID
	task.Go(func(ctx context.Context) { o.pollLoop(ctx, task, gen, orderID) })

	params := attest.Params{
		OrderID:   order.OrderID,
		FromChain: req.FromChain,
		FromToken: req.FromToken,
		ToChain:   req.ToChain,
		ToToken:   req.ToToken,
		Receiver:  req.ReceiverAddress,
		Amount:    req.Amount,
	}
	go o.attestAndConfirm(o.runCtx, gen, secret, params)

	cp := *order
	return &cp, nil
}

// recordOrder must be called without o.mu held
func (o *Orchestrator) recordOrder(req types.SwapRequest, secret string, order *types.SwapOrder) {
	if o.journal == nil {
		return
	}

	commitment, err := o.attester.Commitment(secret)
	if err != nil {
		o.logger.Warn("Could not derive identity commitment", zap.Error(err))
	}

	entry := journal.Entry{
		OrderID:            order.OrderID,
		IdentityCommitment: commitment,
		FromChain:          req.FromChain,
		FromToken:          req.FromToken,
		ToChain:            req.ToChain,
		ToToken:            req.ToToken,
		ReceiverAddress:    req.ReceiverAddress,
		Amount:             req.Amount,
		CreatedAt:          order.CreatedAt,
		Status:             order.Status,
	}
	if err := o.journal.Append(context.Background(), entry); err != nil {
		o.logger.Warn("Failed to journal swap order", zap.String("order_id", order.OrderID), zap.Error(err))
	}
}

func (o *Orchestrator) attestAndConfirm(ctx context.Context, gen uint64, secret string, p attest.Params) {
	att, err := o.attester.Attest(secret, p)

	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return
	}
	if err != nil {
		o.logger.Warn("Proof generation failed", zap.String("order_id", p.OrderID), zap.Error(err))
		o.log.Warning("Proof generation failed: " + err.Error())
		o.mu.Unlock()
		return
	}
	o.att = att
	o.log.Success("Swap parameters attested, proof " + shorten(att.ProofHash))
	o.log.Info("Submitting proof for confirmation...")
	o.mu.Unlock()

	if o.journal != nil {
		if err := o.journal.SetProofHash(context.Background(), p.OrderID, att.ProofHash); err != nil {
			o.logger.Warn("Failed to journal proof hash", zap.String("order_id", p.OrderID), zap.Error(err))
		}
	}

	o.attester.ConfirmAsync(ctx, att, func(err error) {
		o.metrics.ProofConfirmed(err)

		o.mu.Lock()
		defer o.mu.Unlock()
		if gen != o.gen {
			return
		}
		if err != nil {
			o.log.Warning("Proof confirmation failed: " + err.Error())
			return
		}
		o.log.Success("Proof confirmed")
	})
}

func (o *Orchestrator) pollLoop(ctx context.Context, task *Task, gen uint64, orderID string) {
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()
	countdown := time.NewTicker(time.Second)
	defer countdown.Stop()

	o.pollOnce(ctx, task, gen, orderID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// select picks among ready cases at random
			if ctx.Err() != nil {
				return
			}
			o.pollOnce(ctx, task, gen, orderID)
		case <-countdown.C:
			o.checkDeadline(gen)
		}
	}
}

func (o *Orchestrator) pollOnce(ctx context.Context, task *Task, gen uint64, orderID string) {
	started := time.Now()
	status, err := o.exchange.GetSwapStatus(ctx, orderID)
	o.metrics.Polled(time.Since(started), err)

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		o.logger.Warn("Status check failed", zap.String("order_id", orderID), zap.Error(err))
		o.mu.Lock()
		if gen == o.gen {
			o.log.Warning("Status check failed, retrying: " + err.Error())
		}
		o.mu.Unlock()
		return
	}

	o.observeStatus(task, gen, status)
}

// observeStatus applies a polled status. Only a change of status acts.
func (o *Orchestrator) observeStatus(task *Task, gen uint64, status string) {
	status = strings.ToLower(strings.TrimSpace(status))

	orderID, changed, completed := o.applyStatus(task, gen, status)
	if !changed {
		return
	}
	if o.journal != nil {
		if err := o.journal.UpdateStatus(context.Background(), orderID, status); err != nil {
			o.logger.Warn("Failed to journal status", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	// Done is closed only once the final status is journaled.
	if completed {
		o.mu.Lock()
		if gen == o.gen {
			o.closeDoneLocked()
		}
		o.mu.Unlock()
	}
}

// applyStatus updates the run for a new status and reports the order it
// applied to and whether the run just completed.
func (o *Orchestrator) applyStatus(task *Task, gen uint64, status string) (orderID string, changed, completed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.gen || o.order == nil {
		return "", false, false
	}
	if status == o.lastStatus || !isKnownStatus(status) {
		return "", false, false
	}
	if types.IsTerminalStatus(o.lastStatus) && !types.IsTerminalStatus(status) {
		return "", false, false
	}

	o.lastStatus = status
	o.order.Status = status
	orderID = o.order.OrderID
	o.logger.Debug("Exchange status changed",
		zap.String("order_id", orderID),
		zap.String("status", status),
		zap.Stringer("stage", o.stage))

	switch status {
	case types.StatusWaiting:
		o.log.Info("Waiting for deposit...")
	case types.StatusConfirming, types.StatusConfirmed, types.StatusExchanging:
		if o.transitionLocked(EventDepositSeen) {
			o.log.Success("Deposit detected, waiting for confirmations")
			task.Go(func(ctx context.Context) { o.settle(ctx, gen) })
			return orderID, true, false
		}
		o.log.Info("Exchange status: " + status)
	case types.StatusSending, types.StatusFinished:
		if o.transitionLocked(EventFinished) {
			o.log.Success("Swap complete, funds are on their way to " + shorten(o.req.ReceiverAddress))
			task.Cancel()
			return orderID, true, true
		}
	case types.StatusFailed, types.StatusRefunded, types.StatusExpired:
		o.log.Warning("Exchange reported status: " + status)
	}
	return orderID, true, false
}

func (o *Orchestrator) settle(ctx context.Context, gen uint64) {
	if err := sleep(ctx, o.cfg.SettleDelay); err != nil {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		return
	}
	if o.transitionLocked(EventSettled) {
		o.log.Info("Deposit confirmed, executing swap...")
	}
}

func (o *Orchestrator) checkDeadline(gen uint64) {
	now := o.cfg.Now()

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen || o.expiryWarned || o.stage != StageDepositWaiting || o.deadline.IsZero() {
		return
	}
	if now.Before(o.deadline) {
		return
	}

	o.expiryWarned = true
	o.log.Warning("Deposit window has expired; the exchange decides whether the order is still honoured")
	o.logger.Warn("Deposit window expired", zap.String("order_id", o.order.OrderID))
}

// Reset abandons the current run and returns to Form. Polling has stopped
// by the time it returns; an in-flight proof confirmation is left to finish
// but its result is ignored. Journal entries are kept.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.gen++
	o.transitionLocked(EventReset)
	task := o.teardownLocked()
	o.log.Clear()
	o.mu.Unlock()

	if task != nil {
		task.Stop()
	}
}

// teardownLocked clears the run state and returns the poll task for the
// caller to stop once the lock is released.
func (o *Orchestrator) teardownLocked() *Task {
	task := o.poll
	o.poll = nil
	if task != nil {
		task.Cancel()
	}
	if o.runCancel != nil {
		o.runCancel()
		o.runCancel = nil
	}
	o.req = types.SwapRequest{}
	o.order = nil
	o.att = nil
	o.lastStatus = ""
	o.deadline = time.Time{}
	o.expiryWarned = false
	o.closeDoneLocked()
	return task
}

func (o *Orchestrator) closeDoneLocked() {
	if !o.doneClosed {
		close(o.done)
		o.doneClosed = true
	}
}

// transitionLocked applies e and reports whether the stage changed
func (o *Orchestrator) transitionLocked(e Event) bool {
	next, ok := Next(o.stage, e)
	if !ok {
		return false
	}

	prev := o.stage
	o.stage = next
	o.metrics.Transition(prev.String(), next.String())
	o.logger.Debug("Stage transition",
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
		zap.Stringer("event", e))
	if o.cfg.OnTransition != nil {
		o.cfg.OnTransition(prev, next)
	}
	return true
}

func isKnownStatus(status string) bool {
	switch status {
	case types.StatusWaiting, types.StatusConfirming, types.StatusConfirmed, types.StatusExchanging,
		types.StatusSending, types.StatusFinished,
		types.StatusFailed, types.StatusRefunded, types.StatusExpired:
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func shorten(s string) string {
	if len(s) <= 18 {
		return s
	}
	return s[:10] + "..." + s[len(s)-6:]
}
