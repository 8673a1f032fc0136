package onboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidTransition = "INVALID_STATUS_TRANSITION"
	textCodeTerminalStatus    = "TERMINAL_STATUS"
)

// ErrInvalidTransition is returned when a requested status change is not
// allowed, including any attempt to move a resolved (approved or rejected)
// account. Resolved statuses are terminal.
var ErrInvalidTransition = goerrors.New("invalid account status transition", goerrors.CategoryConflict).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeConflict)

// ErrTerminalState is returned when a transition starts from a resolved
// status. It unwraps to ErrInvalidTransition so callers checking for the
// broader class still match.
var ErrTerminalState = func() *goerrors.Error {
	terminal := goerrors.New("account status is terminal", goerrors.CategoryConflict).
		WithTextCode(textCodeTerminalStatus).
		WithCode(goerrors.CodeConflict)
	terminal.Source = ErrInvalidTransition
	return terminal
}()

// ActorRef identifies who/what triggered a transition.
type ActorRef struct {
	ID   string
	Type string
	Role AccountRole
}

// IsAdmin reports whether the actor carries the admin role.
func (a ActorRef) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor   ActorRef
	Account *Account
	From    AccountStatus
	To      AccountStatus
	Meta    TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionHookPhase identifies whether a hook ran before or after persistence.
type TransitionHookPhase string

const (
	HookPhaseBefore TransitionHookPhase = "before_transition"
	HookPhaseAfter  TransitionHookPhase = "after_transition"
)

// TransitionOption customizes state machine behavior.
type TransitionOption func(*transitionOptions)

// AccountStateMachine defines approval lifecycle operations for accounts.
type AccountStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, account *Account, target AccountStatus, opts ...TransitionOption) (*Account, error)
	CurrentStatus(account *Account) AccountStatus
}

// HookErrorHandler handles errors surfaced by transition hooks.
type HookErrorHandler func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*accountStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *accountStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *accountStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineHookErrorHandler overrides how hook failures are propagated.
// Provide a handler to convert hook errors into domain-specific responses,
// otherwise the default handler panics with guidance for developers.
func WithStateMachineHookErrorHandler(handler HookErrorHandler) StateMachineOption {
	return func(sm *accountStateMachine) {
		if handler != nil {
			sm.hookErrorHandler = handler
		}
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *accountStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
// A non-empty reason is mandatory when the target status is rejected.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithBeforeTransitionHook adds a hook executed before the status update.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after the status update succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewAccountStateMachine returns the default implementation backed by the
// provided repository. The transition graph is intentionally small: a pending
// account is either approved or rejected, and both outcomes are final.
func NewAccountStateMachine(accounts Accounts, opts ...StateMachineOption) AccountStateMachine {
	sm := &accountStateMachine{
		accounts: accounts,
		transitions: map[AccountStatus]map[AccountStatus]struct{}{
			StatusPending: {
				StatusApproved: {},
				StatusRejected: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
		hookErrorHandler: func(ctx context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
			return defaultHookErrorHandler(ctx, phase, err, tc)
		},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type accountStateMachine struct {
	accounts         Accounts
	transitions      map[AccountStatus]map[AccountStatus]struct{}
	now              func() time.Time
	activitySink     ActivitySink
	logger           Logger
	hookErrorHandler HookErrorHandler
}

type transitionOptions struct {
	metadata    TransitionMetadata
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

func (o *transitionOptions) cloneMetadata() TransitionMetadata {
	var cloned map[string]any
	if len(o.metadata.Metadata) > 0 {
		cloned = make(map[string]any, len(o.metadata.Metadata))
		for k, v := range o.metadata.Metadata {
			cloned[k] = v
		}
	}

	return TransitionMetadata{
		Reason:   o.metadata.Reason,
		Metadata: cloned,
	}
}

func (sm *accountStateMachine) Transition(ctx context.Context, actor ActorRef, account *Account, target AccountStatus, opts ...TransitionOption) (*Account, error) {
	if account == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "account is nil",
		})
	}

	account.EnsureStatus()
	from := account.Status
	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	// NOTE: re-applying the current status is NOT a no-op. Two admins racing
	// on the same row must see exactly one success; the loser gets a conflict.
	if !sm.canTransition(from, target) {
		if from == StatusApproved || from == StatusRejected {
			return nil, ErrTerminalState.WithMetadata(map[string]any{
				"from": from,
				"to":   target,
			})
		}
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	options := sm.buildTransitionOptions(opts...)

	reason := strings.TrimSpace(options.metadata.Reason)
	if target == StatusRejected && reason == "" {
		return nil, ErrEmptyRejectionReason.WithMetadata(map[string]any{
			"account_id": account.ID.String(),
		})
	}

	ctxData := TransitionContext{
		Actor:   actor,
		Account: account,
		From:    from,
		To:      target,
		Meta:    options.cloneMetadata(),
	}

	if err := sm.runHooks(ctx, options.beforeHooks, ctxData, HookPhaseBefore); err != nil {
		return nil, err
	}

	statusOpts := sm.buildStatusOptions(target, reason)

	updated, err := sm.accounts.UpdateStatusIf(ctx, account.ID, from, target, statusOpts...)
	if err != nil {
		return nil, err
	}

	sm.applyUpdates(account, updated, target, reason)

	if err := sm.runHooks(ctx, options.afterHooks, ctxData, HookPhaseAfter); err != nil {
		return nil, err
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventAccountStatusChanged,
		Actor:      actor,
		AccountID:  account.ID.String(),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   sm.transitionMetadata(ctxData.Meta),
		OccurredAt: sm.now(),
	})

	return account, nil
}

func (sm *accountStateMachine) CurrentStatus(account *Account) AccountStatus {
	if account == nil {
		return ""
	}
	account.EnsureStatus()
	return account.Status
}

func (sm *accountStateMachine) runHooks(ctx context.Context, hooks []TransitionHook, data TransitionContext, phase TransitionHookPhase) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, data); err != nil {
			if sm.hookErrorHandler == nil {
				return err
			}
			return sm.hookErrorHandler(ctx, phase, err, data)
		}
	}
	return nil
}

func (sm *accountStateMachine) canTransition(from, to AccountStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *accountStateMachine) buildTransitionOptions(opts ...TransitionOption) *transitionOptions {
	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}
	return options
}

func (sm *accountStateMachine) buildStatusOptions(target AccountStatus, reason string) []StatusUpdateOption {
	if target == StatusRejected {
		return []StatusUpdateOption{WithRejectionReason(&reason)}
	}
	// approval clears any stale reason so the reason/status invariant holds
	return []StatusUpdateOption{WithRejectionReason(nil)}
}

func defaultHookErrorHandler(_ context.Context, phase TransitionHookPhase, err error, tc TransitionContext) error {
	panic(fmt.Sprintf(
		"go-onboard: %s transition hook failed: %v\nAccountID: %s from=%s to=%s reason=%s\nProvide onboard.WithStateMachineHookErrorHandler to customize error handling in production.",
		phase,
		err,
		tc.Account.ID,
		tc.From,
		tc.To,
		tc.Meta.Reason,
	))
}

func (sm *accountStateMachine) applyUpdates(account, updated *Account, target AccountStatus, reason string) {
	if updated != nil {
		if updated.Status != "" {
			account.Status = updated.Status
		} else {
			account.Status = target
		}
		account.RejectionReason = updated.RejectionReason
		return
	}

	account.Status = target
	if target == StatusRejected {
		account.SetRejection(reason)
	} else {
		account.ClearRejection()
	}
}

func (sm *accountStateMachine) transitionMetadata(meta TransitionMetadata) map[string]any {
	metadata := make(map[string]any, len(meta.Metadata)+1)
	for k, v := range meta.Metadata {
		metadata[k] = v
	}
	if meta.Reason != "" {
		metadata["reason"] = meta.Reason
	}
	return metadata
}

func (sm *accountStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if err := sm.activitySink.Record(ctx, event); err != nil {
		sm.logger.Warn("activity sink record error: %v", err)
	}
}
