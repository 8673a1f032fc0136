package onboard

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ApproveAccountMessage struct {
	AccountID string   `json:"account_id"`
	Actor     ActorRef `json:"actor"`
}

func (e ApproveAccountMessage) Type() string { return "account.approve" }

type RejectAccountMessage struct {
	AccountID string   `json:"account_id"`
	Reason    string   `json:"reason"`
	Actor     ActorRef `json:"actor"`
}

func (e RejectAccountMessage) Type() string { return "account.reject" }

// ReviewAccountHandler applies admin decisions to pending accounts. The
// admin check lives here, not in the state machine: the machine enforces
// which transitions exist, this handler enforces who may request them.
type ReviewAccountHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewReviewAccountHandler(repo RepositoryManager) *ReviewAccountHandler {
	return &ReviewAccountHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *ReviewAccountHandler) WithLogger(logger Logger) *ReviewAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ReviewAccountHandler) Approve(ctx context.Context, event ApproveAccountMessage) (*Account, error) {
	if err := h.ensureAdmin(event.Actor); err != nil {
		return nil, err
	}

	return h.applyDecision(ctx, event.AccountID, func(ctx context.Context, account *Account) (*Account, error) {
		return h.repo.Accounts().Approve(ctx, event.Actor, account)
	})
}

func (h *ReviewAccountHandler) Reject(ctx context.Context, event RejectAccountMessage) (*Account, error) {
	if err := h.ensureAdmin(event.Actor); err != nil {
		return nil, err
	}

	if strings.TrimSpace(event.Reason) == "" {
		empty := ErrEmptyRejectionReason.Clone()
		empty.Source = ErrEmptyRejectionReason
		return nil, empty.WithMetadata(map[string]any{"account_id": event.AccountID})
	}

	return h.applyDecision(ctx, event.AccountID, func(ctx context.Context, account *Account) (*Account, error) {
		return h.repo.Accounts().Reject(ctx, event.Actor, account, event.Reason)
	})
}

func (h *ReviewAccountHandler) applyDecision(ctx context.Context, accountID string, decide func(context.Context, *Account) (*Account, error)) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account review",
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var updated *Account
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.repo.Accounts().GetByIdentifierTx(ctx, tx, accountID)
		if err != nil {
			return err
		}

		updated, err = decide(ctx, account)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account review transaction failed")
	}

	return updated, nil
}

func (h *ReviewAccountHandler) ensureAdmin(actor ActorRef) error {
	if actor.IsAdmin() {
		return nil
	}

	denied := ErrAdminRequired.Clone()
	denied.Source = ErrAdminRequired
	return denied.WithMetadata(map[string]any{
		"actor_id":   actor.ID,
		"actor_role": actor.Role,
	})
}
