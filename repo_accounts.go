package onboard

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var updateAccountStatusIfSQL = `UPDATE "accounts" AS "acc"
SET
	"status" = ?,
	"rejection_reason" = ?,
	"updated_at" = ?
WHERE
	"acc"."deleted_at" IS NULL
AND "acc"."id" = ?
AND "acc"."status" = ?
RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)

	ListPending(ctx context.Context, page, perPage int) ([]*Account, int, error)
	CountByStatus(ctx context.Context, status AccountStatus) (int, error)

	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to AccountStatus, opts ...StatusUpdateOption) (*Account, error)
	UpdateStatusIfTx(ctx context.Context, tx bun.IDB, id uuid.UUID, from, to AccountStatus, opts ...StatusUpdateOption) (*Account, error)

	Approve(ctx context.Context, actor ActorRef, account *Account, opts ...TransitionOption) (*Account, error)
	Reject(ctx context.Context, actor ActorRef, account *Account, reason string, opts ...TransitionOption) (*Account, error)
}

type accounts struct {
	repository.Repository[*Account]
	db                  *bun.DB
	stateMachine        AccountStateMachine
	stateMachineOptions []StateMachineOption
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

type AccountsOption func(*accounts)

func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	repoAccounts := &accounts{
		Repository: repo,
		db:         db,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoAccounts)
		}
	}

	return repoAccounts
}

func WithAccountsStateMachineOptions(options ...StateMachineOption) AccountsOption {
	return func(a *accounts) {
		if len(options) == 0 {
			return
		}
		a.stateMachineOptions = append(a.stateMachineOptions, options...)
		a.stateMachine = nil
	}
}

func WithAccountsStateMachine(sm AccountStateMachine) AccountsOption {
	return func(a *accounts) {
		a.stateMachine = sm
	}
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	return a.CreateTx(ctx, tx, account)
}

func (a *accounts) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*Account, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *accounts) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*Account, error) {
	options := resolveAccountIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &Account{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListPending returns the review queue: accounts awaiting a decision, oldest
// registration first so reviewers work in arrival order. page starts at 1.
func (a *accounts) ListPending(ctx context.Context, page, perPage int) ([]*Account, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}

	records := []*Account{}
	total, err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", StatusPending).
		Order("created_at ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (a *accounts) CountByStatus(ctx context.Context, status AccountStatus) (int, error) {
	return a.db.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.status = ?", status).
		Count(ctx)
}

func (a *accounts) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to AccountStatus, opts ...StatusUpdateOption) (*Account, error) {
	return a.UpdateStatusIfTx(ctx, a.db, id, from, to, opts...)
}

// UpdateStatusIfTx performs the compare-and-set status write: the row is
// updated only when its current status still matches from. A concurrent
// decision that already moved the row off from makes this a zero-row update,
// reported as an invalid transition with the row's actual status.
func (a *accounts) UpdateStatusIfTx(ctx context.Context, tx bun.IDB, id uuid.UUID, from, to AccountStatus, opts ...StatusUpdateOption) (*Account, error) {
	scratch := &Account{ID: id, Status: to}
	for _, opt := range opts {
		if opt != nil {
			opt(scratch)
		}
	}

	res, err := a.Repository.RawTx(ctx, tx, updateAccountStatusIfSQL,
		to, scratch.RejectionReason, time.Now(), id.String(), from)
	if err != nil {
		return nil, err
	}

	if len(res) > 0 {
		return res[0], nil
	}

	// Zero rows: either the account is gone or someone else won the race.
	current, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		return nil, err
	}

	conflict := ErrInvalidTransition.Clone()
	conflict.Source = ErrInvalidTransition
	return nil, conflict.WithMetadata(map[string]any{
		"account_id":      id.String(),
		"expected_status": from,
		"current_status":  current.Status,
		"target_status":   to,
	})
}

func (a *accounts) Approve(ctx context.Context, actor ActorRef, account *Account, opts ...TransitionOption) (*Account, error) {
	return a.lifecycleMachine().Transition(ctx, actor, account, StatusApproved, opts...)
}

func (a *accounts) Reject(ctx context.Context, actor ActorRef, account *Account, reason string, opts ...TransitionOption) (*Account, error) {
	opts = append(opts, WithTransitionReason(reason))
	return a.lifecycleMachine().Transition(ctx, actor, account, StatusRejected, opts...)
}

// StatusUpdateOption allows callers to mutate the account record before persisting status changes.
type StatusUpdateOption func(*Account)

// WithRejectionReason sets (or clears) the rejection reason accompanying a
// status write.
func WithRejectionReason(reason *string) StatusUpdateOption {
	return func(a *Account) {
		a.RejectionReason = reason
	}
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleUser
	}

	record.EnsureStatus()
	record.Email = NormalizeEmail(record.Email)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveAccountIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 2)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  strings.ToLower(trimmed),
		})
	}

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

func (a *accounts) lifecycleMachine() AccountStateMachine {
	if a.stateMachine == nil {
		a.stateMachine = NewAccountStateMachine(a, a.stateMachineOptions...)
	}
	return a.stateMachine
}
