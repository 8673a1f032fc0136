package onboard

import (
	"context"

	"github.com/goliatone/go-errors"
)

// AccountFinder is a store we can use to retrieve accounts
type AccountFinder interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Account, error)
}

// AccountProvider resolves identities against the accounts store. A failed
// lookup and a failed password compare both surface the same credential
// error so callers cannot probe which emails are registered.
type AccountProvider struct {
	store     AccountFinder
	Validator func(*Account) error
	logger    Logger
}

// NewAccountProvider will create a new AccountProvider
func NewAccountProvider(store AccountFinder) *AccountProvider {
	return &AccountProvider{
		store:     store,
		logger:    defLogger{},
		Validator: defaultAccountValidator,
	}
}

func (p *AccountProvider) WithLogger(l Logger) *AccountProvider {
	if l != nil {
		p.logger = l
	}
	return p
}

func (p *AccountProvider) validate(account *Account) error {
	if p.Validator != nil {
		return p.Validator(account)
	}
	return defaultAccountValidator(account)
}

// VerifyIdentity will find the account, compare the password, and return the
// identity. The account status is NOT checked here: a pending or rejected
// account still authenticates, and status gating happens where the identity
// is used.
func (p AccountProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	account, err := p.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during verification")
	}

	if account == nil {
		return nil, ErrIdentityNotFound
	}
	account.EnsureStatus()

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if err := p.validate(account); err != nil {
		return nil, err
	}

	return NewAccountIdentity(account), nil
}

func (p AccountProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	account, err := p.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if account == nil {
		return nil, ErrIdentityNotFound
	}
	account.EnsureStatus()

	if err := p.validate(account); err != nil {
		return nil, err
	}

	return NewAccountIdentity(account), nil
}

func defaultAccountValidator(a *Account) error {
	switch a.Role {
	case RoleUser, RoleAdmin:
		return nil
	default:
		return errors.New("account has an unknown or invalid role", errors.CategoryAuth).
			WithTextCode("INVALID_ROLE").
			WithMetadata(map[string]any{"role": a.Role, "account_id": a.ID.String()})
	}
}
