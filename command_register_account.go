package onboard

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

type RegisterAccountMessage struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	UseHashid bool   `json:"-"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FullName, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(MinPasswordLength, 0)),
		validation.Field(&e.Phone, validation.By(validateOptionalPhone)),
	)
}

func validateOptionalPhone(value any) error {
	raw, _ := value.(string)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if _, err := phonenumbers.Parse(raw, "US"); err != nil {
		return validation.NewError("validation_phone", "must be a valid phone number")
	}
	return nil
}

// RegisterAccountHandler creates new accounts. Every account starts out
// PENDING and stays there until an admin decides.
type RegisterAccountHandler struct {
	repo         RepositoryManager
	activitySink ActivitySink
	logger       Logger
}

func NewRegisterAccountHandler(repo RepositoryManager) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:         repo,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}
}

func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activitySink = normalizeActivitySink(sink)
	return h
}

func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) (*Account, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		email := strings.ToLower(strings.TrimSpace(event.Email))

		if existing, err := h.repo.Accounts().GetByIdentifierTx(ctx, tx, email); err == nil && existing != nil {
			taken := ErrEmailTaken.Clone()
			taken.Source = ErrEmailTaken
			return taken.WithMetadata(map[string]any{"email": email})
		} else if err != nil && !goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account.PasswordHash = hash
		account.Email = email
		account.FullName = strings.TrimSpace(event.FullName)
		account.Phone = normalizePhone(event.Phone)
		account.Role = RoleUser
		account.Status = StatusPending
		if event.UseHashid {
			if id, err := hashid.NewUUID(email); err == nil {
				account.ID = id
			}
		}

		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	h.recordRegistered(ctx, account)

	return account, nil
}

func (h *RegisterAccountHandler) recordRegistered(ctx context.Context, account *Account) {
	event := ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		Actor:     ActorRef{ID: account.ID.String(), Type: "account", Role: account.Role},
		AccountID: account.ID.String(),
		ToStatus:  account.Status,
		Metadata:  map[string]any{"email": account.Email},
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := h.activitySink.Record(ctx, event); err != nil {
		h.logger.Warn("activity sink record error: %v", err)
	}
}

// normalizePhone stores phone numbers in E.164 when they parse, and keeps
// the raw input otherwise so nothing typed by the user is silently lost.
func normalizePhone(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(trimmed, "US")
	if err != nil {
		return trimmed
	}

	return phonenumbers.Format(parsed, phonenumbers.E164)
}
