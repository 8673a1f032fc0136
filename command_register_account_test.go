package onboard_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	onboard "github.com/goliatone/go-onboard"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validRegistration() onboard.RegisterAccountMessage {
	return onboard.RegisterAccountMessage{
		FullName: "Pat Example",
		Email:    "Pat@Example.COM",
		Phone:    "(212) 555-0100",
		Password: "super-secret",
	}
}

func notFoundErr() error {
	return errors.New("account not found", errors.CategoryNotFound)
}

func TestRegisterAccountValidation(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*onboard.RegisterAccountMessage)
	}{
		{"missing full name", func(e *onboard.RegisterAccountMessage) { e.FullName = "" }},
		{"invalid email", func(e *onboard.RegisterAccountMessage) { e.Email = "not-an-email" }},
		{"missing email", func(e *onboard.RegisterAccountMessage) { e.Email = "" }},
		{"short password", func(e *onboard.RegisterAccountMessage) { e.Password = "short" }},
		{"invalid phone", func(e *onboard.RegisterAccountMessage) { e.Phone = "abc" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event := validRegistration()
			tc.mutate(&event)

			handler := onboard.NewRegisterAccountHandler(fakeRepoManager{accounts: &MockAccounts{}})

			_, err := handler.Execute(context.Background(), event)
			require.Error(t, err)

			var richErr *errors.Error
			require.ErrorAs(t, err, &richErr)
			assert.Equal(t, errors.CategoryValidation, richErr.Category)
		})
	}
}

func TestRegisterAccountDuplicateEmail(t *testing.T) {
	existing := &onboard.Account{ID: uuid.New(), Email: "pat@example.com"}

	accounts := &MockAccounts{}
	accounts.On("GetByIdentifierTx", mock.Anything, mock.Anything, "pat@example.com").
		Return(existing, nil)

	handler := onboard.NewRegisterAccountHandler(fakeRepoManager{accounts: accounts})

	_, err := handler.Execute(context.Background(), validRegistration())
	require.Error(t, err)
	assert.ErrorIs(t, err, onboard.ErrEmailTaken)

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, "pat@example.com", richErr.Metadata["email"])

	accounts.AssertExpectations(t)
}

func TestRegisterAccountSuccess(t *testing.T) {
	var captured *onboard.Account
	created := &onboard.Account{ID: uuid.New(), Email: "pat@example.com", Status: onboard.StatusPending}

	accounts := &MockAccounts{}
	accounts.On("GetByIdentifierTx", mock.Anything, mock.Anything, "pat@example.com").
		Return(nil, notFoundErr())
	accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.AnythingOfType("*onboard.Account")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(*onboard.Account)
		}).
		Return(created, nil)

	sink := &MockActivitySink{}
	sink.On("Record", mock.Anything, mock.MatchedBy(func(event onboard.ActivityEvent) bool {
		return event.EventType == onboard.ActivityEventAccountRegistered &&
			event.AccountID == created.ID.String() &&
			event.ToStatus == onboard.StatusPending
	})).Return(nil)

	handler := onboard.NewRegisterAccountHandler(fakeRepoManager{accounts: accounts}).
		WithActivitySink(sink)

	result, err := handler.Execute(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.Equal(t, created, result)

	require.NotNil(t, captured)
	assert.Equal(t, "pat@example.com", captured.Email)
	assert.Equal(t, "Pat Example", captured.FullName)
	assert.Equal(t, "+12125550100", captured.Phone)
	assert.Equal(t, onboard.RoleUser, captured.Role)
	assert.Equal(t, onboard.StatusPending, captured.Status)
	assert.NoError(t, onboard.ComparePasswordAndHash("super-secret", captured.PasswordHash))

	accounts.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestRegisterAccountHashidDeterministicID(t *testing.T) {
	var captured *onboard.Account

	accounts := &MockAccounts{}
	accounts.On("GetByIdentifierTx", mock.Anything, mock.Anything, "pat@example.com").
		Return(nil, notFoundErr())
	accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.AnythingOfType("*onboard.Account")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(*onboard.Account)
		}).
		Return(&onboard.Account{}, nil)

	handler := onboard.NewRegisterAccountHandler(fakeRepoManager{accounts: accounts})

	event := validRegistration()
	event.UseHashid = true

	_, err := handler.Execute(context.Background(), event)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.NotEqual(t, uuid.Nil, captured.ID)
}

func TestRegisterAccountPersistenceFailure(t *testing.T) {
	accounts := &MockAccounts{}
	accounts.On("GetByIdentifierTx", mock.Anything, mock.Anything, "pat@example.com").
		Return(nil, notFoundErr())
	accounts.On("RegisterTx", mock.Anything, mock.Anything, mock.AnythingOfType("*onboard.Account")).
		Return(nil, errors.New("constraint violated", errors.CategoryConflict))

	handler := onboard.NewRegisterAccountHandler(fakeRepoManager{accounts: accounts})

	_, err := handler.Execute(context.Background(), validRegistration())
	require.Error(t, err)

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, errors.CategoryConflict, richErr.Category)
}

func TestRegisterAccountCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := onboard.NewRegisterAccountHandler(fakeRepoManager{accounts: &MockAccounts{}})

	_, err := handler.Execute(ctx, validRegistration())
	require.Error(t, err)

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, errors.CategoryOperation, richErr.Category)
}
