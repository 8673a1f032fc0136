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

var reviewAdmin = onboard.ActorRef{ID: "admin-1", Type: "account", Role: onboard.RoleAdmin}

func TestReviewApproveRequiresAdmin(t *testing.T) {
	accounts := &MockAccounts{}
	handler := onboard.NewReviewAccountHandler(fakeRepoManager{accounts: accounts})

	actor := onboard.ActorRef{ID: "user-1", Type: "account", Role: onboard.RoleUser}
	_, err := handler.Approve(context.Background(), onboard.ApproveAccountMessage{
		AccountID: uuid.NewString(),
		Actor:     actor,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, onboard.ErrAdminRequired)

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, "user-1", richErr.Metadata["actor_id"])
	assert.Equal(t, onboard.RoleUser, richErr.Metadata["actor_role"])
}

func TestReviewRejectRequiresAdmin(t *testing.T) {
	handler := onboard.NewReviewAccountHandler(fakeRepoManager{accounts: &MockAccounts{}})

	_, err := handler.Reject(context.Background(), onboard.RejectAccountMessage{
		AccountID: uuid.NewString(),
		Reason:    "spam",
		Actor:     onboard.ActorRef{ID: "user-1", Role: onboard.RoleUser},
	})
	assert.ErrorIs(t, err, onboard.ErrAdminRequired)
}

func TestReviewRejectRequiresReason(t *testing.T) {
	handler := onboard.NewReviewAccountHandler(fakeRepoManager{accounts: &MockAccounts{}})

	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := handler.Reject(context.Background(), onboard.RejectAccountMessage{
			AccountID: uuid.NewString(),
			Reason:    reason,
			Actor:     reviewAdmin,
		})
		assert.ErrorIs(t, err, onboard.ErrEmptyRejectionReason)
	}
}

func TestReviewApprove(t *testing.T) {
	pending := &onboard.Account{ID: uuid.New(), Email: "pat@example.com", Status: onboard.StatusPending}
	approved := &onboard.Account{ID: pending.ID, Email: pending.Email, Status: onboard.StatusApproved}

	accounts := &MockAccounts{}
	accounts.On("GetByIdentifierTx", mock.Anything, mock.Anything, pending.ID.String()).
		Return(pending, nil)
	accounts.On("Approve", mock.Anything, reviewAdmin, pending).
		Return(approved, nil)

	handler := onboard.NewReviewAccountHandler(fakeRepoManager{accounts: accounts})

	updated, err := handler.Approve(context.Background(), onboard.ApproveAccountMessage{
		AccountID: pending.ID.String(),
		Actor:     reviewAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, onboard.StatusApproved, updated.Status)

	accounts.AssertExpectations(t)
}

func TestReviewReject(t *testing.T) {
	pending := &onboard.Account{ID: uuid.New(), Email: "pat@example.com", Status: onboard.StatusPending}
	rejected := &onboard.Account{ID: pending.ID, Email: pending.Email, Status: onboard.StatusRejected}
	rejected.SetRejection("duplicate signup")

	accounts := &MockAccounts{}
	accounts.On("GetByIdentifierTx", mock.Anything, mock.Anything, pending.ID.String()).
		Return(pending, nil)
	accounts.On("Reject", mock.Anything, reviewAdmin, pending, "duplicate signup").
		Return(rejected, nil)

	handler := onboard.NewReviewAccountHandler(fakeRepoManager{accounts: accounts})

	updated, err := handler.Reject(context.Background(), onboard.RejectAccountMessage{
		AccountID: pending.ID.String(),
		Reason:    "duplicate signup",
		Actor:     reviewAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, onboard.StatusRejected, updated.Status)
	require.NotNil(t, updated.RejectionReason)
	assert.Equal(t, "duplicate signup", *updated.RejectionReason)
}

func TestReviewApproveUnknownAccount(t *testing.T) {
	id := uuid.New()

	accounts := &MockAccounts{}
	accounts.On("GetByIdentifierTx", mock.Anything, mock.Anything, id.String()).
		Return(nil, errors.New("account not found", errors.CategoryNotFound))

	handler := onboard.NewReviewAccountHandler(fakeRepoManager{accounts: accounts})

	_, err := handler.Approve(context.Background(), onboard.ApproveAccountMessage{
		AccountID: id.String(),
		Actor:     reviewAdmin,
	})
	require.Error(t, err)

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, errors.CategoryNotFound, richErr.Category)
}

func TestReviewApproveTransitionConflict(t *testing.T) {
	resolved := &onboard.Account{ID: uuid.New(), Email: "pat@example.com", Status: onboard.StatusRejected}

	conflict := onboard.ErrInvalidTransition.Clone()
	conflict.Source = onboard.ErrInvalidTransition

	accounts := &MockAccounts{}
	accounts.On("GetByIdentifierTx", mock.Anything, mock.Anything, resolved.ID.String()).
		Return(resolved, nil)
	accounts.On("Approve", mock.Anything, reviewAdmin, resolved).
		Return(nil, conflict)

	handler := onboard.NewReviewAccountHandler(fakeRepoManager{accounts: accounts})

	_, err := handler.Approve(context.Background(), onboard.ApproveAccountMessage{
		AccountID: resolved.ID.String(),
		Actor:     reviewAdmin,
	})
	assert.ErrorIs(t, err, onboard.ErrInvalidTransition)
}

func TestReviewCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := onboard.NewReviewAccountHandler(fakeRepoManager{accounts: &MockAccounts{}})

	_, err := handler.Approve(ctx, onboard.ApproveAccountMessage{
		AccountID: uuid.NewString(),
		Actor:     reviewAdmin,
	})
	require.Error(t, err)

	var richErr *errors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, errors.CategoryOperation, richErr.Category)
}
