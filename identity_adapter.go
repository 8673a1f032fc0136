package onboard

// AccountIdentity adapts an Account into the Identity interface for token generation.
type AccountIdentity struct {
	account *Account
}

// NewAccountIdentity returns an Identity adapter for the provided account.
func NewAccountIdentity(account *Account) Identity {
	if account == nil {
		return nil
	}
	return AccountIdentity{account: account}
}

// ID returns the account's ID as a string.
func (a AccountIdentity) ID() string {
	if a.account == nil {
		return ""
	}
	return a.account.ID.String()
}

// Email returns the account's email address.
func (a AccountIdentity) Email() string {
	if a.account == nil {
		return ""
	}
	return a.account.Email
}

// FullName returns the account holder's name.
func (a AccountIdentity) FullName() string {
	if a.account == nil {
		return ""
	}
	return a.account.FullName
}

// Role returns the account's role as a string.
func (a AccountIdentity) Role() string {
	if a.account == nil {
		return ""
	}
	return string(a.account.Role)
}

// Status returns the account's lifecycle status.
func (a AccountIdentity) Status() AccountStatus {
	if a.account == nil {
		return ""
	}
	return a.account.Status
}
