package credentials

// Credential is the password row joined to its active user.
type Credential struct {
	UserID       string
	PasswordHash string
	HashVersion  string
}
