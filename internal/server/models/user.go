package models

// User is an account scoped to one site.
type User struct {
	SiteName string
	Username string
	// PasswordHash is an encoded argon2id hash, never the plaintext.
	PasswordHash string
}
