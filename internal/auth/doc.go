// Package auth implements account registration, credential checks, bearer
// tokens and the contribution list of an authenticated user.
//
// Service is the entry point. Its collaborators (a storage.UserStore, a
// PasswordHasher and a TokenManager) are injected by the caller. Errors
// returned by Service wrap one of the sentinels in errors.go and carry a
// public message suitable for API clients.
package auth
