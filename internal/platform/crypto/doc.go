// Package crypto encrypts user data before it is written to a store.
//
// Mood history and crisis records are sealed as JSON documents with AES-256-GCM.
// NoopService keeps them in plaintext when no ENCRYPTION_KEY is configured.
package crypto
