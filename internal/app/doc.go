// Package app provides the application service layer.
//
// Orchestrates use cases: per-user analysis, mood history, alert status, statistics and resets.
// Sits between HTTP handlers and the sentiment core. Depends on domain interfaces, not concrete implementations.
package app
