// Package state provides a lightweight FSM/session manager for Telegram bots.
// Sessions hold the current conversation step plus a per-user bag of string fields,
// and live either in process memory or in Redis.
package state
