// Package state provides a lightweight FSM/session manager for Telegram bots.
// Sessions live in memory, are keyed by Telegram user id and are evicted
// after an idle timeout or when the manager grows past its size bound.
package state
