// Package state persists the conversation position of every chat.
//
// A session is one label per chat id with last-write-wins semantics. Stores
// are built once at startup and shared by all update handlers, so every
// implementation is safe for concurrent use.
package state
