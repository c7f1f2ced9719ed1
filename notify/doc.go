// Package notify delivers verification links by email.
//
// [Outbox] implements goAccount.Notifier by pushing a JSON message onto a
// Redis list, so the account operation never waits on SMTP. [Worker] moves
// messages to a processing list, renders them with [Renderer] and hands the
// result to a [Sender]. Messages that keep failing are parked on a dead-letter
// list.
package notify
