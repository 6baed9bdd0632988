package service

import (
	"context"

	"github.com/dkharitonov/task_manager/internal/logging"
)

// Notifier is the outbound email collaborator. Every call is dispatched
// fire-and-forget; a failing notifier never fails the request that
// triggered it.
type Notifier interface {
	SendVerificationEmail(email, name, link string) error
	SendPasswordResetEmail(email, name, link string) error
	SendPasswordChangeEmail(email, name string) error
	SendAccountDeletionEmail(email, name string) error
}

// notifyAsync runs fn detached from the request. Errors and panics are
// logged in isolation so they cannot reach the handler.
func notifyAsync(ctx context.Context, kind string, fn func() error) {
	l := logging.FromContext(ctx)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				l.Error("notify_panic", "kind", kind, "panic", r)
			}
		}()
		if err := fn(); err != nil {
			l.Error("notify_failed", "kind", kind, "error", err)
		}
	}()
}
