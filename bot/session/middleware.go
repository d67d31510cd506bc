package session

import (
	"log/slog"

	"github.com/Obiajulu-gif/copperx-telegram/core/logger"
	tghelpers "github.com/Obiajulu-gif/copperx-telegram/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "copperx_session"

// Middleware serializes same-user updates and injects the session into the
// handler context. The lock is held for the whole update so a mutation
// started by event N completes before event N+1 for that user runs. The
// session is saved after the handler returns, even when it errors, since
// flows legitimately mutate state before reporting a failure.
func Middleware(store Store, locker *Locker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}
			userID := sender.ID

			unlock := locker.Lock(userID)
			defer unlock()

			ctx := tghelpers.BuildContext(c)
			sess, err := store.GetOrCreate(ctx, userID)
			if err != nil {
				logger.Error(ctx, "session", "session.load",
					slog.String("status", "fail"),
					slog.Int64("user_id", userID),
					slog.String("err", err.Error()),
				)
				return err
			}
			c.Set(contextKey, sess)

			handlerErr := next(c)

			if saveErr := store.Save(ctx, sess); saveErr != nil {
				logger.Error(ctx, "session", "session.save",
					slog.String("status", "fail"),
					slog.Int64("user_id", userID),
					slog.String("err", saveErr.Error()),
				)
				if handlerErr == nil {
					return saveErr
				}
			}
			return handlerErr
		}
	}
}

// FromContext returns the session injected by Middleware, or nil.
func FromContext(c tele.Context) *Session {
	if v := c.Get(contextKey); v != nil {
		if sess, ok := v.(*Session); ok {
			return sess
		}
	}
	return nil
}
