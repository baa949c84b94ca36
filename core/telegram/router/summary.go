package router

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/12farit21/nosql-telegram-bot/core/logger"
	tghelpers "github.com/12farit21/nosql-telegram-bot/core/telegram/helpers"
	"github.com/12farit21/nosql-telegram-bot/core/telegram/netutil"
)

type summaryOpt func(*[]slog.Attr)

func withKey(action string) summaryOpt {
	return func(a *[]slog.Attr) { *a = append(*a, slog.String("cb_key", action)) }
}

func withReason(reason string) summaryOpt {
	return func(a *[]slog.Attr) { *a = append(*a, slog.String("reason", reason)) }
}

// observe runs h under name and logs handler.handled with the outcome, the
// reply count and the duration. A nil h is logged as skipped.
func observe(c tele.Context, name string, h tele.HandlerFunc, opts ...summaryOpt) error {
	ctx := tghelpers.WithHandler(c, name)
	start := time.Now()

	var err error
	status := "skip"
	if h != nil {
		status = "ok"
		if err = h(c); err != nil {
			status = "fail"
		}
	}

	messages, kb := tghelpers.Replies(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcomeOf(status)),
		slog.Int("messages", messages),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(start)),
	}
	for _, o := range opts {
		o(&attrs)
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(netutil.Redact(err), 256)),
			slog.String("err_code", errCode(err)),
		)
		logger.Warn(ctx, "tg", "handler.handled", attrs...)
		return err
	}
	logger.Info(ctx, "tg", "handler.handled", attrs...)
	return nil
}

func outcomeOf(status string) string {
	if status == "fail" {
		return "fail"
	}
	return "ok"
}

// errCode prefers a domain code exposed through Code() and falls back to the
// transport classification.
func errCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return strings.ToUpper(code)
		}
	}
	return strings.ToUpper(string(netutil.Classify(err)))
}

func handlerName(name string) string {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/"))
	if name == "" {
		return "unknown"
	}
	return strings.ReplaceAll(name, " ", "_")
}
