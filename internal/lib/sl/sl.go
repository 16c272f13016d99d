// Package sl содержит вспомогательные функции для работы с логгером slog.
package sl

import (
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/users-api/internal/subscription"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
// Для nil возвращает пустой атрибут, который slog пропускает.
//
// Пример:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Upstream возвращает группу с кодом и телом ответа сервиса подписок,
// если ошибка его содержит, иначе пустой атрибут.
func Upstream(err error) slog.Attr {
	var upstream *subscription.UpstreamError
	if !errors.As(err, &upstream) {
		return slog.Attr{}
	}
	return slog.Group("upstream",
		slog.Int("status", upstream.StatusCode),
		slog.String("body", upstream.Body),
	)
}
