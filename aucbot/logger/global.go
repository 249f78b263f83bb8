package logger

import (
	"log/slog"
)

// LogSweep logs settlement sweeper activity
func LogSweep(auctionID string, sold bool, err error) {
	attrs := []any{
		slog.String("type", "sweep"),
		slog.String("auction_id", auctionID),
		slog.Bool("sold", sold),
	}

	if err != nil {
		slog.Error("Settlement failed", append(attrs, slog.Any("error", err))...)
	} else {
		slog.Info("Auction settled", attrs...)
	}
}

// LogSystem logs system events
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
