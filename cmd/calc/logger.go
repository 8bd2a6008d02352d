package main

import (
	"context"
	"io"
	"log/slog"
	"os"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// dualHandler пишет всё в основной вывод и дублирует ошибки в отдельный файл.
type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	if h.coreHandler.Enabled(ctx, r.Level) {
		err = h.coreHandler.Handle(ctx, r)
		if err != nil {
			return err
		}
	}

	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		// файл ошибок вторичен, его сбой не должен ронять основной лог
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func newCoreHandler(env string, out io.Writer) slog.Handler {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	if env == envDev {
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	}
	return slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
}

func newDualHandler(env string, out, errOut io.Writer) *dualHandler {
	return &dualHandler{
		coreHandler:  newCoreHandler(env, out),
		errorHandler: slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelError}),
	}
}

func setupLogger(env, errorsLog string) *slog.Logger {
	errorFile, err := os.OpenFile(errorsLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		slog.Warn("не удалось открыть файл ошибок", slog.String("path", errorsLog), slog.String("error", err.Error()))
		return slog.New(newCoreHandler(env, os.Stdout))
	}

	return slog.New(newDualHandler(env, os.Stdout, errorFile))
}
