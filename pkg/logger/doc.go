// Package logger builds the service's *slog.Logger.
//
// New takes functional options (format, level, environment presets) and wraps
// the chosen handler so registered ContextExtractor callbacks run on every record. This is how request
// ids set by the HTTP middleware end up on every log line without threading
// them through call sites.
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.AppEnv, "quotekit"),
//	    logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
//	        id := middleware.GetReqID(ctx)
//	        return logger.RequestID(id), id != ""
//	    }),
//	)
//	log.InfoContext(ctx, "quote created", logger.UserID(userID), logger.QuoteID(q.ID))
//
// Attribute helpers (Error, UserID, QuoteID, EventType, ...) return an empty
// slog.Attr for nil input, so callers can log optional values without branching.
package logger
