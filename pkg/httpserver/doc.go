// Package httpserver runs an http.Handler with graceful shutdown and exposes
// liveness and readiness probe handlers.
//
// Run blocks until the context is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests within the configured shutdown timeout. Start and
// shutdown failures are reported wrapped in ErrStart and ErrShutdown.
//
//	srv := httpserver.New(
//		httpserver.WithAddr(":8080"),
//		httpserver.WithLogger(log),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Readiness takes a timeout and named checks and reports each one in a JSON body:
//
//	r.Get("/readyz", httpserver.Readiness(log, 2*time.Second,
//		httpserver.Check{Name: "postgres", Fn: pool.Ping},
//	))
package httpserver
