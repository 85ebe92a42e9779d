package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shandysiswandi/otpgate/internal/app"
)

// @title           OTPGate API
// @version         1.0
// @description     OTPGate issues and verifies one-time email codes that gate registration, login and order confirmation.
// @contact.name    Contact Support
// @contact.email   support@otpgate.local
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	application, err := app.New()
	if err != nil {
		slog.Error("failed to start application", "error", err)
		return 1
	}

	code := 0
	if err := application.Run(ctx); err != nil {
		slog.Error("http server stopped unexpectedly", "error", err)
		code = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout())
	defer cancel()
	application.Stop(shutdownCtx)

	return code
}
