// This is a **mock authentication service**, designed to provide JWT tokens
// for the company service, simulating user authentication.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/timeoverseer/overseer/internal/company/auth"
	"go.uber.org/zap"
)

const (
	defaultPort   = 8081         // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
	issuer        = "auth-service"
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)

	root := &cobra.Command{
		Use:   "authentication",
		Short: "Issues JWT tokens for the company service",
	}
	root.PersistentFlags().StringVar(&secret, "secret", secretFromEnv(), "HS256 signing secret (env JWT_SECRET)")
	root.PersistentFlags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")

	var port int
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve tokens on GET /token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, _ := zap.NewProduction()
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveTokens(ctx, port, secret, ttl, logger)
		},
	}
	serve.Flags().IntVar(&port, "port", defaultPort, "listen port")

	issue := &cobra.Command{
		Use:   "issue [user-id]",
		Short: "Print a token for user-id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.GenerateToken(args[0], issuer, secret, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	root.AddCommand(serve, issue)
	return root
}

func secretFromEnv() string {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return secret
	}
	return defaultSecret
}

// tokenHandler generates a JWT and returns it in JSON response
func tokenHandler(secret string, ttl time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Simulate a user ID for the token
		userID := r.URL.Query().Get("user")
		if userID == "" {
			userID = "12345"
		}

		token, err := auth.GenerateToken(userID, issuer, secret, ttl)
		if err != nil {
			logger.Error("Failed to generate token", zap.Error(err))
			http.Error(w, "Failed to generate token", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(TokenResponse{Token: token}); err != nil {
			logger.Error("Failed to encode token", zap.Error(err))
		}
	}
}

func serveTokens(ctx context.Context, port int, secret string, ttl time.Duration, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/token", tokenHandler(secret, ttl, logger))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Authentication service running", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
