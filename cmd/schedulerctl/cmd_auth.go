package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Mr-Amresh/meeting-scheduler/internal/auth"
)

var authTimeout time.Duration

func init() {
	authCmd.Flags().DurationVar(&authTimeout, "timeout", 5*time.Minute, "how long to wait for the consent redirect")
	rootCmd.AddCommand(authCmd)
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Google Calendar access and save the token file",
	Args:  cobra.NoArgs,
	RunE:  runAuth,
}

type callbackResult struct {
	code string
	err  error
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}

	authenticator := auth.NewAuthenticator(cfg.GoogleCredentialsFile, cfg.GoogleTokenFile, log)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for redirect: %w", err)
	}
	redirectURL := fmt.Sprintf("http://%s/callback", listener.Addr())
	state := uuid.NewString()

	consentURL, err := authenticator.AuthCodeURL(redirectURL, state)
	if err != nil {
		listener.Close()
		return err
	}

	results := make(chan callbackResult, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- callbackResult{err: errors.New("state mismatch in redirect")}
		case q.Get("error") != "":
			http.Error(w, "authorization denied", http.StatusForbidden)
			results <- callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))}
		default:
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
			results <- callbackResult{code: q.Get("code")}
		}
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go server.Serve(listener)
	defer server.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Open this URL in your browser to authorize calendar access:")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  "+consentURL)
	fmt.Fprintln(out)

	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
	defer cancel()

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
	if res.err != nil {
		return res.err
	}

	if err := authenticator.Exchange(ctx, redirectURL, res.code); err != nil {
		return err
	}

	fmt.Fprintf(out, "Token saved to %s\n", cfg.GoogleTokenFile)
	return nil
}
