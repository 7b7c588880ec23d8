package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"barista-web/pkg/common/config"
	"barista-web/pkg/core/registration/service"
)

// registerCmd posts one registration straight to the backend, bypassing the
// challenge and username check. Useful against a local backend.
func registerCmd() *cobra.Command {
	var (
		username, password, confirm, token string
		wait                               time.Duration
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Submit a single registration to the configured endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			c, err := newHTTPClient(cfg)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("confirm") {
				confirm = password
			}

			submitter := service.NewSubmitter(c, cfg.Backend.RegisterURL())
			sub := submitter.Submit(cmd.Context(), username, password, confirm, token)
			if sub == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "passwords do not match, nothing sent")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			out, err := sub.Wait(ctx)
			if err != nil {
				return fmt.Errorf("submission %s: %w", sub.ID, err)
			}
			if out.Err != nil {
				return fmt.Errorf("submission %s: %w", sub.ID, out.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submission %s: %d %s\n", sub.ID, out.StatusCode, out.Body)
			if !out.OK() {
				return fmt.Errorf("backend answered %d", out.StatusCode)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (defaults to --password)")
	cmd.Flags().StringVar(&token, "token", "", "challenge token passed through to the backend")
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for the backend's answer")
	return cmd
}
