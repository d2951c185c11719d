package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/adforge/internal/ports"
	"github.com/spf13/cobra"
)

func newKeyCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the Gemini API key",
	}

	cmd.AddCommand(newKeySetCmd(app), newKeyShowCmd(app), newKeyRemoveCmd(app))

	return cmd
}

func newKeySetCmd(app *app) *cobra.Command {
	var value string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the Gemini API key (pass first, file fallback)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if value == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no key given: pass --value or pipe the key on stdin")
				}
				value = line
			}
			value = strings.TrimSpace(value)
			if value == "" {
				return errors.New("api key is empty")
			}

			if err := app.secretStore.Put(cmd.Context(), ports.GeminiAPIKeyRef, value); err != nil {
				return fmt.Errorf("store api key: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "api key stored")
			return err
		},
	}

	cmd.Flags().StringVar(&value, "value", "", "API key value (read from stdin when empty)")

	return cmd
}

func newKeyShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored Gemini API key, masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, backend, err := app.secretStore.Lookup(cmd.Context(), ports.GeminiAPIKeyRef)
			if errors.Is(err, ports.ErrSecretNotFound) {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "no api key stored")
				return err
			}
			if err != nil {
				return fmt.Errorf("load api key: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", maskSecret(value), backend)
			return err
		},
	}
}

func newKeyRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the stored Gemini API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.secretStore.Delete(cmd.Context(), ports.GeminiAPIKeyRef); err != nil {
				return fmt.Errorf("remove api key: %w", err)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "api key removed")
			return err
		},
	}
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
