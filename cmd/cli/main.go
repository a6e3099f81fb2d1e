package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rampcore-cli",
		Short: "RampCore CLI tool",
		Long:  `A command line interface for interacting with the RampCore API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the RampCore API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(limitsCmd(), balanceCmd(), orderCmd(), withdrawCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func limitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "limits <user-id>",
		Short: "List a user's spending limits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/limits/?user_id=" + args[0])
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user-id>",
		Short: "Show a user's aggregate USD balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/limits/balance?user_id=" + args[0])
		},
	}
}

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Offramp order operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <order-id>",
		Short: "Show an order's current status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/orders/" + args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "poll <order-id>",
		Short: "Poll an order until it reaches a terminal status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/orders/"+args[0]+"/poll", nil)
		},
	})

	return cmd
}

func withdrawCmd() *cobra.Command {
	var (
		userID    string
		reference string
		amount    string
		token     string
	)

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Allocate a fiat withdrawal across spending limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postJSON("/api/v1/withdrawals", map[string]any{
				"user_id":   userID,
				"reference": reference,
				"amount":    amount,
				"token":     token,
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&reference, "reference", "", "Idempotency reference")
	cmd.Flags().StringVar(&amount, "amount", "", "Fiat amount to withdraw")
	cmd.Flags().StringVar(&token, "token", "", "Token symbol (optional)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("reference")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func getJSON(path string) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	return render(resp)
}

func postJSON(path string, payload any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	return render(resp)
}

func render(resp *http.Response) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		fmt.Println(string(raw))
	} else {
		printJSON(parsed)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
