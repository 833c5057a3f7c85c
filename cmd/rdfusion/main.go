// Package main is the entry point for the rdfusion CLI.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/simpleflo/rdfusion/internal/config"
)

var (
	// Version is set at build time.
	Version = "dev"
	// BuildTime is set at build time.
	BuildTime = "unknown"
)

// client talks to rdfusion-daemon over its unix socket.
type client struct {
	httpClient *http.Client
	baseURL    string
}

func newClient(socketPath string) *client {
	return &client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return net.Dial("unix", socketPath)
				},
			},
			Timeout: 2 * time.Minute,
		},
		baseURL: "http://localhost",
	}
}

func (c *client) post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rdfusion-daemon unreachable (is it running?): %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

var socketPath string

type chatResponse struct {
	Response       string             `json:"response"`
	ContextQuality float64            `json:"context_quality"`
	StageTiming    map[string]float64 `json:"stage_timing"`
	Error          string             `json:"error"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "rdfusion",
		Short:   "rdfusion - multi-source R&D retrieval orchestrator CLI",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
	}

	defaultSocket := defaultSocketPath()
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", defaultSocket, "Unix socket path for daemon communication")

	rootCmd.AddCommand(chatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultSocketPath() string {
	cfg := config.DefaultConfig()
	return cfg.SocketPath
}

func chatCmd() *cobra.Command {
	var sessionID string
	var level string
	var entityTypes []string
	var stream bool

	cmd := &cobra.Command{
		Use:   "chat <query>",
		Short: "Send a query to the retrieval orchestrator and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			c := newClient(socketPath)
			reqBody := map[string]interface{}{
				"query":        query,
				"session_id":   sessionID,
				"level":        level,
				"entity_types": entityTypes,
			}

			path := "/v1/chat"
			if stream {
				path = "/v1/chat/stream"
			}

			data, err := c.post(cmd.Context(), path, reqBody)
			if err != nil {
				return err
			}

			if stream {
				fmt.Println(string(data))
				return nil
			}

			var resp chatResponse
			if err := json.Unmarshal(data, &resp); err != nil {
				fmt.Println(string(data))
				return nil
			}
			if resp.Error != "" {
				fmt.Fprintln(os.Stderr, "error:", resp.Error)
			}
			fmt.Println(resp.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (default: random)")
	cmd.Flags().StringVar(&level, "level", "general", "Audience level tier")
	cmd.Flags().StringSliceVar(&entityTypes, "entity", nil, "Restrict to these entity types")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream progress events over SSE")

	return cmd
}
