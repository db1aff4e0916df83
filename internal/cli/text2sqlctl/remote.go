package text2sqlctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type remoteFlags struct {
	baseURL string
	apiKey  string
	timeout time.Duration
}

func askRemote(cmd *cobra.Command, opts Options, remote remoteFlags, question string) error {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: durationOr(remote.timeout, 2*time.Minute)}
	}
	apiKey := strings.TrimSpace(remote.apiKey)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("TEXT2SQL_API_KEY"))
	}

	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(remote.baseURL, "/") + "/v1/ask"
	code, responseBody, err := doRequest(cmd.Context(), client, http.MethodPost, endpoint, apiKey, body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if code >= 400 {
		return fmt.Errorf("http %d: %s", code, strings.TrimSpace(string(responseBody)))
	}
	_, _ = cmd.OutOrStdout().Write(responseBody)
	return nil
}

func doRequest(ctx context.Context, client *http.Client, method, url, apiKey string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}
