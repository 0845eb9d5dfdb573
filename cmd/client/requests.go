package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storacha/sizetracker/internal/failure"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Ask the service to record a size sample of its bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.Context(), http.MethodPost, "/sample")
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Ask the service to render and upload the size plot",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd.Context(), http.MethodGet, "/plot")
	},
}

func call(ctx context.Context, method, path string) error {
	url := strings.TrimRight(viper.GetString("service_url"), "/") + path

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	client := &http.Client{Timeout: viper.GetDuration("timeout")}
	log.Debugf("%s %s", method, url)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var res failure.Response
		if err := json.Unmarshal(body, &res); err == nil && res.Kind != "" {
			return fmt.Errorf("%s: %s (HTTP %d)", res.Kind, res.Message, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(os.Stdout)
	return err
}
