package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxReplyBytes caps how much of a provider reply is read
const maxReplyBytes = 4 << 20

// StatusError is a non-2xx reply from a provider API
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Detail)
}

// postJSON sends in as a JSON body and decodes a 2xx reply into out. For
// other statuses, explain turns the body into StatusError.Detail; when it
// returns "" the raw body is used.
func postJSON(ctx context.Context, client *http.Client, endpoint string, header http.Header, in, out any, explain func([]byte) string) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := ""
		if explain != nil {
			detail = explain(raw)
		}
		if detail == "" {
			detail = string(raw)
		}
		return &StatusError{Status: resp.StatusCode, Detail: detail}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}
