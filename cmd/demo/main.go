// Command demo sends a signed webhook delivery to a running relay and
// prints the reply. Useful for smoke-testing a local stack:
//
//	go run ./cmd/mock-backend &
//	PARLEY_BACKEND_URL=http://localhost:9090 PARLEY_MODEL=mock-model \
//	  PARLEY_WEBHOOK_SECRET=demo-secret go run ./cmd/server &
//	go run ./cmd/demo -message "hello"
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/parleyhq/parley/pkg/webhook"
)

func main() {
	url := flag.String("url", "http://localhost:8080/webhook", "webhook endpoint")
	secret := flag.String("secret", "demo-secret", "shared HMAC secret")
	userID := flag.String("user", "demo-user", "user identifier")
	message := flag.String("message", "Hello, parley!", "message to send")
	flag.Parse()

	if err := run(*url, *secret, *userID, *message); err != nil {
		fmt.Fprintln(os.Stderr, "demo failed:", err)
		os.Exit(1)
	}
}

func run(url, secret, userID, message string) error {
	body, err := json.Marshal(webhook.Delivery{UserID: userID, Message: message})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(secret, body))

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay returned %d: %s", resp.StatusCode, raw)
	}

	var reply webhook.Reply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("decoding reply: %w", err)
	}

	fmt.Printf("user:  %s\n", message)
	fmt.Printf("reply: %s\n", reply.Reply)
	return nil
}
