// Smoke run against a live server: health, one prompt, two-step clear.
//
//	go run ./test -url http://localhost:8080 -prompt "Hello"
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	httpadapter "github.com/satriahrh/model-compare/adapters/http"
	"github.com/satriahrh/model-compare/domain"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	prompt := flag.String("prompt", "Hello", "prompt to compare")
	flag.Parse()

	fmt.Println("🚀 Starting compare smoke test...")

	// Three sequential model calls can take a while.
	client := &http.Client{Timeout: 3 * time.Minute}

	if err := call(client, http.MethodGet, *baseURL+"/api/v1/health", nil, http.StatusOK, nil); err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	fmt.Println("✅ Server healthy")

	var t domain.Turn
	start := time.Now()
	if err := call(client, http.MethodPost, *baseURL+"/api/v1/messages", map[string]string{"content": *prompt}, http.StatusCreated, &t); err != nil {
		log.Fatalf("Dispatch failed: %v", err)
	}
	fmt.Printf("⏱️  Turn %s completed in %v\n", t.ID, time.Since(start))
	for _, r := range t.Responses {
		status := "✅"
		if r.Failed || strings.HasPrefix(r.Content, domain.ErrorPrefix) {
			status = "❌"
		}
		fmt.Printf("%s %-10s %s\n", status, r.Label, firstLine(r.Content))
	}

	var cleared httpadapter.ClearResponse
	if err := call(client, http.MethodPost, *baseURL+"/api/v1/history/clear", nil, http.StatusAccepted, &cleared); err != nil {
		log.Fatalf("Clear request failed: %v", err)
	}
	if !cleared.Pending || cleared.Turns == 0 {
		log.Fatalf("Clear request did not arm: %+v", cleared)
	}
	fmt.Printf("🗑️  Clear armed, %d turns still stored\n", cleared.Turns)

	if err := call(client, http.MethodPost, *baseURL+"/api/v1/history/clear/confirm", nil, http.StatusOK, &cleared); err != nil {
		log.Fatalf("Clear confirm failed: %v", err)
	}
	if cleared.Turns != 0 {
		log.Fatalf("History not cleared: %+v", cleared)
	}
	fmt.Println("✅ Compare smoke test completed successfully!")
}

func call(client *http.Client, method, url string, in any, wantStatus int, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %v", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %v", err)
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if len(line) > 80 {
		line = line[:77] + "..."
	}
	return line
}
