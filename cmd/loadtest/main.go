package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "Server base URL")
	concurrency := flag.Int("n", 50, "Number of concurrent search requests")
	prompt := flag.String("prompt", "Find CFOs who are hiring in fintech", "Prompt to submit")
	key := flag.String("key", "", "Value for the X-Backend-Key header")
	flag.Parse()

	payload, _ := json.Marshal(map[string]any{"prompt": *prompt, "max_candidates": 3, "include_linkedin": false})
	client := &http.Client{Timeout: 10 * time.Second}

	var wg sync.WaitGroup
	var ok, failed atomic.Int32
	start := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, *baseURL+"/api/search", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			if *key != "" {
				req.Header.Set("X-Backend-Key", *key)
			}

			resp, err := client.Do(req)
			if err != nil {
				failed.Add(1)
				fmt.Printf("[Req %d] Err: %v\n", id, err)
				return
			}
			defer resp.Body.Close()

			var body struct {
				RequestID string `json:"request_id"`
				Detail    string `json:"detail"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&body)
			if resp.StatusCode == http.StatusOK {
				ok.Add(1)
				fmt.Printf("[Req %d] Status %d request_id=%s\n", id, resp.StatusCode, body.RequestID)
			} else {
				failed.Add(1)
				fmt.Printf("[Req %d] Status %d detail=%q\n", id, resp.StatusCode, body.Detail)
			}
		}(i)
	}

	wg.Wait()
	fmt.Printf("\nCompleted %d requests in %v (%d ok, %d failed)\n", *concurrency, time.Since(start), ok.Load(), failed.Load())
}
