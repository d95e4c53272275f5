// Package main walks a customer query page by page and prints the results.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/skyler-myers-db/data-api-serving/pkg/servingclient"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "serving endpoint base URL")
	token := flag.String("token", os.Getenv("SERVING_AUTH_TOKEN"), "bearer token")
	selectCSV := flag.String("select", "customer_id,name,email", "comma-separated columns")
	filtersJSON := flag.String("filters", "", "filters as a JSON object")
	limit := flag.Int("limit", 5, "page size")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	flag.Parse()

	var filters map[string]any
	if *filtersJSON != "" {
		if err := json.Unmarshal([]byte(*filtersJSON), &filters); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -filters: %v\n", err)
			os.Exit(1)
		}
	}

	client := servingclient.NewClient(&servingclient.Config{
		BaseURL:     *url,
		BearerToken: *token,
		Timeout:     *timeout,
	})

	pager := client.Pages(servingclient.Query{
		Select:  *selectCSV,
		Filters: filters,
		Limit:   *limit,
	})

	ctx := context.Background()
	n := 1
	for pager.Next(ctx) {
		page := pager.Page()
		fmt.Printf("\nPage %d (count=%d, has_more=%v)\n", n, page.Count, page.HasMore)
		out, _ := json.MarshalIndent(page.Items, "", "  ")
		fmt.Println(string(out))
		n++
	}
	if err := pager.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "walk failed: %v\n", err)
		os.Exit(1)
	}
}
