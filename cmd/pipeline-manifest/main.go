// Package main renders the customer pipeline declarations as a YAML
// manifest for the managed pipeline runtime.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/skyler-myers-db/data-api-serving/internal/pipeline"
)

func main() {
	out := flag.String("out", "", "write the manifest to this file instead of stdout")
	flag.Parse()

	p := pipeline.Customers()
	if err := p.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid pipeline: %v\n", err)
		os.Exit(1)
	}
	data, err := p.RenderYAML()
	if err != nil {
		fmt.Fprintf(os.Stderr, "render manifest: %v\n", err)
		os.Exit(1)
	}

	if *out == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", *out, len(data))
}
