// Computes the Signature header for a webhook payload, for exercising the
// endpoint by hand:
//
//	go run tools/sign_webhook.go -secret s3cret -file payload.json
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"paybridge/internal/provider/whitepay"
)

func main() {
	secret := flag.String("secret", "", "webhook secret")
	file := flag.String("file", "-", "payload file, - for stdin")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "usage: sign_webhook -secret <secret> [-file payload.json]")
		os.Exit(2)
	}

	var body []byte
	var err error
	if *file == "-" {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(*file)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "read payload:", err)
		os.Exit(1)
	}

	fmt.Println(whitepay.Signature(body, *secret))
}
