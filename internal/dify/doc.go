// Package dify provides a client for Dify workflow and chat applications.
// It runs workflows in blocking or streaming mode, turns the run stream into
// node progress events and a single terminal result, and classifies failures
// as transport errors (non-2xx answers) or protocol errors (answers that
// cannot be used).
//
// Each configured endpoint is a named workflow application with its own base
// URL and API key.
//
// Example usage:
//
//	client, err := dify.NewClient(map[string]dify.Endpoint{
//	    "review": {URL: "http://localhost/v1/workflows", APIKey: key},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	outputs, err := client.RunStreaming(ctx, "review", dify.Inputs{"content": text},
//	    dify.StreamOptions{OnProgress: func(ev dify.ProgressEvent) {
//	        fmt.Println(ev.NodeTitle, ev.Status)
//	    }}, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
package dify
