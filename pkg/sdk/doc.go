// Package docdedup is a Go client for the docdedup ingestion service.
//
// The client talks to the HTTP API exposed by cmd/docdedup: PDF uploads
// with near-duplicate rejection, record listings and campaign metadata.
//
//	client, _ := docdedup.New("http://localhost:5000", docdedup.WithAPIKey(key))
//	res, err := client.Upload(ctx, "paper.pdf", pdf, "0xabc")
//	if err != nil {
//	    return err
//	}
//	if res.Duplicate != nil {
//	    log.Printf("rejected: %.3f similar to %s", res.Duplicate.Score, res.Duplicate.Filename)
//	}
//
// Failed requests return *APIError, which unwraps to the package sentinels
// so callers can use errors.Is(err, docdedup.ErrNotFound).
package docdedup
