// Package fetch downloads source archives over HTTP(S).
//
// A [Fetcher] accepts only http and https URLs, applies a bounded timeout to
// the whole transfer, rejects non-2xx responses and caps the number of bytes
// written. The archive is written to a temporary file inside a directory
// supplied by the caller, who owns its removal.
//
// Example usage:
//
//	f := fetch.New(fetch.WithTimeout(2 * time.Minute))
//	path, err := f.Fetch(ctx, r.URL, scratch)
//	if err != nil {
//	    return err
//	}
//	defer os.Remove(path)
package fetch
