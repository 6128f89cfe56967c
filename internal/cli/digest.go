package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/cruciblehq/kiln/internal"
	"github.com/cruciblehq/kiln/internal/fetch"
	"github.com/cruciblehq/kiln/internal/pipeline"
	"github.com/cruciblehq/kiln/internal/verify"
)

// Represents the 'kiln digest' command.
type DigestCmd struct {
	Source       string        `arg:"" help:"Local file, or an http(s) URL to download." placeholder:"FILE|URL"`
	Algorithm    string        `short:"a" help:"Digest algorithm." enum:"sha256,sha384,sha512" default:"sha256"`
	FetchTimeout time.Duration `help:"Download timeout." env:"KILN_FETCH_TIMEOUT" default:"${fetch_timeout}"`
}

// Executes the digest command.
//
// Prints the digest in "algorithm:encoded" form, the value a recipe's
// digest attribute expects. URLs are downloaded to a temporary directory
// that is removed afterwards.
func (c *DigestCmd) Run(ctx context.Context) error {
	path := c.Source

	if isURL(c.Source) {
		dir, err := os.MkdirTemp("", internal.Name+"-digest-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		f := fetch.New(fetch.WithTimeout(c.FetchTimeout), fetch.WithUserAgent(internal.UserAgent()))
		path, err = f.Fetch(ctx, c.Source, dir)
		if err != nil {
			return fmt.Errorf("%w: %w", pipeline.ErrFetch, err)
		}
	}

	d, err := verify.Compute(path, digest.Algorithm(c.Algorithm))
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, d)
	return nil
}

// Reports whether s looks like a URL rather than a file path.
func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
