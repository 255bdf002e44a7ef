package kit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/tcbuild/tcbuild/src/cli"
)

// ErrNoPublishURL is returned when publishing without a configured URL.
var ErrNoPublishURL = errors.New("no publish URL configured; set publish.url")

// A Publisher uploads kits to a base URL with HTTP PUT, retrying failures.
type Publisher struct {
	url    string
	client *retryablehttp.Client
}

// NewPublisher returns a new Publisher uploading under the given URL.
func NewPublisher(url string, retries int, timeout time.Duration) *Publisher {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = &cli.HTTPLogWrapper{Log: log}
	return &Publisher{
		url:    strings.TrimRight(url, "/"),
		client: client,
	}
}

// URL returns the URL that the given kit is published to.
func (p *Publisher) URL(name string) string {
	return p.url + "/" + name + Extension
}

// Publish uploads the given file as the named kit.
func (p *Publisher) Publish(ctx context.Context, name, file string) error {
	if p.url == "" {
		return ErrNoPublishURL
	}
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open kit %s: %w", name, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	url := p.URL(name)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, url, f)
	if err != nil {
		return err
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "application/x-xz")
	log.Notice("Publishing %s to %s", name, url)
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("failed to publish %s: got response %s", name, resp.Status)
	}
	return nil
}
