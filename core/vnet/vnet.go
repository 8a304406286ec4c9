// Package vnet is the optional network adapter. Outbound requests are
// checked against a host allow-list and throttled with a token bucket;
// with no allow-list the adapter refuses everything, keeping the default
// sandbox hermetic.
package vnet

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/juju/ratelimit"
)

// Client gates outbound HTTP requests.
type Client struct {
	allow  []string
	bucket *ratelimit.Bucket
	http   *http.Client
}

// New builds a client allowing the given hosts. Entries are exact hostnames
// or "*.suffix" wildcards. ratePerSec bounds request frequency; zero means
// one request per second.
func New(allow []string, ratePerSec float64) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	return &Client{
		allow:  allow,
		bucket: ratelimit.NewBucketWithRate(ratePerSec, int64(ratePerSec)+1),
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled reports whether any host is allowed.
func (c *Client) Enabled() bool { return c != nil && len(c.allow) > 0 }

// Allowed checks a hostname against the allow-list.
func (c *Client) Allowed(host string) bool {
	if c == nil {
		return false
	}
	host = strings.ToLower(host)
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	for _, a := range c.allow {
		a = strings.ToLower(a)
		if a == host {
			return true
		}
		if strings.HasPrefix(a, "*.") && strings.HasSuffix(host, a[1:]) {
			return true
		}
	}
	return false
}

// Do performs a request after allow-list and rate checks.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("network access is disabled")
	}
	if !c.Allowed(req.URL.Host) {
		return nil, fmt.Errorf("host %q is not in the allow list", req.URL.Hostname())
	}
	c.bucket.Wait(1)
	return c.http.Do(req)
}
