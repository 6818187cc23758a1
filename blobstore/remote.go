package blobstore

import (
	"net/url"
	"strings"
	"time"
)

// DefaultURLExpiry is how long presigned and signed URLs stay valid. A
// batch export resolves URLs once and renders for minutes at most.
const DefaultURLExpiry = time.Hour

// Option configures the remote stores.
type Option func(*remoteOptions)

type remoteOptions struct {
	publicBaseURL string
	urlExpiry     time.Duration
}

func defaultRemoteOptions() remoteOptions {
	return remoteOptions{urlExpiry: DefaultURLExpiry}
}

// WithPublicBaseURL makes URL return baseURL joined with the object key
// instead of a signed URL. Use it for public buckets or a CDN in front.
func WithPublicBaseURL(baseURL string) Option {
	return func(o *remoteOptions) { o.publicBaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/") }
}

// WithURLExpiry sets the lifetime of signed URLs.
func WithURLExpiry(d time.Duration) Option {
	return func(o *remoteOptions) {
		if d > 0 {
			o.urlExpiry = d
		}
	}
}

// publicURL joins base and key, escaping each key segment.
func publicURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segs, "/")
}
