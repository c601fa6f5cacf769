package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Kind tells the client how to render a lecture source.
type Kind string

const (
	KindEmbed  Kind = "embed"
	KindDirect Kind = "direct"
)

// Signer issues time-limited URLs for objects in a bucket.
type Signer interface {
	SignedURL(ctx context.Context, bucket, object string, ttl time.Duration) (string, error)
}

// Source is the resolved playback location of a lecture video.
type Source struct {
	Kind Kind   `json:"kind"`
	URL  string `json:"url"`
}

var ErrSignerUnavailable = errors.New("gs:// media requires GCS signing to be enabled")

type Resolver struct {
	origin string
	signer Signer
	ttl    time.Duration
}

// NewResolver builds a resolver. origin is the frontend origin passed to the
// YouTube player; signer may be nil when GCS media is disabled.
func NewResolver(origin string, signer Signer, ttl time.Duration) *Resolver {
	return &Resolver{origin: strings.TrimRight(origin, "/"), signer: signer, ttl: ttl}
}

// Resolve maps a stored video URL to what the client should load.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if IsEmbeddable(raw) {
		return Source{Kind: KindEmbed, URL: r.EmbedURL(raw)}, nil
	}
	if strings.HasPrefix(raw, "gs://") {
		if r.signer == nil {
			return Source{}, ErrSignerUnavailable
		}
		bucket, object, ok := strings.Cut(strings.TrimPrefix(raw, "gs://"), "/")
		if !ok || bucket == "" || object == "" {
			return Source{}, fmt.Errorf("malformed gs url %q", raw)
		}
		signed, err := r.signer.SignedURL(ctx, bucket, object, r.ttl)
		if err != nil {
			return Source{}, err
		}
		return Source{Kind: KindDirect, URL: signed}, nil
	}
	return Source{Kind: KindDirect, URL: raw}, nil
}

// IsEmbeddable reports whether the URL is played through an embedded player.
func IsEmbeddable(raw string) bool {
	return strings.Contains(raw, "youtube") || strings.Contains(raw, "youtu.be")
}

// EmbedURL rewrites youtube.com/watch?v=ID and youtu.be/ID links to the
// embeddable player URL. Any other URL is returned unchanged.
func (r *Resolver) EmbedURL(raw string) string {
	id, ok := VideoID(raw)
	if !ok {
		return raw
	}
	return "https://www.youtube.com/embed/" + id + "?enablejsapi=1&origin=" + url.QueryEscape(r.origin)
}

// VideoID extracts the video identifier from the two recognised link shapes.
func VideoID(raw string) (string, bool) {
	if strings.Contains(raw, "youtube.com/watch?v=") {
		_, rest, _ := strings.Cut(raw, "v=")
		id, _, _ := strings.Cut(rest, "&")
		return id, id != ""
	}
	if strings.Contains(raw, "youtu.be/") {
		_, rest, _ := strings.Cut(raw, "youtu.be/")
		id, _, _ := strings.Cut(rest, "?")
		return id, id != ""
	}
	return "", false
}
