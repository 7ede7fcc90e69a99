// Package x publishes replies to X (Twitter) through the v2 tweets endpoint
// with OAuth 1.0a user-context signing.
package x

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dghubble/oauth1"
	twitter "github.com/g8rswimmer/go-twitter/v2"

	"github.com/joelklabo/molt/internal/core"
	transport "github.com/joelklabo/molt/internal/transports"
)

// Credential variable names.
const (
	EnvConsumerKey       = "TWITTER_CONSUMER_KEY"
	EnvConsumerSecret    = "TWITTER_CONSUMER_SECRET"
	EnvAccessToken       = "TWITTER_ACCESS_TOKEN"
	EnvAccessTokenSecret = "TWITTER_ACCESS_TOKEN_SECRET"
)

// DefaultAPIBase is the production API host.
const DefaultAPIBase = "https://api.twitter.com"

// CredentialNames lists every variable the poster needs, in lookup order.
var CredentialNames = []string{EnvConsumerKey, EnvConsumerSecret, EnvAccessToken, EnvAccessTokenSecret}

// ErrMissingCredentials names all four variables regardless of which is absent.
var ErrMissingCredentials = fmt.Errorf("%w: set %s", core.ErrMissingCredentials, strings.Join(CredentialNames, ", "))

// Permalink returns the public URL of a post.
func Permalink(id string) string {
	return "https://x.com/user/status/" + id
}

// Config wires the poster.
type Config struct {
	Credentials core.Credentials
	APIBase     string
	HTTPClient  *http.Client
}

// CredentialsFrom reads the four variables through lookup.
func CredentialsFrom(lookup func(string) string) core.Credentials {
	return core.Credentials{
		ConsumerKey:       strings.TrimSpace(lookup(EnvConsumerKey)),
		ConsumerSecret:    strings.TrimSpace(lookup(EnvConsumerSecret)),
		AccessToken:       strings.TrimSpace(lookup(EnvAccessToken)),
		AccessTokenSecret: strings.TrimSpace(lookup(EnvAccessTokenSecret)),
	}
}

// Poster posts tweets.
type Poster struct {
	cfg    Config
	logger *slog.Logger
}

// New builds a Poster. Missing credentials are reported at Post time so the
// caller still gets a failure string rather than a construction error.
func New(cfg Config, logger *slog.Logger) *Poster {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{cfg: cfg, logger: logger.With("transport", "x")}
}

func (p *Poster) ID() string { return "x" }

// Post publishes req.Text, as a reply when req.ReplyTo is set.
func (p *Poster) Post(ctx context.Context, req core.PostRequest) (core.PostReceipt, error) {
	if !p.cfg.Credentials.Complete() {
		return core.PostReceipt{}, ErrMissingCredentials
	}
	client := p.client(ctx)

	tweet := twitter.CreateTweetRequest{Text: req.Text}
	if req.ReplyTo != "" {
		tweet.Reply = &twitter.CreateTweetReply{InReplyToTweetID: req.ReplyTo}
	}
	resp, err := client.CreateTweet(ctx, tweet)
	if err != nil {
		return core.PostReceipt{}, describe(err)
	}
	if resp == nil || resp.Tweet == nil || resp.Tweet.ID == "" {
		return core.PostReceipt{}, errors.New("create tweet: response carried no id")
	}
	p.logger.Debug("tweet created", slog.String("id", resp.Tweet.ID), slog.String("reply_to", req.ReplyTo))
	return core.PostReceipt{ID: resp.Tweet.ID, Permalink: Permalink(resp.Tweet.ID)}, nil
}

func (p *Poster) client(ctx context.Context) *twitter.Client {
	base := p.cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	creds := p.cfg.Credentials
	signCtx := context.WithValue(ctx, oauth1.HTTPClient, base)
	httpClient := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret).
		Client(signCtx, oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret))
	return &twitter.Client{
		Authorizer: signed{},
		Client:     httpClient,
		Host:       p.cfg.APIBase,
	}
}

// signed is a no-op authorizer; the oauth1 transport signs every request.
type signed struct{}

func (signed) Add(*http.Request) {}

func describe(err error) error {
	var herr *twitter.HTTPError
	if errors.As(err, &herr) {
		return fmt.Errorf("create tweet: %s (status %d)", herr.Status, herr.StatusCode)
	}
	var eresp *twitter.ErrorResponse
	if errors.As(err, &eresp) {
		if eresp.Detail != "" {
			return fmt.Errorf("create tweet: %s (status %d)", eresp.Detail, eresp.StatusCode)
		}
		return fmt.Errorf("create tweet: %s (status %d)", eresp.Title, eresp.StatusCode)
	}
	return fmt.Errorf("create tweet: %w", err)
}

func init() {
	transport.MustRegister("x", func(s transport.Settings) (core.Poster, error) {
		return New(Config{
			Credentials: CredentialsFrom(s.Lookup),
			APIBase:     s.APIBase,
			HTTPClient:  s.HTTPClient,
		}, s.Logger), nil
	})
}
