package core

import (
	"context"
	"log/slog"
	"strings"
)

// PostingRecord is a history entry for a publish attempt.
type PostingRecord struct {
	Platform  string `json:"platform"`
	ReplyTo   string `json:"reply_to,omitempty"`
	Permalink string `json:"permalink,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PostSink records publish attempts.
type PostSink interface {
	AppendPost(rec PostingRecord) error
}

// Publish submits text through p and returns a human-readable outcome. It
// never fails past this boundary and never retries; the caller decides what
// a failure string means for the process.
func Publish(ctx context.Context, p Poster, text, replyTo string, logger *slog.Logger, sink PostSink) string {
	if logger == nil {
		logger = slog.Default()
	}
	rec := PostingRecord{ReplyTo: replyTo}
	out := publish(ctx, p, text, replyTo, logger, &rec)
	if sink != nil {
		if err := sink.AppendPost(rec); err != nil {
			logger.Error("history append failed", slog.String("err", err.Error()))
		}
	}
	return out
}

func publish(ctx context.Context, p Poster, text, replyTo string, logger *slog.Logger, rec *PostingRecord) string {
	if p == nil {
		rec.Error = "no poster configured"
		return "Failed to post: " + rec.Error
	}
	rec.Platform = p.ID()
	log := logger.With(slog.String("platform", p.ID()))

	if strings.TrimSpace(text) == "" {
		rec.Error = "post text cannot be empty"
		return "Failed to post: " + rec.Error
	}

	receipt, err := p.Post(ctx, PostRequest{Text: text, ReplyTo: strings.TrimSpace(replyTo)})
	if err != nil {
		log.Warn("post failed", slog.String("kind", string(KindPosting)), slog.String("err", err.Error()))
		rec.Error = err.Error()
		return "Failed to post: " + err.Error()
	}
	log.Info("posted", slog.String("id", receipt.ID))
	rec.Permalink = receipt.Permalink
	return "Successfully posted! Link: " + receipt.Permalink
}
