// Package ytchat polls YouTube live chat through the Data API and feeds
// messages to the pipeline. The watched channel may be given as a channel
// ID, an @handle, or a channel URL.
package ytchat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"google.golang.org/api/option"
	youtube "google.golang.org/api/youtube/v3"

	"github.com/you/babel-chat/internal/config"
	"github.com/you/babel-chat/internal/core"
)

// Handler receives one converted chat message per live chat item.
type Handler func(ctx context.Context, msg core.ChatMessage)

var errChatEnded = errors.New("ytchat: live chat ended")

type Source struct {
	cfg    config.YouTubeConfig
	handle Handler
	svc    *youtube.Service
}

func New(ctx context.Context, cfg config.YouTubeConfig, handle Handler) (*Source, error) {
	if cfg.APIKey == "" || cfg.Channel == "" {
		return nil, errors.New("ytchat: api key and channel are required")
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}
	return &Source{cfg: cfg, handle: handle, svc: svc}, nil
}

// Run resolves the channel once, then alternates between waiting for a
// live broadcast and draining its chat. Returns only when ctx ends.
func (s *Source) Run(ctx context.Context) error {
	channelID, err := s.resolveChannelID(ctx, s.cfg.Channel)
	if err != nil {
		return err
	}
	log.Printf("ytchat: watching channel %s", channelID)

	retry := time.Duration(s.cfg.RetrySeconds) * time.Second
	if retry <= 0 {
		retry = time.Minute
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		videoID, err := s.liveVideoID(ctx, channelID)
		if err != nil {
			log.Printf("ytchat: live lookup failed: %v; retrying in %s", err, retry)
		} else if videoID == "" {
			log.Printf("ytchat: channel not live; checking again in %s", retry)
		} else {
			log.Printf("ytchat: live video %s, reading chat", videoID)
			if err := s.pollChat(ctx, videoID); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("ytchat: chat ended: %v", err)
			}
		}

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// resolveChannelID accepts a raw channel ID, an @handle, or a channel URL.
// Handles and URL path segments go through a channel search.
func (s *Source) resolveChannelID(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	switch {
	case strings.HasPrefix(input, "@"):
		return s.searchChannel(ctx, strings.TrimPrefix(input, "@"))
	case strings.Contains(input, "youtube.com"):
		tail := input[strings.Index(input, "youtube.com")+len("youtube.com"):]
		tail = strings.TrimPrefix(tail, "/")
		for _, prefix := range []string{"channel/", "user/", "c/"} {
			tail = strings.TrimPrefix(tail, prefix)
		}
		if i := strings.IndexAny(tail, "/?&"); i >= 0 {
			tail = tail[:i]
		}
		if tail == "" {
			return "", errors.New("ytchat: cannot parse channel URL")
		}
		return s.searchChannel(ctx, tail)
	default:
		return input, nil
	}
}

func (s *Source) searchChannel(ctx context.Context, query string) (string, error) {
	resp, err := s.svc.Search.List([]string{"snippet"}).
		Q(query).Type("channel").MaxResults(1).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", errors.New("ytchat: no channel found for " + query)
	}
	return resp.Items[0].Snippet.ChannelId, nil
}

// liveVideoID returns the channel's current live video, or "" when the
// channel is not live.
func (s *Source) liveVideoID(ctx context.Context, channelID string) (string, error) {
	resp, err := s.svc.Search.List([]string{"snippet"}).
		ChannelId(channelID).EventType("live").Type("video").MaxResults(1).
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].Id.VideoId, nil
}

func (s *Source) liveChatID(ctx context.Context, videoID string) (string, error) {
	resp, err := s.svc.Videos.List([]string{"liveStreamingDetails"}).
		Id(videoID).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 || resp.Items[0].LiveStreamingDetails == nil {
		return "", errors.New("ytchat: no live streaming details")
	}
	chatID := resp.Items[0].LiveStreamingDetails.ActiveLiveChatId
	if chatID == "" {
		return "", errChatEnded
	}
	return chatID, nil
}

// pollChat drains the live chat until it ends, pacing requests by the
// server-suggested polling interval with a configured floor. The first
// page replays chat history and is discarded.
func (s *Source) pollChat(ctx context.Context, videoID string) error {
	chatID, err := s.liveChatID(ctx, videoID)
	if err != nil {
		return err
	}

	floor := time.Duration(s.cfg.PollIntervalMS) * time.Millisecond
	pageToken := ""
	first := true
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		call := s.svc.LiveChatMessages.List(chatID, []string{"snippet", "authorDetails"})
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Context(ctx).Do()
		if err != nil {
			return err
		}

		if !first {
			for _, item := range resp.Items {
				msg, ok := convert(item)
				if !ok {
					continue
				}
				s.handle(ctx, msg)
			}
		}
		first = false
		pageToken = resp.NextPageToken

		if resp.OfflineAt != "" {
			return errChatEnded
		}

		wait := time.Duration(resp.PollingIntervalMillis) * time.Millisecond
		if wait < floor {
			wait = floor
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// convert maps a live chat item onto the pipeline's message shape. Items
// without displayable text (membership events, deleted messages) are
// skipped.
func convert(item *youtube.LiveChatMessage) (core.ChatMessage, bool) {
	if item == nil || item.Snippet == nil || item.AuthorDetails == nil {
		return core.ChatMessage{}, false
	}
	text := item.Snippet.DisplayMessage
	if strings.TrimSpace(text) == "" {
		return core.ChatMessage{}, false
	}
	ts, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	return core.ChatMessage{
		ID:       item.Id,
		Ts:       ts,
		User:     strings.ToLower(item.AuthorDetails.DisplayName),
		Platform: "youtube",
		Text:     text,
	}, true
}
