// Package twitchchat delivers Twitch chat messages to the pipeline over
// IRC, reconnecting with bounded backoff.
package twitchchat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"

	"github.com/you/babel-chat/internal/config"
	"github.com/you/babel-chat/internal/core"
	"github.com/you/babel-chat/internal/twitchauth"
)

// Handler receives one converted chat message per PRIVMSG.
type Handler func(ctx context.Context, msg core.ChatMessage)

const greeting = "translation relay online"

type Source struct {
	cfg    config.TwitchConfig
	token  string
	handle Handler
}

// New resolves the OAuth token up front so misconfiguration fails at
// startup rather than on the first reconnect. An empty token selects
// anonymous (read-only) access.
func New(cfg config.TwitchConfig, handle Handler) (*Source, error) {
	if strings.TrimSpace(cfg.Channel) == "" {
		return nil, errors.New("twitchchat: channel is required")
	}
	token, err := twitchauth.Resolve(cfg.Token, cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	if token == "" {
		log.Printf("twitchchat: no token configured; joining #%s anonymously", cfg.Channel)
	}
	return &Source{cfg: cfg, token: token, handle: handle}, nil
}

// Run connects and blocks until ctx is cancelled, reconnecting on any
// disconnect with exponential backoff capped at one minute.
func (s *Source) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("twitchchat: disconnected: %v; reconnecting in %s", err, backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if backoff < 60*time.Second {
			backoff *= 2
			if backoff > 60*time.Second {
				backoff = 60 * time.Second
			}
		}
	}
}

func (s *Source) runOnce(ctx context.Context) error {
	var client *twitch.Client
	if s.token == "" {
		client = twitch.NewAnonymousClient()
	} else {
		client = twitch.NewClient(s.cfg.Nick, s.token)
	}
	client.TLS = s.cfg.TLS

	client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		s.handle(ctx, convert(msg, s.cfg.Nick))
	})
	client.OnConnect(func() {
		log.Printf("twitchchat: connected to #%s", s.cfg.Channel)
		if s.cfg.Announce && s.token != "" {
			client.Say(s.cfg.Channel, greeting)
		}
	})

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			client.Disconnect()
		case <-done:
		}
	}()
	defer close(done)

	client.Join(s.cfg.Channel)
	return client.Connect()
}

// convert maps a PRIVMSG onto the pipeline's message shape. Emote
// positions are inclusive rune offsets into the raw text, as tagged by
// the chat server.
func convert(msg twitch.PrivateMessage, botNick string) core.ChatMessage {
	user := strings.ToLower(msg.User.Name)
	var spans []core.EmoteSpan
	for _, emote := range msg.Emotes {
		for _, pos := range emote.Positions {
			spans = append(spans, core.EmoteSpan{Start: pos.Start, End: pos.End})
		}
	}
	return core.ChatMessage{
		ID:       msg.ID,
		Ts:       msg.Time,
		User:     user,
		Platform: "twitch",
		Text:     msg.Message,
		Emotes:   spans,
		Echo:     botNick != "" && user == botNick,
	}
}
