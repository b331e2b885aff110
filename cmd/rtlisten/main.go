// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

// Command rtlisten connects to a Chairside gateway, joins rooms and logs
// every domain event it receives. It is a debugging aid for clinic
// integrations.
//
//	rtlisten -url wss://clinic.example/rt/ws -base https://clinic.example \
//	    -session "$SESSION" -rooms patient:p1,doctor:d1
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/pkg/rtclient"
)

type options struct {
	url           string
	base          string
	session       string
	sessionCookie string
	token         string
	rooms         []string
	level         string
	send          string
	sender        string
	patientID     string
}

func parseFlags(args []string) (options, error) {
	var o options
	var rooms string
	fs := flag.NewFlagSet("rtlisten", flag.ContinueOnError)
	fs.StringVar(&o.url, "url", "ws://localhost:4000/rt/ws", "socket endpoint")
	fs.StringVar(&o.base, "base", "", "HTTP origin for /rt/issue-socket-token (default: derived from -url)")
	fs.StringVar(&o.session, "session", os.Getenv("CHAIRSIDE_SESSION"), "session token used to mint socket tokens")
	fs.StringVar(&o.sessionCookie, "session-cookie", "session", "session cookie name; empty sends a bearer header")
	fs.StringVar(&o.token, "token", "", "socket token to use directly instead of -session")
	fs.StringVar(&rooms, "rooms", "", "comma-separated rooms to join, e.g. patient:p1,doctor:d1")
	fs.StringVar(&o.level, "log-level", "info", "log level")
	fs.StringVar(&o.send, "send", "", "send one chat message after connecting (requires -patient)")
	fs.StringVar(&o.patientID, "patient", "", "patient id for -send")
	fs.StringVar(&o.sender, "sender", "rtlisten", "sender name for -send")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	for _, r := range strings.Split(rooms, ",") {
		if r = strings.TrimSpace(r); r != "" {
			o.rooms = append(o.rooms, r)
		}
	}
	if o.token == "" && o.session == "" {
		return o, errors.New("one of -token or -session is required")
	}
	if o.send != "" && o.patientID == "" {
		return o, errors.New("-send requires -patient")
	}
	if o.base == "" {
		base, err := httpOrigin(o.url)
		if err != nil {
			return o, err
		}
		o.base = base
	}
	return o, nil
}

// httpOrigin maps ws://host/path to http://host and wss:// to https://.
func httpOrigin(wsURL string) (string, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "", fmt.Errorf("invalid -url: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	case "http", "https":
	default:
		return "", fmt.Errorf("invalid -url scheme %q", u.Scheme)
	}
	return u.Scheme + "://" + u.Host, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logging.Init(logging.Config{Level: opts.level, Format: "console", Timestamp: true, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := listen(ctx, opts); err != nil {
		logging.Fatal().Err(err).Msg("rtlisten failed")
	}
}

func listen(ctx context.Context, opts options) error {
	log := logging.WithComponent("rtlisten")
	cfg := rtclient.Config{URL: opts.url, Token: opts.token, Logger: &log}
	if opts.token == "" {
		cfg.TokenSource = &rtclient.HTTPTokenSource{
			BaseURL:       opts.base,
			SessionToken:  opts.session,
			SessionCookie: opts.sessionCookie,
		}
	}

	m, err := rtclient.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	m.OnStateChange(func(from, to rtclient.State) {
		log.Info().Str("from", from.String()).Str("to", to.String()).Msg("state changed")
	})
	for _, name := range events.DomainEvents {
		m.On(name, func(data json.RawMessage) {
			log.Info().Str("event", name).RawJSON("data", data).Msg("event received")
		})
	}

	if len(opts.rooms) > 0 {
		if err := m.Join(ctx, opts.rooms...); err != nil {
			return err
		}
	}
	if err := m.Connect(ctx); err != nil {
		return err
	}
	log.Info().Strs("rooms", m.Rooms()).Msg("listening")

	if opts.send != "" {
		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		res, err := m.SendMessage(sendCtx, rtclient.MessageInput{
			PatientID: opts.patientID,
			Sender:    opts.sender,
			Content:   opts.send,
		})
		cancel()
		switch {
		case err != nil:
			log.Error().Err(err).Msg("message:send failed")
		case !res.OK:
			log.Warn().Str("error", res.Error).Msg("message:send rejected")
		default:
			log.Info().Str("id", res.Message.ID).Msg("message sent")
		}
	}

	<-ctx.Done()
	return nil
}
