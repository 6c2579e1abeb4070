// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/irrigator/pkg/irrlink"
	"github.com/Thermoquad/irrigator/pkg/link"
	"github.com/cenkalti/backoff/v4"
	"golang.org/x/term"
)

// passwordEnv supplies the WebSocket password without prompting
const passwordEnv = "IRRIGATOR_PASSWORD"

const (
	connectTimeout   = 15 * time.Second
	reconnectInitial = 1 * time.Second
	reconnectMax     = 30 * time.Second
)

var errNoDevice = errors.New("either --port or --url must be specified")

// describedTransport is a link transport that can describe its target
type describedTransport interface {
	link.Transport
	Describe(deviceID string) string
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(passwordEnv); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// openTransport picks the WebSocket or serial transport from the config and
// returns it with the device ID to connect to
func openTransport() (describedTransport, string, error) {
	lc := cfg.Link
	if lc.URL != "" {
		password := ""
		if lc.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}
		return &link.WebSocketTransport{
			Username:      lc.Username,
			Password:      password,
			SkipSSLVerify: lc.NoSSLVerify,
		}, lc.URL, nil
	}

	if lc.Port != "" {
		return link.NewSerialTransport(lc.Baud), lc.Port, nil
	}

	return nil, "", errNoDevice
}

// newManager builds a link manager for the configured device.
// onFrame may be nil.
func newManager(onFrame func(irrlink.Frame)) (*link.Manager, string, string, error) {
	transport, deviceID, err := openTransport()
	if err != nil {
		return nil, "", "", err
	}
	mgr := link.NewManager(link.Options{
		Transport:  transport,
		Permission: link.DevicePermission,
		Logger:     log.Named("link"),
		OnFrame:    onFrame,
	})
	return mgr, deviceID, transport.Describe(deviceID), nil
}

// connect opens the link with the standard connect timeout
func connect(ctx context.Context, mgr *link.Manager, deviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return mgr.Connect(ctx, deviceID)
}

// waitForLoss returns once the link leaves Connected or ctx is done
func waitForLoss(ctx context.Context, mgr *link.Manager) link.State {
	states, cancel := mgr.WatchState(4)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return mgr.State()
		case s, ok := <-states:
			if !ok || s != link.Connected {
				return s
			}
		}
	}
}

// newSerialManager builds a link manager over the serial transport without a
// configured port, for scanning
func newSerialManager() *link.Manager {
	return link.NewManager(link.Options{
		Transport:  link.NewSerialTransport(cfg.Link.Baud),
		Permission: link.DevicePermission,
		Logger:     log.Named("link"),
	})
}

// reconnect retries Connect with exponential backoff until the link is up or
// ctx is done. target is read before every attempt. A denied permission stops
// the retries. notify, when set, is called after each failed attempt.
func reconnect(ctx context.Context, mgr *link.Manager, target func() string, notify func(attempt int, err error, wait time.Duration)) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = reconnectInitial
	b.MaxInterval = reconnectMax
	b.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		if mgr.State() == link.Connected {
			return nil
		}
		attempt++
		err := connect(ctx, mgr, target())
		if errors.Is(err, link.ErrCapabilityDenied) {
			return backoff.Permanent(err)
		}
		return err
	}

	var onFail backoff.Notify
	if notify != nil {
		onFail = func(err error, wait time.Duration) { notify(attempt, err, wait) }
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), onFail)
}
