// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thermoquad/midasctl/internal/capture"
	"github.com/Thermoquad/midasctl/internal/metrics"
	"github.com/Thermoquad/midasctl/pkg/midas"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketPort carries the controller byte stream over a WebSocket serial
// bridge. Each message holds raw line bytes. A Read that sees no message
// within the timeout returns (0, nil), like a serial port read timeout.
type WebSocketPort struct {
	conn    *websocket.Conn
	timeout time.Duration

	messages chan []byte
	done     chan struct{}
	buf      []byte

	mu      sync.Mutex
	readErr error
	once    sync.Once
}

func newWebSocketPort(conn *websocket.Conn, timeout time.Duration) *WebSocketPort {
	w := &WebSocketPort{
		conn:     conn,
		timeout:  timeout,
		messages: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *WebSocketPort) readLoop() {
	defer close(w.messages)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.readErr = err
			w.mu.Unlock()
			return
		}

		// Bridges forward line bytes as binary or text frames
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}

		select {
		case w.messages <- data:
		case <-w.done:
			return
		}
	}
}

func (w *WebSocketPort) Read(p []byte) (int, error) {
	if len(w.buf) > 0 {
		n := copy(p, w.buf)
		w.buf = w.buf[n:]
		return n, nil
	}

	select {
	case data, ok := <-w.messages:
		if !ok {
			w.mu.Lock()
			err := w.readErr
			w.mu.Unlock()
			return 0, fmt.Errorf("%w: %w: %v", midas.ErrPortClosed, ErrConnectionClosed, err)
		}
		n := copy(p, data)
		w.buf = data[n:]
		return n, nil
	case <-time.After(w.timeout):
		return 0, nil
	}
}

func (w *WebSocketPort) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInputBuffer drops buffered and queued messages.
func (w *WebSocketPort) ResetInputBuffer() error {
	w.buf = nil
	for {
		select {
		case _, ok := <-w.messages:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

func (w *WebSocketPort) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.conn.Close()
	})
	return err
}

// OpenWebSocketPort opens a WebSocket bridge connection with HTTP Basic auth
func OpenWebSocketPort(wsURL, username, password string, skipSSLVerify bool, timeout time.Duration) (*WebSocketPort, error) {
	// Parse and validate URL
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketPort(conn, timeout), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("MIDAS_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// opener picks the transport from the merged settings.
func opener() (midas.Opener, string, error) {
	ws := settings.WebSocket
	if ws.URL != "" {
		password := ""
		if ws.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		open := func(cfg midas.Config) (midas.Port, error) {
			return OpenWebSocketPort(ws.URL, ws.Username, password, ws.NoSSLVerify, cfg.Timeout)
		}
		return open, fmt.Sprintf("WebSocket: %s", ws.URL), nil
	}

	if settings.Serial.Port != "" {
		cfg, err := settings.SerialSettings()
		if err != nil {
			return nil, "", err
		}
		return midas.OpenSerial, fmt.Sprintf("Serial: %s", cfg), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// session is an open device with the observers requested on the command line
type session struct {
	device   *midas.Device
	node     midas.NodeID
	connInfo string
	stats    *midas.Statistics
	recorder *capture.Recorder
	stop     context.CancelFunc
}

// openSession opens the controller line described by the settings
func openSession(cmd *cobra.Command) (*session, error) {
	open, connInfo, err := opener()
	if err != nil {
		return nil, err
	}

	cfg, err := settings.SerialSettings()
	if err != nil {
		return nil, err
	}
	if cfg.Port == "" {
		cfg.Port = settings.WebSocket.URL
	}
	node, err := settings.NodeID()
	if err != nil {
		return nil, err
	}

	ctx, stop := context.WithCancel(cmd.Context())
	s := &session{
		node:     node,
		connInfo: connInfo,
		stats:    midas.NewStatistics(),
		stop:     stop,
	}
	opts := []midas.Option{
		midas.WithOpener(open),
		midas.WithLogger(logger),
		midas.WithObserver(s.stats),
	}

	if recordPath != "" {
		rec, err := capture.Create(recordPath, connInfo)
		if err != nil {
			stop()
			return nil, err
		}
		s.recorder = rec
		opts = append(opts, midas.WithObserver(rec))
	}

	if addr := settings.Metrics.Addr; addr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, midas.WithObserver(metrics.NewCollector(reg)))
		go func() {
			if err := metrics.Serve(ctx, addr, reg, logger); err != nil {
				logger.WithError(err).Error("metrics server failed")
			}
		}()
	}

	s.device = midas.NewDevice(cfg, opts...)
	if err := s.device.Open(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open %s: %w", connInfo, err)
	}
	return s, nil
}

// Close closes the device and flushes the capture file.
func (s *session) Close() error {
	s.stop()
	err := s.device.Close()
	if s.recorder != nil {
		if rerr := s.recorder.Close(); rerr != nil && err == nil {
			err = rerr
		}
		logger.WithField("records", s.recorder.Count()).Info("capture closed")
	}
	return err
}
