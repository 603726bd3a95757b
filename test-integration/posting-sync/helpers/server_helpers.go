package helpers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/onsi/gomega"

	"github.com/stacklok/posting-sync/internal/api/common"
	v1 "github.com/stacklok/posting-sync/internal/api/v1"
	"github.com/stacklok/posting-sync/internal/app"
	"github.com/stacklok/posting-sync/internal/config"
	"github.com/stacklok/posting-sync/internal/push"
)

// ServerTestHelper manages the service lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	baseURL    string
	address    string
	httpClient *http.Client
	app        *app.SyncApp
}

// NewServerTestHelper creates a helper listening on a free local port
func NewServerTestHelper(ctx context.Context) (*ServerTestHelper, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to find a free port: %w", err)
	}
	address := listener.Addr().String()
	_ = listener.Close()

	return &ServerTestHelper{
		ctx:     ctx,
		address: address,
		baseURL: "http://" + address,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{DisableKeepAlives: true},
		},
	}, nil
}

// StartServer builds the application from cfg and starts it in the background
func (s *ServerTestHelper) StartServer(cfg *config.Config) error {
	syncApp, err := app.NewSyncApp(s.ctx,
		app.WithConfig(cfg),
		app.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = syncApp

	go func() {
		if err := syncApp.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()
	return nil
}

// StopServer gracefully stops the service
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for the service to answer its readiness check
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 200*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// TriggerSync makes a POST request to /v1/sync/run and returns the status code
func (s *ServerTestHelper) TriggerSync() (int, error) {
	resp, err := s.httpClient.Post(s.baseURL+"/v1/sync/run", "application/json", nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode, nil
}

// GetSyncStatus makes a GET request to /v1/sync/status
func (s *ServerTestHelper) GetSyncStatus() (*v1.SyncStatusResponse, error) {
	var body v1.SyncStatusResponse
	if err := s.getJSON("/v1/sync/status", &body); err != nil {
		return nil, err
	}
	return &body, nil
}

// GetNotifications makes a GET request to /v1/subscribers/{id}/notifications
func (s *ServerTestHelper) GetNotifications(subscriberID string) (*v1.NotificationListResponse, error) {
	var body v1.NotificationListResponse
	if err := s.getJSON("/v1/subscribers/"+subscriberID+"/notifications", &body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (s *ServerTestHelper) getJSON(path string, out any) error {
	resp, err := s.httpClient.Get(s.baseURL + path)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s returned status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// EventStream is an open /v1/events connection
type EventStream struct {
	resp   *http.Response
	events chan StreamEvent
}

// StreamEvent is one decoded server-sent event
type StreamEvent struct {
	Type     string
	Envelope push.Envelope
}

// OpenEvents connects to /v1/events as subscriberID. The status code is
// returned for streams the server refused.
func (s *ServerTestHelper) OpenEvents(subscriberID string) (*EventStream, int, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.baseURL+"/v1/events", nil)
	if err != nil {
		return nil, 0, err
	}
	if subscriberID != "" {
		req.Header.Set(common.SubscriberIDHeader, subscriberID)
	}

	// No client timeout: the stream stays open
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, resp.StatusCode, nil
	}

	stream := &EventStream{resp: resp, events: make(chan StreamEvent, 16)}
	go stream.read()
	return stream, resp.StatusCode, nil
}

func (e *EventStream) read() {
	defer close(e.events)

	var typ string
	scanner := bufio.NewScanner(e.resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			typ = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			var env push.Envelope
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &env); err == nil {
				e.events <- StreamEvent{Type: typ, Envelope: env}
			}
			typ = ""
		}
	}
}

// Events returns the decoded events. The channel closes with the stream.
func (e *EventStream) Events() <-chan StreamEvent {
	return e.events
}

// Close closes the connection
func (e *EventStream) Close() {
	_ = e.resp.Body.Close()
}
