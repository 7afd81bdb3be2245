package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Notification is a celebration to deliver to the user.
type Notification struct {
	Project   string
	TaskID    int
	TaskTitle string
	Message   string
	Milestone bool
	Time      time.Time
}

// Notifier delivers celebration notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// --- Terminal ---

type writerNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier returns a Notifier that prints one line per celebration
// to w.
func NewWriterNotifier(w io.Writer) Notifier {
	return &writerNotifier{w: w}
}

func (n *writerNotifier) Notify(_ context.Context, note Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	prefix := "\U0001f389"
	if note.Milestone {
		prefix = "\U0001f3c6"
	}
	_, err := fmt.Fprintf(n.w, "%s %s (%s: #%d %s)\n", prefix, note.Message, note.Project, note.TaskID, note.TaskTitle)
	return err
}

// --- Slack ---

type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier returns a Notifier that posts celebrations to a Slack
// incoming webhook.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *slackNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(buildSlackMessage(n))
	if err != nil {
		return fmt.Errorf("marshalling slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildSlackMessage(n Notification) slackMessage {
	header := "Task complete"
	if n.Milestone {
		header = "Milestone reached"
	}
	text := fmt.Sprintf("*%s*\n#%d %s\n_%s_", n.Message, n.TaskID, n.TaskTitle, n.Project)
	return slackMessage{
		Text: n.Message,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: header}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: text}},
		},
	}
}

// --- Fan-out ---

type multiNotifier []Notifier

// NewMultiNotifier returns a Notifier that delivers to every non-nil
// notifier and joins their errors.
func NewMultiNotifier(notifiers ...Notifier) Notifier {
	var m multiNotifier
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

func (m multiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
