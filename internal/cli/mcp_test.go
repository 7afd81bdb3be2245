package cli

import (
	"context"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestServeMCP_MutesTerminalNotifications(t *testing.T) {
	store := useTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	serverT, clientT := gomcp.NewInMemoryTransports()

	served := make(chan error, 1)
	go func() { served <- ServeMCP(ctx, serverT) }()

	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}

	if TerminalNotificationsEnabled() {
		t.Error("terminal notifications should be muted while serving")
	}
	if _, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      "toggle_task",
		Arguments: map[string]any{"task_id": 1},
	}); err != nil {
		t.Fatalf("toggle_task: %v", err)
	}
	if !store.Tasks()[0].Completed {
		t.Error("toggle_task should complete task 1")
	}

	_ = session.Close()
	cancel()
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	if !TerminalNotificationsEnabled() {
		t.Error("terminal notifications should be restored after serving")
	}
}
