package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/goal-board/internal/core"
)

// useTestStore installs a freshly seeded store for the duration of the test.
func useTestStore(t *testing.T) core.TaskStore {
	t.Helper()
	store, err := core.NewTaskStore(core.DefaultProjects(), core.DefaultProjectKey, nil)
	if err != nil {
		t.Fatalf("creating task store: %v", err)
	}
	origStore, origQuotes := Store, Quotes
	Store = store
	Quotes = core.NewQuoteRotator(nil, nil)
	t.Cleanup(func() {
		Store = origStore
		Quotes = origQuotes
	})
	return store
}

// runCmd runs cmd's RunE with output captured.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func withNilStore(t *testing.T) {
	t.Helper()
	orig := Store
	Store = nil
	t.Cleanup(func() { Store = orig })
}
