// Command autosave-demo exercises the autosave engine end to end: it edits
// a small in-memory document, lets the debounced engine persist the changes
// through a stdout transport, and records every attempt in a journal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	autosave "github.com/c0deZ3R0/go-autosave-kit"
	"github.com/c0deZ3R0/go-autosave-kit/fieldpath"
	"github.com/c0deZ3R0/go-autosave-kit/journal"
	sqlitejournal "github.com/c0deZ3R0/go-autosave-kit/journal/sqlite"
	"github.com/c0deZ3R0/go-autosave-kit/keymap"
	"github.com/c0deZ3R0/go-autosave-kit/logging"
)

var (
	journalPath string
	configPath  string
)

func main() {
	logging.Init(logging.GetConfigFromEnv())

	root := &cobra.Command{
		Use:   "autosave-demo",
		Short: "Exercise the autosave engine against a demo document",
	}
	root.PersistentFlags().StringVar(&journalPath, "journal", "", "SQLite journal path (empty keeps attempts in memory)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Edit a demo document and watch the engine save it",
		RunE:  runDemo,
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "optional YAML/JSON engine config")

	attemptsCmd := &cobra.Command{
		Use:   "attempts",
		Short: "List recorded save attempts from a SQLite journal",
		RunE:  listAttempts,
	}

	root.AddCommand(runCmd, attemptsCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// demoSource is a mutex-guarded document used as the live value source.
type demoSource struct {
	mu     sync.Mutex
	values map[string]any
}

func (s *demoSource) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, _ := json.Marshal(s.values)
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	return out
}

func (s *demoSource) Set(path string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fieldpath.Set(s.values, path, value)
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	source := &demoSource{values: map[string]any{
		"title": "Untitled",
		"profile": map[string]any{
			"firstName": "Jane",
			"lastName":  "Doe",
		},
	}}

	stdout := autosave.TransportFunc(func(ctx context.Context, payload autosave.Payload, sc *autosave.SaveContext) (*autosave.SaveResult, error) {
		data, _ := json.MarshalIndent(payload, "", "  ")
		fmt.Printf("--- save attempt %s (retry %d) ---\n%s\n", sc.AttemptID, sc.RetryCount, data)
		return autosave.Success(fmt.Sprintf("v%d", time.Now().UnixNano())), nil
	})

	km, err := keymap.FromStrings(map[string]string{
		"profile.firstName": "first_name",
		"profile.lastName":  "last_name",
	})
	if err != nil {
		return err
	}

	var store journal.Journal = journal.NewInMemory(100)
	if journalPath != "" {
		sq, err := sqlitejournal.OpenWithDataSource(journalPath)
		if err != nil {
			return err
		}
		defer sq.Close()
		store = sq
	}

	opts := []autosave.ManagerOption{
		autosave.WithTransport(stdout),
		autosave.WithSource(source),
		autosave.WithDebounceInterval(300 * time.Millisecond),
		autosave.WithKeyMap(km, nil),
		autosave.WithJournal(store),
		autosave.WithOnSaved(func(r *autosave.SaveResult) {
			fmt.Printf("settled: ok=%v version=%s\n", r.OK, r.Version)
		}),
	}

	if configPath != "" {
		cfg, err := autosave.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		fileOpts, err := cfg.Options()
		if err != nil {
			return err
		}
		// File options first so the code-level hooks above win.
		opts = append(fileOpts, opts...)
	}

	mgr, err := autosave.NewManager(opts...)
	if err != nil {
		return err
	}
	defer mgr.Close()

	// A burst of edits: the debounce window coalesces them into one save.
	for i, title := range []string{"D", "Dr", "Dra", "Draf", "Draft"} {
		if err := mgr.Set("title", title); err != nil {
			return err
		}
		fmt.Printf("edit %d: title=%q dirty=%v\n", i+1, title, mgr.DirtyPaths())
		time.Sleep(50 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	// An atomic multi-field edit, then undo it via hotkey.
	if err := mgr.Apply(map[string]any{
		"profile.firstName": "Ada",
		"profile.lastName":  "Lovelace",
	}); err != nil {
		return err
	}
	if consumed, err := mgr.HandleKey("ctrl+z", false); err != nil {
		return err
	} else if consumed {
		fmt.Println("undo via ctrl+z consumed")
	}

	if err := mgr.Set("profile.firstName", "Grace"); err != nil {
		return err
	}
	result, err := mgr.Flush(context.Background())
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Printf("flush: ok=%v version=%s\n", result.OK, result.Version)
	}

	attempts, err := store.List(context.Background(), journal.Criteria{})
	if err != nil {
		return err
	}
	fmt.Printf("journal holds %d attempt(s)\n", len(attempts))
	return nil
}

func listAttempts(cmd *cobra.Command, args []string) error {
	if journalPath == "" {
		return fmt.Errorf("--journal is required for attempts")
	}
	store, err := sqlitejournal.OpenWithDataSource(journalPath)
	if err != nil {
		return err
	}
	defer store.Close()

	attempts, err := store.List(context.Background(), journal.Criteria{})
	if err != nil {
		return err
	}
	for _, a := range attempts {
		status := "ok"
		if !a.OK {
			status = "failed: " + a.Error
		}
		fmt.Printf("%s  %-8s  %s  paths=%v  %s\n",
			a.Time.Format(time.RFC3339), a.Trigger, a.ID, a.Paths, status)
	}
	return nil
}
