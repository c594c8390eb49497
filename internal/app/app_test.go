package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskline/internal/eventbus"
	"taskline/internal/storage"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "taskline.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func stop(t *testing.T, a *App, reason StopReason) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Stop(ctx, reason); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestSessionPersistsAcrossRuns(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"csv", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			cfgPath := writeConfig(t, dir, "storage:\n  driver: "+driver+"\n  path: "+filepath.Join(dir, "tasks."+driver)+"\n  audit: true\n")

			var out bytes.Buffer
			a, err := New(Options{ConfigPath: cfgPath, In: strings.NewReader("add Buy milk\nadd B\ncomplete 1\nquit\n"), Out: &out})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := a.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			stop(t, a, StopQuit)
			if !strings.Contains(out.String(), "[SAVE]: List is successfully saved.") {
				t.Fatalf("output:\n%s", out.String())
			}

			out.Reset()
			b, err := New(Options{ConfigPath: cfgPath, In: strings.NewReader("list\n"), Out: &out})
			if err != nil {
				t.Fatalf("New (reload): %v", err)
			}
			if err := b.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			stop(t, b, StopQuit)
			for _, want := range []string{"\t1: [x] - Buy milk\n", "\t2: [ ] - B\n"} {
				if !strings.Contains(out.String(), want) {
					t.Fatalf("missing %q in:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestMalformedPersistedBoolIsFatal(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tasksPath := filepath.Join(dir, "tasks.csv")
	if err := os.WriteFile(tasksPath, []byte("A,false\nB,maybe\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, dir, "storage:\n  path: "+tasksPath+"\n")

	_, err := New(Options{ConfigPath: cfgPath, In: strings.NewReader(""), Out: &bytes.Buffer{}})
	var fault *storage.LoadParseFault
	if !errors.As(err, &fault) {
		t.Fatalf("err = %v, want LoadParseFault", err)
	}
	if fault.Line != 2 || fault.Value != "maybe" {
		t.Fatalf("fault = %+v", fault)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"driver":   "storage:\n  driver: redis\n",
		"schedule": "autosave:\n  enabled: true\n  schedule: whenever\n",
		"cron":     "autosave:\n  enabled: true\n  schedule: not a cron\n",
		"timezone": "autosave:\n  enabled: true\n  schedule: 5m\n  timezone: Mars/Olympus\n",
		"unknown":  "colour: blue\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			cfgPath := writeConfig(t, dir, body)
			if _, err := New(Options{ConfigPath: cfgPath, In: strings.NewReader(""), Out: &bytes.Buffer{}}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestApplyPublishesChanges(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "storage:\n  path: "+filepath.Join(dir, "tasks.csv")+"\n")
	a, err := New(Options{ConfigPath: cfgPath, In: strings.NewReader(""), Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer stop(t, a, StopUnknown)

	events, unsub := a.bus.Subscribe(8)
	defer unsub()

	oldCfg := a.cfgm.Get()
	newCfg := *oldCfg
	newCfg.Reminder.NotifyRatePerSec = 5
	newCfg.Reminder.NotifyBurst = 2
	a.apply(oldCfg, &newCfg)

	select {
	case e := <-events:
		if e.Type != eventbus.TypeConfigApplied {
			t.Fatalf("event = %s", e.Type)
		}
		sections, _ := e.Data.([]string)
		if len(sections) != 1 || sections[0] != "reminder" {
			t.Fatalf("sections = %v", sections)
		}
	case <-time.After(time.Second):
		t.Fatal("no config.applied event")
	}
}

func TestReloadRejectsUnstartableAutosave(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	storageBlock := "storage:\n  path: " + filepath.Join(dir, "tasks.csv") + "\n"
	cfgPath := writeConfig(t, dir, storageBlock+"autosave:\n  enabled: true\n  schedule: 5m\n")
	a, err := New(Options{ConfigPath: cfgPath, In: strings.NewReader(""), Out: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer stop(t, a, StopUnknown)

	updates := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(updates)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.cfgm.Watch(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()
	time.Sleep(200 * time.Millisecond)

	// A valid edit goes through, so the watcher is live.
	writeConfig(t, dir, storageBlock+"autosave:\n  enabled: true\n  schedule: 10m\n")
	select {
	case cfg := <-updates:
		if cfg.Autosave.Schedule != "10m" {
			t.Fatalf("published schedule = %q", cfg.Autosave.Schedule)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("valid config not published")
	}

	// Parses and passes the struct tags, but cron cannot start it.
	writeConfig(t, dir, storageBlock+"autosave:\n  enabled: true\n  schedule: \"0 25 * * *\"\n")
	select {
	case cfg := <-updates:
		t.Fatalf("unstartable config published: schedule %q", cfg.Autosave.Schedule)
	case <-time.After(time.Second):
	}
	if got := a.cfgm.Get().Autosave.Schedule; got != "10m" {
		t.Fatalf("committed schedule = %q, want 10m", got)
	}
}
