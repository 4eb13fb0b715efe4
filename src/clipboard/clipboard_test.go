package clipboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRunRestoresText(t *testing.T) {
	mem := NewMemory()
	mem.Write(FmtText, []byte("original"))
	tx := NewTransaction(mem, nil)

	err := tx.Run(context.Background(), func(b Board) error {
		b.Write(FmtText, []byte("sentinel"))
		if got := string(b.Read(FmtText)); got != "sentinel" {
			t.Errorf("inside run read %q", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := mem.Text(); got != "original" {
		t.Fatalf("after run clipboard = %q, want original", got)
	}
}

func TestRunRestoresOnError(t *testing.T) {
	mem := NewMemory()
	mem.Write(FmtImage, []byte{0x89, 'P', 'N', 'G'})
	tx := NewTransaction(mem, nil)
	want := errors.New("boom")

	err := tx.Run(context.Background(), func(b Board) error {
		b.Write(FmtText, []byte("copied"))
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("Run error = %v", err)
	}
	if got := mem.Read(FmtImage); string(got) != "\x89PNG" {
		t.Fatalf("image not restored: %q", got)
	}
}

func TestRunRestoresEmptyClipboard(t *testing.T) {
	mem := NewMemory()
	tx := NewTransaction(mem, nil)
	_ = tx.Run(context.Background(), func(b Board) error {
		b.Write(FmtText, []byte("copied"))
		return nil
	})
	if got := mem.Text(); got != "" {
		t.Fatalf("clipboard = %q, want empty", got)
	}
}

func TestRunRestoresAfterCancel(t *testing.T) {
	mem := NewMemory()
	mem.Write(FmtText, []byte("keep"))
	tx := NewTransaction(mem, nil)
	ctx, cancel := context.WithCancel(context.Background())

	_ = tx.Run(ctx, func(b Board) error {
		b.Write(FmtText, []byte("sentinel"))
		cancel()
		return ctx.Err()
	})
	if got := mem.Text(); got != "keep" {
		t.Fatalf("clipboard = %q, want keep", got)
	}
}

func TestWriteChannelClosesOnOverwrite(t *testing.T) {
	mem := NewMemory()
	changed := mem.Write(FmtText, []byte("a"))
	select {
	case <-changed:
		t.Fatal("closed before overwrite")
	default:
	}
	mem.Write(FmtText, []byte("b"))
	select {
	case <-changed:
	default:
		t.Fatal("not closed after overwrite")
	}
}

func TestTransactionsDoNotInterleave(t *testing.T) {
	mem := NewMemory()
	mem.Write(FmtText, []byte("base"))
	tx := NewTransaction(mem, nil)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		inside int
		maxIn  int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tx.Run(context.Background(), func(b Board) error {
				mu.Lock()
				inside++
				if inside > maxIn {
					maxIn = inside
				}
				mu.Unlock()
				b.Write(FmtText, []byte("x"))
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	if maxIn != 1 {
		t.Fatalf("max concurrent transactions = %d", maxIn)
	}
	if got := mem.Text(); got != "base" {
		t.Fatalf("clipboard = %q, want base", got)
	}
}

func TestWriteTextOutsideRun(t *testing.T) {
	mem := NewMemory()
	tx := NewTransaction(mem, nil)
	if err := tx.WriteText(context.Background(), "hello"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if got := mem.Text(); got != "hello" {
		t.Fatalf("clipboard = %q", got)
	}
}

func TestRunRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("clipboard content survives a transaction", prop.ForAll(
		func(before, written string) bool {
			mem := NewMemory()
			if before != "" {
				mem.Write(FmtText, []byte(before))
			}
			tx := NewTransaction(mem, nil)
			_ = tx.Run(context.Background(), func(b Board) error {
				b.Write(FmtText, []byte(written))
				return nil
			})
			return mem.Text() == before
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestBackupRestoreImage(t *testing.T) {
	mem := NewMemory()
	png := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	mem.Write(FmtImage, png)
	tx := NewTransaction(mem, nil)

	snap := tx.Backup(context.Background())
	if snap.Empty() {
		t.Fatal("snapshot of an image clipboard should not be empty")
	}
	if err := tx.WriteText(context.Background(), "copied"); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	tx.Restore(context.Background(), snap)

	if got := mem.Read(FmtImage); string(got) != string(png) {
		t.Fatalf("image not restored: %v", got)
	}
}

func TestBackupRestoreProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("restore undoes any write after backup", prop.ForAll(
		func(before, written string) bool {
			mem := NewMemory()
			mem.Write(FmtText, []byte(before))
			tx := NewTransaction(mem, nil)

			snap := tx.Backup(context.Background())
			_ = tx.WriteText(context.Background(), written)
			tx.Restore(context.Background(), snap)
			return mem.Text() == before
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
