package clipboard

import (
	"context"
	"fmt"
	"log"
	"sync"

	xclip "golang.design/x/clipboard"

	"screen-translate/src/uithread"
)

// Format mirrors the formats understood by golang.design/x/clipboard.
type Format = xclip.Format

const (
	FmtText  = xclip.FmtText
	FmtImage = xclip.FmtImage
)

// Board is the raw clipboard surface. Write returns a channel that is closed
// once another writer replaces the content.
type Board interface {
	Read(f Format) []byte
	Write(f Format, buf []byte) <-chan struct{}
}

type systemBoard struct{}

func (systemBoard) Read(f Format) []byte { return xclip.Read(f) }

func (systemBoard) Write(f Format, buf []byte) <-chan struct{} { return xclip.Write(f, buf) }

// Init initialises the system clipboard. A failure means selection
// translation cannot run; callers log it and continue without it.
func Init() error {
	return xclip.Init()
}

// System returns the process clipboard.
func System() Board { return systemBoard{} }

// Snapshot is an opaque backup of the clipboard content.
type Snapshot struct {
	format Format
	data   []byte
}

// Empty reports whether nothing was captured.
func (s Snapshot) Empty() bool { return len(s.data) == 0 }

// Transaction serialises every access to the clipboard. Only one transaction
// runs at a time and all board calls are executed on the UI thread.
type Transaction struct {
	mu    sync.Mutex
	board Board
	ui    uithread.Dispatcher
}

func NewTransaction(board Board, ui uithread.Dispatcher) *Transaction {
	if ui == nil {
		ui = uithread.Inline{}
	}
	return &Transaction{board: board, ui: ui}
}

// Run holds the clipboard for the duration of fn: the current content is
// backed up first and restored after fn returns, whatever fn does. Restoring
// ignores ctx cancellation.
func (t *Transaction) Run(ctx context.Context, fn func(b Board) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := &uiBoard{board: t.board, ui: t.ui, ctx: ctx}
	snap := backup(b)
	defer restore(&uiBoard{board: t.board, ui: t.ui, ctx: context.WithoutCancel(ctx)}, snap)

	return fn(b)
}

// Backup captures the current content. Failures are swallowed and yield an
// empty snapshot.
func (t *Transaction) Backup(ctx context.Context) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return backup(&uiBoard{board: t.board, ui: t.ui, ctx: ctx})
}

// Restore writes a snapshot back, best effort. An empty snapshot restores
// an empty text clipboard.
func (t *Transaction) Restore(ctx context.Context, s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	restore(&uiBoard{board: t.board, ui: t.ui, ctx: context.WithoutCancel(ctx)}, s)
}

// WriteText replaces the clipboard with text. Used by the copy intents.
func (t *Transaction) WriteText(ctx context.Context, text string) error {
	return t.write(ctx, FmtText, []byte(text))
}

// WriteImage replaces the clipboard with a PNG-encoded image.
func (t *Transaction) WriteImage(ctx context.Context, png []byte) error {
	return t.write(ctx, FmtImage, png)
}

func (t *Transaction) write(ctx context.Context, f Format, buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	b := &uiBoard{board: t.board, ui: t.ui, ctx: ctx}
	if _, err := b.write(f, buf); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

func backup(b *uiBoard) (s Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Clipboard backup failed: %v", r)
			s = Snapshot{}
		}
	}()

	if img, err := b.read(FmtImage); err == nil && len(img) > 0 {
		return Snapshot{format: FmtImage, data: img}
	}
	if text, err := b.read(FmtText); err == nil && len(text) > 0 {
		return Snapshot{format: FmtText, data: text}
	}
	return Snapshot{}
}

func restore(b *uiBoard, s Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Clipboard restore failed: %v", r)
		}
	}()

	var err error
	if s.Empty() {
		// The clipboard was empty before; clear whatever the copy left behind.
		_, err = b.write(FmtText, []byte{})
	} else {
		_, err = b.write(s.format, s.data)
	}
	if err != nil {
		log.Printf("Clipboard restore failed: %v", err)
	}
}

// uiBoard forwards board calls onto the UI thread.
type uiBoard struct {
	board Board
	ui    uithread.Dispatcher
	ctx   context.Context
}

func (u *uiBoard) read(f Format) (out []byte, err error) {
	err = u.ui.Do(u.ctx, func() { out = u.board.Read(f) })
	return out, err
}

func (u *uiBoard) write(f Format, buf []byte) (changed <-chan struct{}, err error) {
	err = u.ui.Do(u.ctx, func() { changed = u.board.Write(f, buf) })
	return changed, err
}

// Read satisfies Board for code running inside Run. Errors from the UI
// thread read as an empty clipboard.
func (u *uiBoard) Read(f Format) []byte {
	out, err := u.read(f)
	if err != nil {
		log.Printf("Clipboard read failed: %v", err)
		return nil
	}
	return out
}

// Write satisfies Board for code running inside Run. On a UI thread failure
// the returned channel is already closed.
func (u *uiBoard) Write(f Format, buf []byte) <-chan struct{} {
	changed, err := u.write(f, buf)
	if err != nil || changed == nil {
		log.Printf("Clipboard write failed: %v", err)
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return changed
}
