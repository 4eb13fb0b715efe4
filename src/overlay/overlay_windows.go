//go:build windows

package overlay

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"screen-translate/src/capture"
	"screen-translate/src/screenshot"
)

const (
	overlayKeyPollTimerID    = 1
	overlayKeyPollIntervalMs = 25
	overlayClassName         = "ScreenTranslateOverlay"
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")

	gdi32DLL      = syscall.NewLazyDLL("gdi32.dll")
	procCreatePen = gdi32DLL.NewProc("CreatePen")
	procRectangle = gdi32DLL.NewProc("Rectangle")
)

var (
	registerOnce  sync.Once
	registerErr   error
	classNamePtr  *uint16
	wndProcThunk  = syscall.NewCallback(overlayWndProc)
	cursors       map[Cursor]win.HCURSOR
	active        *overlayRun
	activeRunning atomic.Bool
)

// overlayRun is the state of the one overlay on screen. It is only
// touched from the overlay's locked OS thread.
type overlayRun struct {
	hwnd       win.HWND
	ctl        *controller
	width      int
	height     int
	bgra       []byte
	outcome    capture.Outcome
	done       bool
	escWasDown bool
	entWasDown bool
}

type windowsSelector struct{}

func newPlatformSelector() Selector { return windowsSelector{} }

func (windowsSelector) Select(ctx context.Context, mode capture.Mode, intent capture.Intent) (capture.Outcome, error) {
	if !activeRunning.CompareAndSwap(false, true) {
		return capture.Outcome{}, ErrBusy
	}
	defer activeRunning.Store(false)

	type result struct {
		out capture.Outcome
		err error
	}
	ch := make(chan result, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		out, err := runOverlay(ctx, mode, intent)
		ch <- result{out, err}
	}()
	r := <-ch
	return r.out, r.err
}

func registerClass() error {
	registerOnce.Do(func() {
		classNamePtr = syscall.StringToUTF16Ptr(overlayClassName)
		cursors = map[Cursor]win.HCURSOR{
			CursorCross:    win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
			CursorMove:     win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_SIZEALL)),
			CursorSizeNWSE: win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_SIZENWSE)),
			CursorSizeNESW: win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_SIZENESW)),
			CursorSizeWE:   win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_SIZEWE)),
			CursorSizeNS:   win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_SIZENS)),
		}
		wndClass := win.WNDCLASSEX{
			CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
			Style:         win.CS_HREDRAW | win.CS_VREDRAW,
			LpfnWndProc:   wndProcThunk,
			HInstance:     win.GetModuleHandle(nil),
			HCursor:       cursors[CursorCross],
			LpszClassName: classNamePtr,
		}
		if atom := win.RegisterClassEx(&wndClass); atom == 0 {
			registerErr = fmt.Errorf("failed to register window class")
		}
	})
	return registerErr
}

func runOverlay(ctx context.Context, mode capture.Mode, intent capture.Intent) (capture.Outcome, error) {
	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("OVERLAY: virtual screen x=%d y=%d w=%d h=%d, mode=%d intent=%s", vx, vy, vw, vh, mode, intent)

	screen, err := screenshot.Capture()
	if err != nil {
		return capture.Outcome{}, fmt.Errorf("failed to capture screen: %w", err)
	}
	if err := registerClass(); err != nil {
		return capture.Outcome{}, err
	}

	run := &overlayRun{
		ctl:    newController(screen, image.Pt(int(vx), int(vy)), screenshot.ScaleFactor(), mode, intent),
		width:  screen.Bounds().Dx(),
		height: screen.Bounds().Dy(),
		bgra:   toBGRA(screen),
	}
	active = run
	defer func() { active = nil }()

	run.hwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		classNamePtr,
		syscall.StringToUTF16Ptr("Select Region"),
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if run.hwnd == 0 {
		return capture.Outcome{}, fmt.Errorf("failed to create overlay window")
	}

	win.ShowWindow(run.hwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(run.hwnd)
	win.BringWindowToTop(run.hwnd)
	win.SetFocus(run.hwnd)
	win.UpdateWindow(run.hwnd)
	if timerID := win.SetTimer(run.hwnd, overlayKeyPollTimerID, overlayKeyPollIntervalMs, 0); timerID == 0 {
		log.Printf("OVERLAY: Failed to start keyboard poll timer")
	}

	// A cancelled context closes the window from outside the message loop.
	stop := context.AfterFunc(ctx, func() {
		win.PostMessage(run.hwnd, win.WM_CLOSE, 0, 0)
	})
	defer stop()

	start := time.Now()
	var msg win.MSG
	for !run.done {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			log.Printf("OVERLAY: message loop ended (ret=%d)", ret)
			run.finish(run.ctl.s.Cancel())
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	win.DestroyWindow(run.hwnd)
	log.Printf("OVERLAY: session closed after %v, outcome kind=%d rect=%v", time.Since(start), run.outcome.Kind, run.outcome.Rect)

	if err := ctx.Err(); err != nil && run.outcome.Kind != capture.Finalized {
		return capture.Outcome{}, err
	}
	return run.outcome, nil
}

// finish records a terminal outcome; Pending outcomes are ignored.
func (r *overlayRun) finish(out capture.Outcome) {
	if out.Kind == capture.Pending || r.done {
		return
	}
	r.outcome = out
	r.done = true
}

func (r *overlayRun) repaint() {
	win.InvalidateRect(r.hwnd, nil, false)
	win.UpdateWindow(r.hwnd)
}

func clientPoint(lParam uintptr) (int32, int32) {
	return int32(int16(win.LOWORD(uint32(lParam)))), int32(int16(win.HIWORD(uint32(lParam))))
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	r := active
	if r == nil || (r.hwnd != 0 && r.hwnd != hwnd) {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case win.WM_LBUTTONDOWN:
		x, y := clientPoint(lParam)
		win.SetCapture(hwnd)
		r.finish(r.ctl.down(x, y))
		r.repaint()
		return 0

	case win.WM_MOUSEMOVE:
		if r.ctl.dragging() {
			x, y := clientPoint(lParam)
			r.finish(r.ctl.move(x, y))
			r.repaint()
		}
		return 0

	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		x, y := clientPoint(lParam)
		r.finish(r.ctl.up(x, y))
		r.repaint()
		return 0

	case win.WM_RBUTTONDOWN:
		r.finish(r.ctl.rightClick())
		return 0

	case win.WM_KEYDOWN:
		switch wParam {
		case win.VK_ESCAPE:
			r.escWasDown = true
			r.finish(r.ctl.key(KeyEscape))
		case win.VK_RETURN:
			r.entWasDown = true
			r.finish(r.ctl.key(KeyEnter))
		}
		return 0

	case win.WM_KEYUP:
		switch wParam {
		case win.VK_ESCAPE:
			r.escWasDown = false
		case win.VK_RETURN:
			r.entWasDown = false
		}
		return 0

	case win.WM_TIMER:
		if wParam == overlayKeyPollTimerID {
			r.pollKeys()
		}
		return 0

	case win.WM_SETCURSOR:
		var pt win.POINT
		win.GetCursorPos(&pt)
		win.ScreenToClient(hwnd, &pt)
		if c := cursors[r.ctl.cursorAt(pt.X, pt.Y)]; c != 0 {
			win.SetCursor(c)
		}
		return 1

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		r.paint(hdc)
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_NCHITTEST:
		return uintptr(win.HTCLIENT)

	case win.WM_CLOSE:
		r.finish(r.ctl.s.Cancel())
		return 0

	case win.WM_DESTROY:
		win.KillTimer(hwnd, overlayKeyPollTimerID)
		// No PostQuitMessage: a leftover WM_QUIT would end the next session immediately.
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func getAsyncKeyState(vk int32) (bool, bool) {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	s := uint16(state)
	return s&0x8000 != 0, s&0x0001 != 0
}

// pollKeys catches Escape and Enter when the overlay did not get focus.
func (r *overlayRun) pollKeys() {
	escDown, escPressed := getAsyncKeyState(win.VK_ESCAPE)
	if !r.escWasDown && (escDown || escPressed) {
		r.finish(r.ctl.key(KeyEscape))
	}
	r.escWasDown = escDown

	entDown, entPressed := getAsyncKeyState(win.VK_RETURN)
	if !r.entWasDown && (entDown || entPressed) {
		r.finish(r.ctl.key(KeyEnter))
	}
	r.entWasDown = entDown
}

func toBGRA(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, b.Dx()*b.Dy()*4)
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		dst := out[y*b.Dx()*4:]
		for x := 0; x < len(row); x += 4 {
			dst[x], dst[x+1], dst[x+2], dst[x+3] = row[x+2], row[x+1], row[x], row[x+3]
		}
	}
	return out
}

func (r *overlayRun) paint(hdc win.HDC) {
	r.drawBackground(hdc)

	if sel, ok := r.ctl.selection(); ok {
		pen, _, _ := procCreatePen.Call(0, 2, 0x0000FF)
		oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
		oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))
		procRectangle.Call(uintptr(hdc), uintptr(sel.Min.X), uintptr(sel.Min.Y), uintptr(sel.Max.X), uintptr(sel.Max.Y))

		win.SelectObject(hdc, win.GetStockObject(win.WHITE_BRUSH))
		for _, g := range r.ctl.grips() {
			procRectangle.Call(uintptr(hdc), uintptr(g.Min.X), uintptr(g.Min.Y), uintptr(g.Max.X), uintptr(g.Max.Y))
		}
		win.SelectObject(hdc, oldPen)
		win.SelectObject(hdc, oldBrush)
		win.DeleteObject(win.HGDIOBJ(pen))
	}

	hint := r.ctl.hint()
	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFF))
	win.TextOut(hdc, 16, 16, syscall.StringToUTF16Ptr(hint), int32(len(hint)))
}

// drawBackground blits the frozen screenshot.
func (r *overlayRun) drawBackground(hdc win.HDC) {
	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(r.width),
			BiHeight:      -int32(r.height), // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}
	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))
	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	// 32bpp rows are already DWORD aligned.
	copy(unsafe.Slice((*byte)(pBits), len(r.bgra)), r.bgra)
	win.BitBlt(hdc, 0, 0, int32(r.width), int32(r.height), memDC, 0, 0, win.SRCCOPY)
}
