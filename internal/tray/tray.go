// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/getlantern/systray"
)

// Capture is the capture session driven from the tray
type Capture interface {
	Start() error
	Stop() error
	IsRunning() bool
}

// StatusFunc returns one line describing capture state
type StatusFunc func() string

// Tray manages the system tray icon and menu
type Tray struct {
	capture Capture
	status  StatusFunc
	onQuit  func()
	tooltip string

	mu       sync.Mutex
	toggle   *systray.MenuItem
	statusMI *systray.MenuItem
	quitCh   chan struct{}
	quitOnce sync.Once
}

// New creates a new system tray. status and onQuit may be nil.
func New(tooltip string, capture Capture, status StatusFunc, onQuit func()) *Tray {
	return &Tray{
		capture: capture,
		status:  status,
		onQuit:  onQuit,
		tooltip: tooltip,
		quitCh:  make(chan struct{}),
	}
}

// Run starts the tray event loop (blocks). It must be called from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.exit)
}

// Stop stops the tray
func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) exit() {
	t.quitOnce.Do(func() { close(t.quitCh) })
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	systray.SetTitle("inputhook")
	systray.SetTooltip(t.tooltip)

	t.mu.Lock()
	t.statusMI = systray.AddMenuItem("", "Capture status")
	t.statusMI.Disable()
	systray.AddSeparator()
	t.toggle = systray.AddMenuItemCheckbox("Capture", "Start or stop input capture", false)
	t.mu.Unlock()
	systray.AddSeparator()
	quit := systray.AddMenuItem("Quit", "Stop capture and exit")

	t.refresh()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-t.toggle.ClickedCh:
				t.Toggle()
			case <-quit.ClickedCh:
				log.Println("Tray: Quit selected")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
			case <-ticker.C:
				t.refresh()
			case <-t.quitCh:
				return
			}
		}
	}()
}

// Toggle starts capture when stopped and stops it when running
func (t *Tray) Toggle() {
	var err error
	if t.capture.IsRunning() {
		err = t.capture.Stop()
	} else {
		err = t.capture.Start()
	}
	if err != nil {
		log.Printf("Tray: toggle capture failed: %v", err)
	}
	t.refresh()
}

func (t *Tray) refresh() {
	running := t.capture.IsRunning()
	line := t.statusLine(running)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.toggle == nil {
		return
	}
	if running {
		t.toggle.Check()
	} else {
		t.toggle.Uncheck()
	}
	t.statusMI.SetTitle(line)
	systray.SetIcon(Icon(running))
}

func (t *Tray) statusLine(running bool) string {
	if t.status != nil {
		return t.status()
	}
	if running {
		return "Capturing"
	}
	return "Stopped"
}

var (
	colorRunning = [4]byte{0x3C, 0xB3, 0x4A, 0xFF} // BGRA green
	colorStopped = [4]byte{0x80, 0x80, 0x80, 0xFF} // BGRA gray
)

// Icon returns a 16x16 32-bit ICO filled with the state color
func Icon(running bool) []byte {
	const (
		size      = 16
		pixelSize = size * size * 4
		maskSize  = size * 4 // 1bpp rows padded to 32 bits
		dibSize   = 40
		imageSize = dibSize + pixelSize + maskSize
		offset    = 22
	)
	color := colorStopped
	if running {
		color = colorRunning
	}

	icon := make([]byte, offset+imageSize)
	// ICO Header: reserved, type=1, count=1
	binary.LittleEndian.PutUint16(icon[2:4], 1)
	binary.LittleEndian.PutUint16(icon[4:6], 1)
	// Icon Directory
	icon[6], icon[7] = size, size
	binary.LittleEndian.PutUint16(icon[10:12], 1)  // planes
	binary.LittleEndian.PutUint16(icon[12:14], 32) // bpp
	binary.LittleEndian.PutUint32(icon[14:18], imageSize)
	binary.LittleEndian.PutUint32(icon[18:22], offset)
	// DIB Header
	dib := icon[offset:]
	binary.LittleEndian.PutUint32(dib[0:4], dibSize)
	binary.LittleEndian.PutUint32(dib[4:8], size)
	binary.LittleEndian.PutUint32(dib[8:12], size*2) // XOR + AND masks
	binary.LittleEndian.PutUint16(dib[12:14], 1)
	binary.LittleEndian.PutUint16(dib[14:16], 32)
	binary.LittleEndian.PutUint32(dib[20:24], pixelSize+maskSize)

	// Filled circle, transparent corners
	pixels := dib[dibSize : dibSize+pixelSize]
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := 2*x-size+1, 2*y-size+1
			if dx*dx+dy*dy <= (size-1)*(size-1) {
				copy(pixels[(y*size+x)*4:], color[:])
			}
		}
	}
	return icon
}

// Describe formats a status line for the tray menu
func Describe(state string, delivered, dropped uint64) string {
	return fmt.Sprintf("%s: %d delivered, %d dropped", state, delivered, dropped)
}
