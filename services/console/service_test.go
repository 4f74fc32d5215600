package console

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"testing"
	"time"

	"duet/hal"
	"duet/kernel"
	"duet/proto"
)

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) WriteLineString(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}

func (l *testLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

type testFramebuffer struct {
	w, h     int
	buf      []byte
	presents int
}

func newTestFramebuffer(w, h int) *testFramebuffer {
	return &testFramebuffer{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *testFramebuffer) Width() int                   { return f.w }
func (f *testFramebuffer) Height() int                  { return f.h }
func (f *testFramebuffer) Format() hal.PixelFormat      { return hal.PixelFormatRGB565 }
func (f *testFramebuffer) StrideBytes() int             { return f.w * 2 }
func (f *testFramebuffer) Buffer() []byte               { return f.buf }
func (f *testFramebuffer) Present() error               { f.presents++; return nil }
func (f *testFramebuffer) ClearRGB(r, g, b uint8)       {}
func (f *testFramebuffer) Framebuffer() hal.Framebuffer { return f }

func (f *testFramebuffer) pixel(x, y int) uint16 {
	off := y*f.w*2 + x*2
	return uint16(f.buf[off]) | uint16(f.buf[off+1])<<8
}

func runKernel(t *testing.T, entries ...kernel.Entry) {
	t.Helper()
	cfg := kernel.DefaultConfig()
	cfg.Cores = 1
	cfg.Paranoid = true
	k, err := kernel.New(cfg, hal.NewHostPlatform(1), nil)
	if err != nil {
		t.Fatalf("kernel.New: %v", err)
	}
	for i, e := range entries {
		if _, err := k.Spawn(e, kernel.ThreadAttr{Priority: i}); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestConsoleServesClients(t *testing.T) {
	log := &testLogger{}
	fb := newTestFramebuffer(160, 120)
	svc := New(log, fb)
	var con kernel.VID

	runKernel(t,
		func(ctx *kernel.Context) {
			con = ctx.Self()
			svc.Run(ctx)
		},
		func(ctx *kernel.Context) {
			if err := Log(ctx, con, "hello\n"); err != nil {
				t.Errorf("Log: %v", err)
			}
			if _, err := fmt.Fprintf(Writer{Ctx: ctx, Console: con}, "%s", strings.Repeat("x", MaxWrite+10)); err != nil {
				t.Errorf("Writer: %v", err)
			}
			if err := Clear(ctx, con); err != nil {
				t.Errorf("Clear: %v", err)
			}

			resp, err := ctx.Call(con, proto.Encode(proto.MsgTermWrite, make([]byte, MaxWrite+1)))
			var remote *proto.RemoteError
			if _, err2 := proto.CheckReply(resp, proto.MsgOK); err != nil || !errors.As(err2, &remote) || remote.Code != proto.ErrTooLarge {
				t.Errorf("oversized write = %v, %v", err, err2)
			}
			resp, _ = ctx.Call(con, []byte{0xEE, 0xEE})
			if _, err := proto.CheckReply(resp, proto.MsgOK); !errors.As(err, &remote) || remote.Code != proto.ErrBadMessage {
				t.Errorf("unknown kind = %v", err)
			}

			// Any other signal leaves the console serving.
			_ = ctx.Kill(con, kernel.SIGUSR1)
			if err := Logf(ctx, con, "still %s", "here"); err != nil {
				t.Errorf("Logf after SIGUSR1: %v", err)
			}
			_ = ctx.Kill(con, kernel.SIGTERM)
			if code, err := ctx.Join(con); err != nil || code != 0 {
				t.Errorf("Join(console) = %d, %v", code, err)
			}
		},
	)

	if svc.Lines() != 2 {
		t.Fatalf("Lines = %d, want 2", svc.Lines())
	}
	if len(log.lines) != 2 || !strings.HasSuffix(log.lines[0], "] hello") || !strings.HasSuffix(log.lines[1], "] still here") {
		t.Fatalf("log = %q", log.lines)
	}
	if fb.presents < 3 {
		t.Fatalf("presents = %d, want a frame per write", fb.presents)
	}
}

func TestFBDisplayScroll(t *testing.T) {
	fb := newTestFramebuffer(4, 4)
	d := newFBDisplay(fb)
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	d.SetPixel(1, 0, white)
	_ = d.FillRectangle(0, 3, 4, 1, white)
	d.SetPixel(9, 9, white)
	_ = d.Display()
	if fb.pixel(1, 0) != 0xFFFF || fb.pixel(2, 3) != 0xFFFF || fb.pixel(0, 1) != 0 {
		t.Fatal("unscrolled frame wrong")
	}

	d.SetScroll(1)
	_ = d.Display()
	if fb.pixel(1, 3) != 0xFFFF || fb.pixel(2, 2) != 0xFFFF || fb.pixel(1, 0) != 0 {
		t.Fatal("line 0 did not move to the bottom after SetScroll(1)")
	}

	d.SetScroll(-1)
	if d.scroll != 3 {
		t.Fatalf("scroll = %d, want 3", d.scroll)
	}
	d.clear()
	_ = d.Display()
	if fb.pixel(1, 0) != 0 || d.scroll != 0 {
		t.Fatal("clear left pixels behind")
	}
}
