package console

import (
	"image/color"

	"duet/hal"

	"tinygo.org/x/drivers"
)

// fbDisplay adapts a framebuffer to the terminal. The terminal draws into a
// back buffer and scrolls by moving the first visible line; Display copies
// the back buffer to the framebuffer starting at that line.
type fbDisplay struct {
	fb     hal.Framebuffer
	back   []byte
	stride int
	w, h   int
	scroll int
}

func newFBDisplay(fb hal.Framebuffer) *fbDisplay {
	if fb == nil || fb.Format() != hal.PixelFormatRGB565 {
		return nil
	}
	w, h := fb.Width(), fb.Height()
	return &fbDisplay{
		fb:     fb,
		back:   make([]byte, w*2*h),
		stride: w * 2,
		w:      w,
		h:      h,
	}
}

func (d *fbDisplay) Size() (x, y int16) {
	return int16(d.w), int16(d.h)
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.w || iy < 0 || iy >= d.h {
		return
	}
	pixel := hal.RGB565(c.R, c.G, c.B)
	off := iy*d.stride + ix*2
	d.back[off] = byte(pixel)
	d.back[off+1] = byte(pixel >> 8)
}

func (d *fbDisplay) Display() error {
	buf := d.fb.Buffer()
	if buf == nil {
		return nil
	}
	dst := d.fb.StrideBytes()
	row := d.stride
	if row > dst {
		row = dst
	}
	for y := 0; y < d.h; y++ {
		src := ((y + d.scroll) % d.h) * d.stride
		off := y * dst
		if off+row > len(buf) {
			break
		}
		copy(buf[off:off+row], d.back[src:src+row])
	}
	return d.fb.Present()
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	x0 := clampInt(int(x), 0, d.w)
	y0 := clampInt(int(y), 0, d.h)
	x1 := clampInt(int(x)+int(width), 0, d.w)
	y1 := clampInt(int(y)+int(height), 0, d.h)
	if x0 >= x1 || y0 >= y1 {
		return nil
	}

	pixel := hal.RGB565(c.R, c.G, c.B)
	lo := byte(pixel)
	hi := byte(pixel >> 8)
	for py := y0; py < y1; py++ {
		row := py * d.stride
		for px := x0; px < x1; px++ {
			d.back[row+px*2] = lo
			d.back[row+px*2+1] = hi
		}
	}
	return nil
}

// SetScroll makes line the first visible line from the next Display on.
func (d *fbDisplay) SetScroll(line int16) {
	if d.h == 0 {
		return
	}
	d.scroll = ((int(line) % d.h) + d.h) % d.h
}

func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return hal.ErrNotImplemented
	}
	return nil
}

// clear blanks the back buffer and resets scrolling.
func (d *fbDisplay) clear() {
	for i := range d.back {
		d.back[i] = 0
	}
	d.scroll = 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
