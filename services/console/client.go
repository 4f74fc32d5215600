package console

import (
	"fmt"

	"duet/kernel"
	"duet/proto"
)

// Log sends one line to the console at vid.
func Log(ctx *kernel.Context, vid kernel.VID, line string) error {
	return call(ctx, vid, proto.MsgLogLine, proto.LogLinePayload([]byte(line)))
}

// Logf formats and sends one line.
func Logf(ctx *kernel.Context, vid kernel.VID, format string, args ...any) error {
	return Log(ctx, vid, fmt.Sprintf(format, args...))
}

// Clear resets the console terminal.
func Clear(ctx *kernel.Context, vid kernel.VID) error {
	return call(ctx, vid, proto.MsgTermClear, nil)
}

// Writer streams raw terminal output to a console.
type Writer struct {
	Ctx     *kernel.Context
	Console kernel.VID
}

func (w Writer) Write(p []byte) (int, error) {
	n := 0
	for len(p) > 0 {
		chunk := p
		if len(chunk) > MaxWrite {
			chunk = chunk[:MaxWrite]
		}
		if err := call(w.Ctx, w.Console, proto.MsgTermWrite, chunk); err != nil {
			return n, err
		}
		n += len(chunk)
		p = p[len(chunk):]
	}
	return n, nil
}

func call(ctx *kernel.Context, vid kernel.VID, kind proto.Kind, payload []byte) error {
	resp, err := ctx.Call(vid, proto.Encode(kind, payload))
	if err != nil {
		return fmt.Errorf("console %s: %w", kind, err)
	}
	_, err = proto.CheckReply(resp, proto.MsgOK)
	return err
}
