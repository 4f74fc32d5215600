// Package console is the system console server. Clients send log lines and
// raw terminal output over rendezvous calls; the server writes them to the
// platform logger and renders them on the framebuffer terminal.
package console

import (
	"errors"
	"fmt"

	"duet/hal"
	"duet/kernel"
	"duet/proto"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// MaxWrite bounds one terminal write.
const MaxWrite = 512

type Service struct {
	log  hal.Logger
	disp hal.Display

	d *fbDisplay
	t *tinyterm.Terminal

	lines uint64
}

// New returns a console writing to log and, when disp has an RGB565
// framebuffer, to a terminal drawn on it. Either may be nil.
func New(log hal.Logger, disp hal.Display) *Service {
	return &Service{log: log, disp: disp}
}

// Lines reports how many log lines the console has accepted.
func (s *Service) Lines() uint64 { return s.lines }

// Run serves requests until the thread receives SIGTERM, SIGINT or SIGHUP.
func (s *Service) Run(ctx *kernel.Context) {
	if s.disp != nil {
		s.d = newFBDisplay(s.disp.Framebuffer())
	}
	s.reset()

	for {
		msg, err := ctx.Receive()
		if errors.Is(err, kernel.ErrInterrupted) {
			if stopRequested(ctx.SigTake()) {
				return
			}
			continue
		}
		if err != nil {
			return
		}
		_ = ctx.Reply(msg.From, s.handle(msg))
	}
}

func stopRequested(set kernel.SigSet) bool {
	return set.Has(kernel.SIGTERM) || set.Has(kernel.SIGINT) || set.Has(kernel.SIGHUP)
}

func (s *Service) handle(msg kernel.Message) []byte {
	kind, payload, ok := proto.Decode(msg.Data)
	if !ok {
		return proto.Reply(proto.ErrBadMessage, 0, "")
	}
	switch kind {
	case proto.MsgLogLine:
		s.lines++
		if s.log != nil {
			s.log.WriteLineString(fmt.Sprintf("[%d] %s", msg.From, payload))
		}
		if s.t != nil {
			_, _ = s.t.Write(payload)
			_, _ = s.t.Write([]byte("\r\n"))
			s.t.Display()
		}
	case proto.MsgTermWrite:
		if len(payload) > MaxWrite {
			return proto.Reply(proto.ErrTooLarge, kind, "")
		}
		if s.t != nil {
			_, _ = s.t.Write(payload)
			s.t.Display()
		}
	case proto.MsgTermClear:
		s.reset()
	default:
		return proto.Reply(proto.ErrBadMessage, kind, "")
	}
	return proto.Encode(proto.MsgOK, nil)
}

func (s *Service) reset() {
	if s.d == nil {
		return
	}
	s.d.clear()
	s.t = tinyterm.NewTerminal(s.d)
	s.t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: 10,
		FontOffset: 6,
	})
	_ = s.d.Display()
}
