// Package names is the name directory server: threads register themselves
// under a name and others resolve that name to a VID.
package names

import (
	"errors"

	"duet/kernel"
	"duet/proto"
)

// MaxEntries bounds the directory.
const MaxEntries = 32

type Service struct {
	byName map[string]kernel.VID
}

func New() *Service {
	return &Service{byName: make(map[string]kernel.VID)}
}

// Run serves requests until the thread receives SIGTERM, SIGINT or SIGHUP.
func (s *Service) Run(ctx *kernel.Context) {
	for {
		msg, err := ctx.Receive()
		if errors.Is(err, kernel.ErrInterrupted) {
			set := ctx.SigTake()
			if set.Has(kernel.SIGTERM) || set.Has(kernel.SIGINT) || set.Has(kernel.SIGHUP) {
				return
			}
			continue
		}
		if err != nil {
			return
		}
		_ = ctx.Reply(msg.From, s.handle(ctx, msg))
	}
}

func (s *Service) handle(ctx *kernel.Context, msg kernel.Message) []byte {
	kind, payload, ok := proto.Decode(msg.Data)
	if !ok {
		return proto.Reply(proto.ErrBadMessage, 0, "")
	}
	name := string(payload)
	if len(name) == 0 || len(name) > proto.MaxNameLen {
		return proto.Reply(proto.ErrBadMessage, kind, "bad name")
	}

	switch kind {
	case proto.MsgNameRegister:
		if owner, ok := s.byName[name]; ok && owner != msg.From && s.alive(ctx, owner) {
			return proto.Reply(proto.ErrBusy, kind, name)
		}
		if _, ok := s.byName[name]; !ok && len(s.byName) >= MaxEntries {
			s.prune(ctx)
			if len(s.byName) >= MaxEntries {
				return proto.Reply(proto.ErrTooLarge, kind, name)
			}
		}
		s.byName[name] = msg.From
		return proto.Encode(proto.MsgOK, nil)

	case proto.MsgNameLookup:
		vid, ok := s.byName[name]
		if !ok || !s.alive(ctx, vid) {
			delete(s.byName, name)
			return proto.Reply(proto.ErrNotFound, kind, name)
		}
		return proto.Encode(proto.MsgNameLookupResp, proto.NameLookupRespPayload(uint16(vid)))

	case proto.MsgNameUnregister:
		owner, ok := s.byName[name]
		if !ok {
			return proto.Reply(proto.ErrNotFound, kind, name)
		}
		if owner != msg.From {
			return proto.Reply(proto.ErrUnauthorized, kind, name)
		}
		delete(s.byName, name)
		return proto.Encode(proto.MsgOK, nil)

	default:
		return proto.Reply(proto.ErrBadMessage, kind, "")
	}
}

// alive probes vid with signal 0.
func (s *Service) alive(ctx *kernel.Context, vid kernel.VID) bool {
	return ctx.Kill(vid, 0) == nil
}

// prune drops entries whose owner has terminated.
func (s *Service) prune(ctx *kernel.Context) {
	for name, vid := range s.byName {
		if !s.alive(ctx, vid) {
			delete(s.byName, name)
		}
	}
}
