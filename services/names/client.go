package names

import (
	"errors"
	"fmt"

	"duet/kernel"
	"duet/proto"
)

// Register binds name to the calling thread.
func Register(ctx *kernel.Context, server kernel.VID, name string) error {
	_, err := call(ctx, server, proto.MsgNameRegister, name, proto.MsgOK)
	return err
}

// Unregister drops a binding owned by the calling thread.
func Unregister(ctx *kernel.Context, server kernel.VID, name string) error {
	_, err := call(ctx, server, proto.MsgNameUnregister, name, proto.MsgOK)
	return err
}

// Lookup resolves name. An unknown name, or one whose owner has terminated,
// fails with kernel.ErrNotFound.
func Lookup(ctx *kernel.Context, server kernel.VID, name string) (kernel.VID, error) {
	payload, err := call(ctx, server, proto.MsgNameLookup, name, proto.MsgNameLookupResp)
	if err != nil {
		return 0, err
	}
	vid, ok := proto.DecodeNameLookupRespPayload(payload)
	if !ok {
		return 0, fmt.Errorf("names: malformed lookup reply")
	}
	return kernel.VID(vid), nil
}

func call(ctx *kernel.Context, server kernel.VID, kind proto.Kind, name string, want proto.Kind) ([]byte, error) {
	resp, err := ctx.Call(server, proto.Encode(kind, proto.NamePayload(name)))
	if err != nil {
		return nil, fmt.Errorf("names %s %q: %w", kind, name, err)
	}
	payload, err := proto.CheckReply(resp, want)
	var remote *proto.RemoteError
	if errors.As(err, &remote) {
		return nil, fmt.Errorf("names %s %q: %w", kind, name, errnoOf(remote.Code))
	}
	return payload, err
}

func errnoOf(code proto.ErrCode) kernel.Errno {
	switch code {
	case proto.ErrNotFound:
		return kernel.ErrNotFound
	case proto.ErrUnauthorized:
		return kernel.ErrPermission
	case proto.ErrTooLarge:
		return kernel.ErrExhausted
	default:
		return kernel.ErrInvalid
	}
}
