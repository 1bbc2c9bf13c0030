package kafka

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/proto"
)

var decodeOpts = proto.UnmarshalOptions{DiscardUnknown: true}

// ProtoHandler adapts a typed handler to raw messages. Empty values are
// tombstones and are acknowledged without calling handle.
func ProtoHandler[M proto.Message](newMsg func() M, handle func(ctx context.Context, key []byte, msg M) error) Handler {
	return func(ctx context.Context, key, value []byte) error {
		if len(value) == 0 {
			return nil
		}
		msg := newMsg()
		if err := decodeOpts.Unmarshal(value, msg); err != nil {
			return fmt.Errorf("decode %s: %w", msg.ProtoReflect().Descriptor().FullName(), err)
		}
		return handle(ctx, key, msg)
	}
}
