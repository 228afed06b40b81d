package headers

import (
	"google.golang.org/grpc/metadata"
)

type grpcMetadata metadata.MD

// GRPC wraps gRPC metadata as a Container. gRPC keys are always lower
// case, so matching is case-insensitive by construction.
func GRPC(md metadata.MD) Container { return grpcMetadata(md) }

func (md grpcMetadata) Values(name string) []string {
	return append([]string(nil), metadata.MD(md).Get(name)...)
}

func (md grpcMetadata) Add(name, value string) {
	metadata.MD(md).Append(name, value)
}

func (md grpcMetadata) Del(name string) {
	metadata.MD(md).Delete(name)
}
