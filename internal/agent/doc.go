// Package agent keeps one vault unlocked in a long-running process and serves
// it to local clients over gRPC on a unix socket. The socket file is created
// owner-only; there is no other authentication.
//
// The service is described by a hand-written grpc.ServiceDesc whose messages
// are protobuf well-known types (Empty, StringValue, Struct, ListValue), so
// no generated code is needed on either side.
//
// An IdleLocker locks the session after a period without requests.
package agent
