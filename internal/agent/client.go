package agent

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Client talks to a running agent.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the agent socket at path. The connection is established
// lazily on the first call.
func Dial(path string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient("unix://"+path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent client: %w", err)
	}
	return &Client{conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, MethodStatus, &emptypb.Empty{}, out); err != nil {
		return Status{}, fromStatus(err)
	}
	return statusFromStruct(out), nil
}

// ListEntries lists entries directly under group. AllEntries lists every
// entry; "root" lists those directly under the root.
func (c *Client) ListEntries(ctx context.Context, group string) ([]EntrySummary, error) {
	out := &structpb.ListValue{}
	if err := c.conn.Invoke(ctx, MethodListEntries, wrapperspb.String(group), out); err != nil {
		return nil, fromStatus(err)
	}
	res := make([]EntrySummary, 0, len(out.GetValues()))
	for _, v := range out.GetValues() {
		res = append(res, summaryFromStruct(v.GetStructValue()))
	}
	return res, nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (EntryDetail, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, MethodGetEntry, wrapperspb.String(id), out); err != nil {
		return EntryDetail{}, fromStatus(err)
	}
	return detailFromStruct(out), nil
}

func (c *Client) Lock(ctx context.Context) error {
	if err := c.conn.Invoke(ctx, MethodLock, &emptypb.Empty{}, &emptypb.Empty{}); err != nil {
		return fromStatus(err)
	}
	return nil
}

// fromStatus maps agent status codes back onto the common error taxonomy.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", common.ErrGeneric, err)
	}
	switch st.Code() {
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", common.ErrLocked, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, st.Message())
	default:
		return fmt.Errorf("%w: %s", common.ErrGeneric, st.Message())
	}
}
