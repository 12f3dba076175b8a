package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/dmitrijs2005/vaultkeeper/internal/common"
	"github.com/dmitrijs2005/vaultkeeper/internal/filex"
	"github.com/dmitrijs2005/vaultkeeper/internal/logging"
	"github.com/dmitrijs2005/vaultkeeper/internal/models"
	"github.com/dmitrijs2005/vaultkeeper/internal/session"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// AllEntries is the ListEntries filter that selects every entry.
const AllEntries = ""

// Server serves one session.
type Server struct {
	sess   *session.Session
	idle   *IdleLocker
	logger logging.Logger
}

func NewServer(sess *session.Session, autoLockAfter time.Duration, l logging.Logger) *Server {
	l = l.With("module", "agent")
	return &Server{
		sess:   sess,
		idle:   NewIdleLocker(sess, autoLockAfter, l),
		logger: l,
	}
}

// Run listens on the unix socket at path until ctx is done. A stale socket
// file left by a previous run is removed first.
func (s *Server) Run(ctx context.Context, path string) error {
	if err := filex.EnsureParentDir(path); err != nil {
		return fmt.Errorf("failed to prepare socket dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	lis, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		lis.Close()
		return fmt.Errorf("failed to restrict socket: %w", err)
	}
	defer os.Remove(path)

	s.logger.Info(ctx, "Starting agent", "socket", path)
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully
// and locks the session.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.activityInterceptor))
	RegisterAgentServer(srv, s)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.idle.Run(ctx)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping agent...")
		srv.GracefulStop()
	}()

	err := srv.Serve(lis)
	s.sess.Lock()
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := Status{}
	if db := s.sess.Cached(); db != nil {
		st.Loaded = true
		st.Name = db.Meta.Name
		st.Entries = len(db.Entries)
		st.Groups = len(db.Groups)
		if h, ok := s.sess.Header(); ok {
			st.Fingerprint = h.Fingerprint()
		}
	}
	out, err := statusToStruct(st)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) ListEntries(ctx context.Context, in *wrapperspb.StringValue) (*structpb.ListValue, error) {
	db := s.sess.Cached()
	if db == nil {
		return nil, toStatus(common.ErrLocked)
	}

	var entries []models.Entry
	switch group := in.GetValue(); {
	case group == AllEntries:
		entries = db.Entries
	case models.IsRoot(group):
		entries = db.EntriesIn(models.RootGroupUUID)
	default:
		if _, ok := db.Group(group); !ok {
			return nil, toStatus(fmt.Errorf("group %q: %w", group, common.ErrNotFound))
		}
		entries = db.EntriesIn(group)
	}

	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(entries))}
	for i := range entries {
		st, err := summaryToStruct(&entries[i])
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		out.Values = append(out.Values, structpb.NewStructValue(st))
	}
	return out, nil
}

func (s *Server) GetEntry(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	db := s.sess.Cached()
	if db == nil {
		return nil, toStatus(common.ErrLocked)
	}
	e, ok := db.Entry(in.GetValue())
	if !ok {
		return nil, toStatus(fmt.Errorf("entry %q: %w", in.GetValue(), common.ErrNotFound))
	}
	out, err := detailToStruct(e)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) Lock(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.sess.Lock()
	s.logger.Info(ctx, "locked on request")
	return &emptypb.Empty{}, nil
}

func toStatus(err error) error {
	switch common.KindOf(err) {
	case common.KindNone:
		return nil
	case common.KindLocked:
		return status.Error(codes.FailedPrecondition, err.Error())
	case common.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
