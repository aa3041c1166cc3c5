package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"chartcap/internal/daemon"
	"chartcap/internal/history"
	"chartcap/internal/logging"
	"chartcap/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Chartcap", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logging.NewComponentLogger(logger, "ipc"),
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
		)
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func convertCycle(cycle *history.Cycle) CycleRecord {
	return CycleRecord{
		ID:           cycle.ID,
		CycleID:      cycle.CycleID,
		Symbol:       cycle.Symbol,
		Status:       string(cycle.Status),
		SuccessCount: cycle.SuccessCount,
		Attempted:    cycle.Attempted,
		ResultsJSON:  cycle.ResultsJSON,
		ErrorMessage: cycle.ErrorMessage,
		CreatedAt:    cycle.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    cycle.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.Symbol = status.Symbol
	resp.HistoryDBPath = status.HistoryDBPath
	resp.LockPath = status.LockFilePath
	resp.Total = status.Health.Total
	resp.CyclesRun = status.Health.Running
	resp.Completed = status.Health.Completed
	resp.Failed = status.Health.Failed
	if status.LastCycle != nil {
		record := convertCycle(status.LastCycle)
		resp.LastCycle = &record
	}
	return nil
}

func (s *service) Capture(_ CaptureRequest, resp *CaptureResponse) error {
	s.logger.Debug("capture requested via ipc")
	if err := s.daemon.TriggerCapture(s.ctx); err != nil {
		resp.Queued = false
		resp.Message = err.Error()
		return nil
	}
	resp.Queued = true
	resp.Message = "capture request queued"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested via ipc")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) HistoryList(req HistoryListRequest, resp *HistoryListResponse) error {
	cycles, err := s.daemon.HistoryList(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Cycles = make([]CycleRecord, 0, len(cycles))
	for _, cycle := range cycles {
		if cycle == nil {
			continue
		}
		resp.Cycles = append(resp.Cycles, convertCycle(cycle))
	}
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, logs.TailOptions{
		Cursor: req.Cursor,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			resp.Cursor = result.Cursor
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Cursor = result.Cursor
	return nil
}

func (s *service) HistoryClear(req HistoryClearRequest, resp *HistoryClearResponse) error {
	var (
		removed int64
		err     error
	)
	if req.CompletedOnly {
		removed, err = s.daemon.HistoryClearCompleted(s.ctx)
	} else {
		removed, err = s.daemon.HistoryClear(s.ctx)
	}
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("history cleared",
		logging.Bool("completed_only", req.CompletedOnly),
		logging.Int64("removed", removed),
	)
	return nil
}
