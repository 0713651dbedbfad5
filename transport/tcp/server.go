// Package tcp binds the session engine to a line-delimited TCP protocol.
// Each connection gets one reader goroutine (decoding client commands into
// session calls) and one writer goroutine (draining the client's sink).
package tcp

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/samber/lo"

	"corpchat/contract"
	"corpchat/domain"
	"corpchat/errors"
	"corpchat/observability"
	"corpchat/runtime"
	"corpchat/sink"
)

const maxLineBytes = 1 << 20

// Server accepts client connections and runs one Session per connection.
// It implements contract.Worker so the supervisor owns its lifecycle.
type Server struct {
	log              *slog.Logger
	addr             string
	hub              contract.IHub
	auth             contract.IAuthService
	stats            *observability.ServerStats
	bufferSize       int
	maxContentLength int

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

func NewServer(log *slog.Logger, addr string, hub contract.IHub,
	auth contract.IAuthService, stats *observability.ServerStats,
	bufferSize, maxContentLength int) *Server {
	return &Server{
		log:              log,
		addr:             addr,
		hub:              hub,
		auth:             auth,
		stats:            stats,
		bufferSize:       bufferSize,
		maxContentLength: maxContentLength,
	}
}

// Listen binds the listener without serving yet, so callers (and tests)
// can learn the bound address before Run.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.addr, err)
	}
	s.listener = listener
	s.log.Info("Chat server listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Run serves until the context is canceled, then waits for every
// connection handler to finish its teardown.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()

	// Closing the listener is what unblocks Accept on shutdown.
	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Warn("Accept failed", "error", err)
			if stderrors.Is(err, net.ErrClosed) {
				break
			}
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}

	s.wg.Wait()
	s.log.Info("Chat server stopped")
	return nil
}

// handleConn owns one client connection end to end. Teardown runs on every
// exit path: read failure, protocol-driven logout and server shutdown all
// funnel through the deferred session close.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Canceling the connection context unblocks the pending read.
	stop := context.AfterFunc(connCtx, func() {
		_ = conn.Close()
	})
	defer stop()

	clientSink := sink.NewChannelSink(s.bufferSize)
	session := runtime.NewSession(s.log, s.auth, s.hub, clientSink, s.stats)

	// The Left broadcast must reach the other sessions even when this
	// connection's context is already canceled.
	defer session.Close(context.WithoutCancel(connCtx))

	writer := newLineWriter(conn)

	// The sink drain starts only after a successful authentication has
	// written the replay block, so no live push can precede the replay.
	// Nothing is enqueued into the sink before the hub registration.
	startDrain := sync.OnceFunc(func() {
		go s.drainSink(connCtx, cancel, writer, clientSink)
	})

	_ = writer.WriteLine(replySubmitOption)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		if connCtx.Err() != nil {
			return
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		if quit := s.dispatch(connCtx, session, writer, startDrain, line); quit {
			return
		}
	}

	if err := scanner.Err(); err != nil && connCtx.Err() == nil {
		s.log.Debug("Connection read failed", "remote", conn.RemoteAddr().String(), "error", err)
	}
}

// drainSink moves buffered entries onto the wire. A write failure cancels
// the connection so the reader unblocks and teardown runs.
func (s *Server) drainSink(ctx context.Context, cancel context.CancelFunc,
	writer *lineWriter, clientSink *sink.ChannelSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-clientSink.C:
			if err := writer.WriteLine(encodeEntry(e)); err != nil {
				cancel()
				return
			}
		}
	}
}

// dispatch maps one decoded wire command onto the session state machine
// and renders the reply. It returns true when the connection should close.
// Malformed or out-of-state commands get an ERROR reply and the session
// stays open.
func (s *Server) dispatch(ctx context.Context, session *runtime.Session,
	writer *lineWriter, startDrain func(), line string) bool {
	cmd := parseCommand(line)

	switch cmd.verb {
	case verbRegister:
		if cmd.a == "" || cmd.b == "" {
			_ = writer.WriteLine(replyError + " Invalid REGISTER")
			return false
		}
		if err := session.Register(cmd.a, cmd.b); err != nil {
			s.replyAuthFailure(writer, replyRegisterFail, err)
			return false
		}
		_ = writer.WriteLine(replyRegisterSuccess)

	case verbLogin:
		if cmd.a == "" || cmd.b == "" {
			_ = writer.WriteLine(replyError + " Invalid LOGIN")
			return false
		}
		token, replay, err := session.Login(ctx, cmd.a, cmd.b)
		if err != nil {
			s.replyAuthFailure(writer, replyLoginFail, err)
			return false
		}
		_ = writer.WriteLines(authReplyLines(replyLoginSuccess+" "+token, replay))
		startDrain()

	case verbResume:
		if cmd.b == "" {
			_ = writer.WriteLine(replyError + " Invalid RESUME")
			return false
		}
		username, replay, err := session.Resume(ctx, cmd.b)
		if err != nil {
			s.replyAuthFailure(writer, replyLoginFail, err)
			return false
		}
		_ = writer.WriteLines(authReplyLines(replyResumeSuccess+" "+username, replay))
		startDrain()

	case verbMessage:
		if s.maxContentLength > 0 && len(cmd.b) > s.maxContentLength {
			_ = writer.WriteLine(replyError + " Message too long")
			return false
		}
		if err := session.SendChat(ctx, cmd.b); err != nil {
			_ = writer.WriteLine(replyError + " " + err.Error())
		}

	case verbHistory:
		entries, err := session.History()
		if err != nil {
			_ = writer.WriteLine(replyError + " " + err.Error())
			return false
		}
		_ = writer.WriteLines(historyLines(entries))

	case verbWho:
		users, err := session.OnlineUsers()
		if err != nil {
			_ = writer.WriteLine(replyError + " " + err.Error())
			return false
		}
		_ = writer.WriteLine(strings.TrimRight(replyOnline+" "+strings.Join(users, " "), " "))

	case verbLogout:
		session.Logout(ctx)
		_ = writer.WriteLine(replyBye)
		return true

	default:
		_ = writer.WriteLine(replyError + " Unknown command")
	}
	return false
}

// historyLines frames a history snapshot for one atomic write.
func historyLines(entries []domain.Entry) []string {
	lines := append([]string{replyHistoryBegin},
		lo.Map(entries, func(e domain.Entry, _ int) string {
			return encodeEntry(e)
		})...)
	return append(lines, replyHistoryEnd)
}

// authReplyLines builds the success reply followed by the framed replay.
// The block goes out in one write, before the sink drain starts, so the
// full history reaches the client ahead of any live push regardless of the
// sink's buffer size.
func authReplyLines(reply string, replay []domain.Entry) []string {
	return append([]string{reply}, historyLines(replay)...)
}

// replyAuthFailure keeps wrong-password and unknown-user outcomes
// indistinguishable on the wire; validation problems get a descriptive
// ERROR instead so the client can correct its input.
func (s *Server) replyAuthFailure(writer *lineWriter, failReply string, err error) {
	switch {
	case stderrors.Is(err, errors.ErrInvalidUsername),
		stderrors.Is(err, errors.ErrInvalidPassword):
		_ = writer.WriteLine(replyError + " " + err.Error())
	case stderrors.Is(err, errors.ErrProtocol),
		stderrors.Is(err, errors.ErrSessionClosed):
		_ = writer.WriteLine(replyError + " " + err.Error())
	default:
		_ = writer.WriteLine(failReply)
	}
}
