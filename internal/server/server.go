// Package server drives the accept/receive/apply/tick/send loop described
// in §5 and §6: one local-domain connection is treated as one scheduling
// session, processed to completion before the next connection is served.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ja7ad/fairsched/internal/codec"
	"github.com/ja7ad/fairsched/internal/sched"
	"github.com/ja7ad/fairsched/internal/transport"
	"github.com/ja7ad/fairsched/pkg/types"
)

// Config is the subset of driver settings the server needs.
type Config struct {
	SocketPath string
	CPUs       int
	Quanta     int64
	Metadata   bool
}

// Server owns the listener and dispatches one scheduler per connection.
type Server struct {
	cfg Config
	log *logrus.Entry
}

// New builds a server bound to cfg, logging through log.
func New(cfg Config, log *logrus.Entry) *Server {
	return &Server{cfg: cfg, log: log}
}

// Run listens on cfg.SocketPath and serves connections until ctx is
// canceled. It returns nil on a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	l, err := transport.Listen(s.cfg.SocketPath)
	if err != nil {
		return err
	}
	defer l.Close()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-done:
		}
	}()
	defer close(done)

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: accept: %v", transport.ErrProtocol, err)
		}

		connID := uuid.New().String()
		connLog := s.log.WithField("conn", connID)
		connLog.Info("connection accepted")

		if err := s.serveConn(ctx, conn, connLog); err != nil {
			connLog.WithError(err).Warn("connection ended")
		} else {
			connLog.Info("connection closed")
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// serveConn processes exactly one scheduling session: a fresh Scheduler
// lives for the connection's duration (§3, "Scheduler lifetime spans the
// entire session"). A Protocol or Transport failure ends this session and
// returns to accepting new connections; an InvalidEvent/Capacity failure
// from applying a single decoded event is logged and the batch continues
// (§7). A frame that fails to decode, including one with an unrecognized
// action in any of its events, is logged and skipped whole: none of its
// events are applied and no tick is emitted for its vtime.
func (s *Server) serveConn(ctx context.Context, conn net.Conn, log *logrus.Entry) error {
	defer conn.Close()

	sc, err := sched.New(s.cfg.CPUs, s.cfg.Quanta)
	if err != nil {
		return fmt.Errorf("server: init scheduler: %w", err)
	}

	fr := transport.NewFrameReader(conn)
	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := fr.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		tf, err := codec.DecodeTimeFrame(frame)
		if err != nil {
			log.WithError(err).Warn("rejected malformed time frame")
			continue
		}

		for _, ev := range tf.Events {
			if err := sc.ProcessEvent(ev); err != nil {
				log.WithError(err).WithField("action", ev.Action).Warn("rejected event")
				continue
			}
			if ev.CPUQuotaUs != nil {
				log.WithFields(logrus.Fields{
					"action": ev.Action,
					"group":  ev.CgroupID,
					"quota":  types.Micros(*ev.CPUQuotaUs).Humanized(),
				}).Debug("cgroup quota applied")
			}
		}

		result := sc.Tick(tf.Vtime)

		out, err := codec.EncodeTick(result, s.cfg.Metadata)
		if err != nil {
			return fmt.Errorf("server: encode tick: %w", err)
		}
		out = append(out, '\n')
		if _, err := conn.Write(out); err != nil {
			return fmt.Errorf("transport: write: %w", err)
		}
	}
}
