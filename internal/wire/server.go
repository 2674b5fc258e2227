package wire

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saiputravu/predictex/internal/domain"
)

const (
	maxFrameSize = 4 * 1024
	readDeadline = 5 * time.Second
)

// Submitter hands a decoded NewOrder frame to the submission port
// (dispatch.Dispatcher.Submit in cmd/exchange/main.go), returning the
// engine's final order state and the trades it produced.
type Submitter func(ctx context.Context, order domain.Order) (domain.Order, []domain.ExecutedTrade, error)

// Server is a minimal framed-TCP submission listener: one read per
// connection turn, decode, hand to Submitter, write an execution
// report back, grounded on the teacher's internal/net.Server
// (handleConnection's one-read-one-message loop over net.Conn),
// generalized from the teacher's fixed Equities asset frames to this
// package's (marketID, outcomeIndex) frames. Cancel frames are decoded
// but not actionable over this transport (internal/dispatch exposes no
// cancel path outside the book's owning actor), so they are reported
// back as unsupported rather than silently dropped.
type Server struct {
	listener net.Listener
	submit   Submitter
}

// Listen binds addr for a Server that will hand decoded orders to submit.
func Listen(addr string, submit Submitter) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: l, submit: submit}, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve accepts connections until ctx is done, at which point the
// listener is closed and Serve returns.
func (s *Server) Serve(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Error().Err(err).Msg("wire: accept error")
				continue
			}
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, maxFrameSize)
	for {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		s.handleFrame(ctx, conn, buf[:n])
	}
}

func (s *Server) handleFrame(ctx context.Context, conn net.Conn, frame []byte) {
	typ, err := PeekType(frame)
	if err != nil {
		s.reportError(conn, "", err.Error())
		return
	}

	switch typ {
	case NewOrderMessage:
		order, err := DecodeNewOrder(frame)
		if err != nil {
			s.reportError(conn, "", err.Error())
			return
		}

		final, trades, err := s.submit(ctx, order)
		if err != nil {
			s.reportError(conn, order.ID, err.Error())
			return
		}
		_ = trades // per-trade counterparty reports are a transport concern out of scope (Non-goals)
		conn.Write(EncodeExecutionReport(final, "", ""))

	case CancelOrderMessage:
		req, err := DecodeCancelOrder(frame)
		if err != nil {
			s.reportError(conn, "", err.Error())
			return
		}
		s.reportError(conn, req.OrderID, "cancellation is not supported over the wire protocol")

	default:
		s.reportError(conn, "", "unknown message type")
	}
}

func (s *Server) reportError(conn net.Conn, orderID, reason string) {
	order := domain.Order{ID: orderID}
	conn.Write(EncodeExecutionReport(order, "", reason))
}
