package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchbook/internal/engine"
	"matchbook/internal/utils"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession holds the live connection for one TCP client, addressed
// by its remote address for the lifetime of the connection.
type ClientSession struct {
	conn net.Conn
}

// ClientMessage links a parsed wire message to the client that sent it.
type ClientMessage struct {
	clientAddress string
	message       Message
}

// sessionOrigin records which client submitted an order still resting
// in the book, for routing the eventual trade report.
type sessionOrigin struct {
	address string
	owner   string
}

// Engine is the subset of engine.Engine the reference server drives.
// Depending on the interface rather than the concrete type keeps this
// package testable against a fake.
type Engine interface {
	PlaceOrder(assetType engine.AssetType, order engine.Order) error
	CancelOrder(assetType engine.AssetType, id engine.OrderID) error
	ModifyOrder(assetType engine.AssetType, id engine.OrderID, newPrice engine.Price, newQuantity engine.Quantity) error
	LogBook()
}

// Server is the reference TCP front-end described in SPEC_FULL.md §10. It
// accepts connections on a fixed-size worker pool, but funnels every
// parsed message through a single sessionHandler goroutine so that all
// engine mutation happens from one goroutine, matching the
// single-mutation-point requirement the core OrderBook relies on.
type Server struct {
	address string
	port    int
	engine  Engine
	pool    utils.WorkerPool
	cancel  context.CancelFunc

	sessionsLock sync.Mutex
	sessions     map[string]ClientSession          // clientAddress -> session
	orderOrigin  map[engine.OrderID]sessionOrigin // order id -> submitting client, for trade routing

	clientMessages chan ClientMessage
}

// New constructs a Server that will listen on address:port and drive eng.
func New(address string, port int, eng Engine) *Server {
	return &Server{
		address:        address,
		port:           port,
		engine:         eng,
		pool:           utils.NewWorkerPool(defaultNWorkers),
		sessions:       make(map[string]ClientSession),
		orderOrigin:    make(map[engine.OrderID]sessionOrigin),
		clientMessages: make(chan ClientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run blocks serving connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	// Accept does not observe ctx, so closing the listener on cancellation
	// is what unblocks a pending Accept and lets the loop below return.
	go func() {
		<-ctx.Done()
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			log.Info().Str("address", conn.RemoteAddr().String()).Msg("new client connected")
			s.addSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

// ReportTrade implements engine.Reporter. It is invoked synchronously
// from inside OrderBook.Submit/Modify (via the OrderBook.onTrade hook that
// Engine.SetReporter installs), so it must
// not block on anything slower than a best-effort, non-blocking write
// back to each counterparty's connection.
func (s *Server) ReportTrade(assetType engine.AssetType, trade engine.Trade) {
	s.sessionsLock.Lock()
	bidOrigin, askOrigin := s.orderOrigin[trade.BidLeg.OrderID], s.orderOrigin[trade.AskLeg.OrderID]
	delete(s.orderOrigin, trade.BidLeg.OrderID)
	delete(s.orderOrigin, trade.AskLeg.OrderID)
	bidSession, bidOK := s.sessions[bidOrigin.address]
	askSession, askOK := s.sessions[askOrigin.address]
	s.sessionsLock.Unlock()

	bidReport, askReport, err := generateWireTradeReports(assetType, trade, bidOrigin.owner, askOrigin.owner)
	if err != nil {
		log.Error().Err(err).Msg("failed to serialize trade report")
		return
	}

	if bidOK {
		if _, err := bidSession.conn.Write(bidReport); err != nil {
			log.Error().Err(err).Str("address", bidOrigin.address).Msg("failed delivering trade report")
			s.deleteSession(bidOrigin.address)
		}
	}
	if askOK {
		if _, err := askSession.conn.Write(askReport); err != nil {
			log.Error().Err(err).Str("address", askOrigin.address).Msg("failed delivering trade report")
			s.deleteSession(askOrigin.address)
		}
	}
}

// ReportError implements engine.Reporter. Engine.PlaceOrder calls this
// synchronously with order.Owner (a display name, not a routable
// address), so the actual wire notification for a rejected PlaceOrder
// happens via handleMessage's returned error reaching sessionHandler,
// which knows the submitting clientAddress; this hook just logs.
func (s *Server) ReportError(assetType engine.AssetType, owner string, err error) {
	log.Debug().Str("owner", owner).Err(err).Msg("engine rejected order")
}

func (s *Server) reportErrorTo(clientAddress string, err error) {
	s.sessionsLock.Lock()
	session, ok := s.sessions[clientAddress]
	s.sessionsLock.Unlock()
	if !ok {
		return
	}

	report, serErr := generateWireErrorReport(err)
	if serErr != nil {
		log.Error().Err(serErr).Msg("failed to serialize error report")
		return
	}
	if _, err := session.conn.Write(report); err != nil {
		s.deleteSession(clientAddress)
	}
}

// sessionHandler is the single goroutine that ever calls into Engine.
// Every parsed message, regardless of which worker read it off the
// wire, is funneled here before it reaches the book.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			if err := s.handleMessage(message); err != nil {
				log.Error().Err(err).Str("clientAddress", message.clientAddress).Msg("error handling message")
				s.reportErrorTo(message.clientAddress, err)
			}
		}
	}
}

func (s *Server) handleMessage(message ClientMessage) error {
	switch message.message.GetType() {
	case NewOrder:
		m, ok := message.message.(NewOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		order, err := m.Order()
		if err != nil {
			return err
		}
		s.sessionsLock.Lock()
		s.orderOrigin[order.ID] = sessionOrigin{address: message.clientAddress, owner: order.Owner}
		s.sessionsLock.Unlock()

		if err := s.engine.PlaceOrder(m.AssetType, order); err != nil {
			s.sessionsLock.Lock()
			delete(s.orderOrigin, order.ID)
			s.sessionsLock.Unlock()
			return err
		}
	case CancelOrder:
		m, ok := message.message.(CancelOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		return s.engine.CancelOrder(m.AssetType, m.OrderID)
	case ModifyOrder:
		m, ok := message.message.(ModifyOrderMessage)
		if !ok {
			return ErrInvalidMessageType
		}
		return s.engine.ModifyOrder(m.AssetType, m.OrderID, engine.Price(m.NewPrice), engine.Quantity(m.NewQuantity))
	case LogBook:
		s.engine.LogBook()
	default:
		log.Error().Int("messageType", int(message.message.GetType())).Msg("invalid message type")
		return ErrInvalidMessageType
	}
	return nil
}

// handleConnection reads exactly one message off conn, forwards it to
// sessionHandler, then requeues the connection so another worker can
// read its next message. A read or parse failure tears the session down
// without killing the pool.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed setting deadline")
		s.closeConn(conn)
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	default:
		buffer := make([]byte, maxRecvSize)
		n, err := conn.Read(buffer)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Debug().Err(err).Str("address", conn.RemoteAddr().String()).Msg("connection closed")
			}
			s.deleteSession(conn.RemoteAddr().String())
			s.closeConn(conn)
			return nil
		}

		message, err := parseMessage(buffer[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error parsing message")
			s.deleteSession(conn.RemoteAddr().String())
			s.closeConn(conn)
			return nil
		}

		s.clientMessages <- ClientMessage{message: message, clientAddress: conn.RemoteAddr().String()}
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) closeConn(conn net.Conn) {
	if err := conn.Close(); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("error closing connection")
	}
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	s.sessions[conn.RemoteAddr().String()] = ClientSession{conn: conn}
}

func (s *Server) deleteSession(address string) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	delete(s.sessions, address)
}
