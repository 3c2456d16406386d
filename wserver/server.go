// Package wserver pushes receipts and decoded contract events to websocket
// subscribers.
package wserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/annchain/badium/common/goroutine"
	"github.com/annchain/badium/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	serverDefaultWSPath = "/ws"

	messageTypeNewReceipt   = "new_receipt"
	messageTypeNewLog       = "new_log"
	messageTypeSubscribed   = "subscribed"
	messageTypeUnsubscribed = "unsubscribed"
	messageTypeError        = "error"

	receiptChanSize = 256
)

func isKnownEvent(event string) bool {
	return event == messageTypeNewReceipt || event == messageTypeNewLog
}

var defaultUpgrader = &websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// Server defines parameters for running websocket server.
type Server struct {
	// Address for server to listen on
	Addr string

	// Path for websocket request, default "/ws".
	WSPath string

	// To receive new receipts
	NewReceiptChan chan *types.Receipt

	resolver ABIResolver
	registry *registry
	server   *http.Server
	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup
}

// NewServer creates a new Server. resolver decodes the logs of pushed
// receipts.
func NewServer(addr string, resolver ABIResolver) *Server {
	s := &Server{
		Addr:           addr,
		WSPath:         serverDefaultWSPath,
		NewReceiptChan: make(chan *types.Receipt, receiptChanSize),
		resolver:       resolver,
		registry:       newRegistry(),
		quit:           make(chan struct{}),
	}

	wh := &websocketHandler{
		upgrader: defaultUpgrader,
		registry: s.registry,
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET(s.WSPath, wh.Handle)

	s.server = &http.Server{
		Addr:    s.Addr,
		Handler: engine,
	}
	return s
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	logrus.Infof("Listening websocket on %s", ln.Addr())
	s.wg.Add(2)
	goroutine.New(func() {
		defer s.wg.Done()
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("websocket server")
		}
	})
	goroutine.New(func() {
		defer s.wg.Done()
		s.WatchNewReceipts()
	})
	return nil
}

// ListenAddr is the bound address once started.
func (s *Server) ListenAddr() string {
	if s.listener == nil {
		return s.Addr
	}
	return s.listener.Addr().String()
}

// Connections is the number of open websocket clients.
func (s *Server) Connections() int {
	return s.registry.count()
}

func (s *Server) Stop() {
	close(s.quit)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Info("server Shutdown")
	}
	// hijacked connections are not closed by Shutdown
	s.registry.closeAll()
	s.wg.Wait()
	logrus.Info("websocket server exiting")
}

func (s *Server) Name() string {
	return fmt.Sprintf("websocket Server at %s", s.Addr)
}

func (s *Server) WatchNewReceipts() {
	for {
		select {
		case receipt := <-s.NewReceiptChan:
			s.publishReceipt(receipt)
		case <-s.quit:
			return
		}
	}
}

func (s *Server) publishReceipt(receipt *types.Receipt) {
	logrus.WithField("tx", receipt.TxHash.Hex()).Trace("push receipt to ws")
	conns := s.registry.matching(messageTypeNewReceipt, receipt.From, receipt.To, receipt.ContractAddress)
	s.send(conns, Envelope{Type: messageTypeNewReceipt, Data: receipt})

	for _, l := range receipt.Logs {
		conns := s.registry.matching(messageTypeNewLog, l.Address)
		if len(conns) == 0 {
			continue
		}
		data, err := decodeLog(s.resolver, l)
		if err != nil {
			logrus.WithError(err).WithField("address", l.Address.Hex()).Debug("cannot decode log")
			continue
		}
		s.send(conns, Envelope{Type: messageTypeNewLog, Data: data})
	}
}

// send drops connections that cannot be written.
func (s *Server) send(conns []*Conn, msg Envelope) {
	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			logrus.WithError(err).WithField("conn", c.ID()).Debug("drop websocket client")
			s.registry.drop(c)
			c.Close()
		}
	}
}
