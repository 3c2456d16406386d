package wserver

import (
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

var errConnClosed = errors.New("connection closed")

// Conn is one websocket client. Writes are serialized; reads happen in Listen.
type Conn struct {
	ws *websocket.Conn
	id string

	writeMu   sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:     ws,
		id:     uuid.NewString(),
		closed: make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Send writes v as a json text frame.
func (c *Conn) Send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// Listen hands every text frame to handle until the peer goes away or the
// connection is closed locally.
func (c *Conn) Listen(handle func(data []byte)) {
	defer c.Close()
	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			logrus.WithError(err).WithField("conn", c.id).Trace("websocket read ended")
			return
		}
		if messageType == websocket.TextMessage {
			handle(data)
		}
	}
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		close(c.closed)
		err = c.ws.Close()
		c.writeMu.Unlock()
	})
	return err
}

type subscription struct {
	conn   *Conn
	filter *common.Address
}

func (s subscription) matches(addrs []common.Address) bool {
	if s.filter == nil {
		return true
	}
	for _, a := range addrs {
		if a == *s.filter {
			return true
		}
	}
	return false
}

// registry tracks open connections and their subscriptions, keyed by event
// then conn id.
type registry struct {
	mu    sync.RWMutex
	conns map[string]*Conn
	subs  map[string]map[string]subscription
}

func newRegistry() *registry {
	return &registry{
		conns: make(map[string]*Conn),
		subs:  make(map[string]map[string]subscription),
	}
}

func (r *registry) track(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = conn
}

// subscribe registers conn for event, replacing an earlier filter.
func (r *registry) subscribe(event string, conn *Conn, filter *common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.subs[event]
	if !ok {
		subs = make(map[string]subscription)
		r.subs[event] = subs
	}
	subs[conn.ID()] = subscription{conn: conn, filter: filter}
}

func (r *registry) unsubscribe(event string, conn *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[event][conn.ID()]; !ok {
		return false
	}
	delete(r.subs[event], conn.ID())
	return true
}

// drop forgets conn and removes it from every event.
func (r *registry) drop(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, conn.ID())
	for _, subs := range r.subs {
		delete(subs, conn.ID())
	}
}

// matching returns the connections subscribed to event whose filter accepts
// one of addrs.
func (r *registry) matching(event string, addrs ...common.Address) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var conns []*Conn
	for _, s := range r.subs[event] {
		if s.matches(addrs) {
			conns = append(conns, s.conn)
		}
	}
	return conns
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// closeAll closes every open connection.
func (r *registry) closeAll() {
	r.mu.RLock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()
	for _, c := range conns {
		c.Close()
	}
}
