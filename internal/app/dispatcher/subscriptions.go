package dispatcher

import (
	"sync"

	"github.com/airenas/bpoc/internal/pkg/cmdapp"
)

//WsConn is interface for websocket handling in dispatcher service
type WsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	WriteJSON(v interface{}) error
}

//subscriptions keeps websocket connections listening for run decisions
type subscriptions struct {
	m     sync.Mutex
	conns map[string]map[WsConn]bool
}

func newSubscriptions() *subscriptions {
	return &subscriptions{conns: make(map[string]map[WsConn]bool)}
}

//handleConnection blocks until the client goes away
func (s *subscriptions) handleConnection(id string, conn WsConn) {
	s.add(id, conn)
	defer s.delete(id, conn)
	defer conn.Close()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			cmdapp.Log.Debugf("ws read finished for %s: %v", id, err)
			break
		}
	}
}

func (s *subscriptions) add(id string, conn WsConn) {
	s.m.Lock()
	defer s.m.Unlock()
	conns, found := s.conns[id]
	if !found {
		conns = map[WsConn]bool{}
		s.conns[id] = conns
	}
	conns[conn] = true
	cmdapp.Log.Infof("Subscribed to %s, connections: %d", id, len(conns))
}

func (s *subscriptions) delete(id string, conn WsConn) {
	s.m.Lock()
	defer s.m.Unlock()
	conns, found := s.conns[id]
	if !found {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(s.conns, id)
	}
}

func (s *subscriptions) count(id string) int {
	s.m.Lock()
	defer s.m.Unlock()
	return len(s.conns[id])
}

//broadcast writes msg to every subscriber of run id, failed connections are closed
func (s *subscriptions) broadcast(id string, msg interface{}) {
	s.m.Lock()
	defer s.m.Unlock()
	for conn := range s.conns[id] {
		if err := conn.WriteJSON(msg); err != nil {
			cmdapp.Log.Errorf("Can't write to websocket for %s: %v", id, err)
			conn.Close()
			delete(s.conns[id], conn)
		}
	}
	if len(s.conns[id]) == 0 {
		delete(s.conns, id)
	}
}

//closeAll drops all subscribers of run id
func (s *subscriptions) closeAll(id string) {
	s.m.Lock()
	defer s.m.Unlock()
	for conn := range s.conns[id] {
		conn.Close()
	}
	delete(s.conns, id)
}
