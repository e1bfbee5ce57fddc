// Package connlimit caps the number of simultaneously served connections.
// When the cap is reached and no slot frees up in time, the least recently read connection is dropped.
package connlimit

import (
	"net"
	"sync"
	"time"

	"github.com/elliotchance/orderedmap/v2"
)

const DefaultEvictTimeout = time.Second

type connID uint64

// Listener accepts at most max simultaneous connections from the wrapped listener.
type Listener struct {
	net.Listener
	slots     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	evictWait time.Duration

	mu     sync.Mutex
	nextID connID
	idle   *orderedmap.OrderedMap[connID, *conn] // least recently read first
}

func New(l net.Listener, max int, evictWait time.Duration) *Listener {
	if evictWait <= 0 {
		evictWait = DefaultEvictTimeout
	}
	return &Listener{
		Listener:  l,
		slots:     make(chan struct{}, max),
		closed:    make(chan struct{}),
		evictWait: evictWait,
		idle:      orderedmap.NewOrderedMap[connID, *conn](),
	}
}

// Len returns the number of tracked open connections.
func (l *Listener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.idle.Len()
}

func (l *Listener) touch(c *conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.idle.Delete(c.id) {
		l.idle.Set(c.id, c)
	}
}

func (l *Listener) forget(c *conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.idle.Delete(c.id)
}

func (l *Listener) evictOldest() {
	l.mu.Lock()
	el := l.idle.Front()
	if el == nil {
		l.mu.Unlock()
		return
	}
	l.idle.Delete(el.Key)
	l.mu.Unlock()
	_ = el.Value.Close()
}

// acquire returns false only if the listener is closed.
func (l *Listener) acquire() bool {
	for {
		timer := time.NewTimer(l.evictWait)
		select {
		case <-l.closed:
			timer.Stop()
			return false
		case l.slots <- struct{}{}:
			timer.Stop()
			return true
		case <-timer.C:
			l.evictOldest()
		}
	}
}

func (l *Listener) release() {
	<-l.slots
}

func (l *Listener) Accept() (net.Conn, error) {
	if !l.acquire() {
		for {
			c, err := l.Listener.Accept()
			if err != nil {
				return nil, err
			}
			_ = c.Close()
		}
	}
	nc, err := l.Listener.Accept()
	if err != nil {
		l.release()
		return nil, err
	}
	l.mu.Lock()
	c := &conn{Conn: nc, owner: l, id: l.nextID}
	l.nextID++
	l.idle.Set(c.id, c)
	l.mu.Unlock()
	return c, nil
}

func (l *Listener) Close() error {
	err := l.Listener.Close()
	l.closeOnce.Do(func() { close(l.closed) })
	return err
}

type conn struct {
	net.Conn
	owner     *Listener
	id        connID
	closeOnce sync.Once
}

func (c *conn) Read(b []byte) (int, error) {
	c.owner.touch(c)
	return c.Conn.Read(b)
}

func (c *conn) Close() error {
	err := c.Conn.Close()
	c.closeOnce.Do(func() {
		c.owner.forget(c)
		c.owner.release()
	})
	return err
}
