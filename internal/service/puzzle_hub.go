package service

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"takarawalk_backend/pkg/logger"
	"takarawalk_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	hubShardCount  = 16

	solveChannel = "puzzle_solved"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PuzzleEvent is pushed to every live watcher of a puzzle when its state
// changes. Today the only event is the solve transition.
type PuzzleEvent struct {
	Type     string    `json:"type"`
	PuzzleID string    `json:"puzzleId"`
	SolvedBy string    `json:"solvedBy,omitempty"`
	SolvedAt time.Time `json:"solvedAt,omitempty"`
}

// Watcher is one live WebSocket subscriber to a single puzzle.
type Watcher struct {
	Hub      *PuzzleHub
	Conn     *websocket.Conn
	Send     chan []byte
	PuzzleID string
}

func (w *Watcher) readPump() {
	defer func() {
		w.Hub.unregister <- w
		w.Conn.Close()
	}()
	w.Conn.SetReadLimit(maxMessageSize)
	w.Conn.SetReadDeadline(time.Now().Add(pongWait))
	w.Conn.SetPongHandler(func(string) error { w.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		// Watchers are receive-only; inbound frames are drained so the
		// connection's control messages keep flowing.
		if _, _, err := w.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Debug("watcher closed unexpectedly", zap.Error(err), zap.String("puzzleId", w.PuzzleID))
			}
			break
		}
	}
}

func (w *Watcher) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		w.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-w.Send:
			w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				w.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := w.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			w.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := w.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type hubShard struct {
	watchers map[string]map[*Watcher]bool // puzzle id -> watcher set
	mu       sync.RWMutex
}

// PuzzleHub fans solve notifications out to live watchers. Cross-instance
// delivery rides a Redis pub/sub channel so every server pushes to its own
// local connections.
type PuzzleHub struct {
	shards     [hubShardCount]*hubShard
	register   chan *Watcher
	unregister chan *Watcher
	Redis      *redis.Client
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewPuzzleHub(rdb *redis.Client) *PuzzleHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &PuzzleHub{
		register:   make(chan *Watcher),
		unregister: make(chan *Watcher),
		Redis:      rdb,
		ctx:        ctx,
		cancel:     cancel,
	}
	for i := 0; i < hubShardCount; i++ {
		h.shards[i] = &hubShard{watchers: make(map[string]map[*Watcher]bool)}
	}
	return h
}

func (h *PuzzleHub) getShard(puzzleID string) *hubShard {
	f := fnv.New32a()
	f.Write([]byte(puzzleID))
	return h.shards[f.Sum32()%hubShardCount]
}

func (h *PuzzleHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, solveChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var event PuzzleEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Log.Error("solve event unmarshal error", zap.Error(err))
				continue
			}
			h.pushLocal(event)
		}
	}()

	for {
		select {
		case w := <-h.register:
			s := h.getShard(w.PuzzleID)
			s.mu.Lock()
			if s.watchers[w.PuzzleID] == nil {
				s.watchers[w.PuzzleID] = make(map[*Watcher]bool)
			}
			s.watchers[w.PuzzleID][w] = true
			s.mu.Unlock()
			monitoring.LiveWatchers.Inc()

		case w := <-h.unregister:
			s := h.getShard(w.PuzzleID)
			s.mu.Lock()
			if set, ok := s.watchers[w.PuzzleID]; ok && set[w] {
				delete(set, w)
				if len(set) == 0 {
					delete(s.watchers, w.PuzzleID)
				}
				close(w.Send)
				monitoring.LiveWatchers.Dec()
			}
			s.mu.Unlock()

		case <-h.ctx.Done():
			pubsub.Close()
			return
		}
	}
}

// BroadcastSolve publishes the solve transition. Watchers on every instance
// receive exactly one event per commit; if Redis is unreachable, local
// watchers are still served directly.
func (h *PuzzleHub) BroadcastSolve(ctx context.Context, puzzleID, solvedBy string) {
	event := PuzzleEvent{
		Type:     "solved",
		PuzzleID: puzzleID,
		SolvedBy: solvedBy,
		SolvedAt: time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := h.Redis.Publish(ctx, solveChannel, payload).Err(); err != nil {
		logger.Log.Error("solve broadcast publish failed, falling back to local push",
			zap.String("puzzleId", puzzleID), zap.Error(err))
		h.pushLocal(event)
	}
}

func (h *PuzzleHub) pushLocal(event PuzzleEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	s := h.getShard(event.PuzzleID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for w := range s.watchers[event.PuzzleID] {
		select {
		case w.Send <- payload:
		default:
			// Slow consumer; drop rather than block the fan-out.
		}
	}
}

// ServeWS upgrades the request and registers the connection as a watcher of
// the given puzzle.
func (h *PuzzleHub) ServeWS(w http.ResponseWriter, r *http.Request, puzzleID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	watcher := &Watcher{
		Hub:      h,
		Conn:     conn,
		Send:     make(chan []byte, 8),
		PuzzleID: puzzleID,
	}
	h.register <- watcher

	go watcher.writePump()
	go watcher.readPump()
	return nil
}

// Stop closes every live connection and shuts the hub down.
func (h *PuzzleHub) Stop() {
	for i := 0; i < hubShardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for _, set := range s.watchers {
			for w := range set {
				w.Conn.Close()
			}
		}
		s.watchers = make(map[string]map[*Watcher]bool)
		s.mu.Unlock()
	}
	h.cancel()
}
