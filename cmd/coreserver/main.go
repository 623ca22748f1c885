// Command coreserver serves a websocket view of a running core plus a
// Prometheus /metrics endpoint: a coreState wraps the core with the
// running/paused bookkeeping a browser client drives, a safeConn
// serializes concurrent writes to the socket, and a ticker-driven loop
// steps the core and pushes a metrics snapshot on every tick.
package main

import (
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neuromorph/poissoncore/config"
	"github.com/neuromorph/poissoncore/core"
	"github.com/neuromorph/poissoncore/hwclock"
	"github.com/neuromorph/poissoncore/intake"
	"github.com/neuromorph/poissoncore/metrics"
	"github.com/neuromorph/poissoncore/recorder"
)

// promGauges is the one process-wide Prometheus view, updated from
// whichever client connection is currently running and registered against
// the default registry in main() so /metrics actually reflects it.
var promGauges = metrics.NewPrometheusGauges()

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ClientMessage is a command sent from the browser.
type ClientMessage struct {
	Type     string             `json:"type"`
	Config   *config.Parameters `json:"config,omitempty"`
	GlobalID uint32             `json:"globalId,omitempty"`
	RateHz   float64            `json:"rateHz,omitempty"`
}

// ServerMessage is a push sent to the browser.
type ServerMessage struct {
	Type    string             `json:"type"`
	Running *bool              `json:"running,omitempty"`
	Config  *config.Parameters `json:"config,omitempty"`
	Metrics *metrics.Snapshot  `json:"metrics,omitempty"`
}

// coreState wraps a *core.Core with the running/paused bookkeeping a
// browser client drives.
type coreState struct {
	c       *core.Core
	running bool
	mu      sync.Mutex
	stopCh  chan struct{}
}

func newCoreState(params config.Parameters) (*coreState, error) {
	store := core.NewMemStore(params, int(params.NSources))
	c, err := core.New(params, store, &loopbackFabric{}, noopWriter{}, hwclock.NewSystemClock())
	if err != nil {
		return nil, err
	}
	return &coreState{c: c, stopCh: make(chan struct{})}, nil
}

func (s *coreState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

func (s *coreState) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

func (s *coreState) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && !s.c.Paused()
}

func (s *coreState) step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && !s.c.Paused() {
		s.c.Step()
	}
}

func (s *coreState) setRate(globalID uint32, rateHz float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.c.Controller().SetRate(globalID, rateHz)
}

func (s *coreState) snapshot() metrics.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Counters().Snapshot()
}

func (s *coreState) params() config.Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Parameters()
}

func (s *coreState) stop() { close(s.stopCh) }

// loopbackFabric is the non-blocking fabric fake cmd/coreserver exercises
// against: it accepts and discards every packet. Multicast rate updates
// reach intake through the "rate_update_packet" command instead.
type loopbackFabric struct{}

func (*loopbackFabric) Send(key uint32) bool { return true }

// noopWriter drops recording payloads; cmd/coreserver only streams
// metrics to the browser, not the recording heatmap.
type noopWriter struct{}

func (noopWriter) Submit(snap recorder.Snapshot, onComplete func()) { onComplete() }

// safeConn serializes concurrent websocket writes: gorilla/websocket
// connections are not safe for concurrent writers, and both tickLoop and
// handleWebSocket's command responses write to the same connection.
type safeConn struct {
	*websocket.Conn
	writeMu sync.Mutex
}

func (sc *safeConn) WriteJSON(v any) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.Conn.WriteJSON(v)
}

// tickLoop drives one Step per interval and pushes a metrics snapshot.
func tickLoop(conn *safeConn, state *coreState) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-state.stopCh:
			log.Println("tick loop stopping")
			return
		case <-ticker.C:
			if state.isRunning() {
				state.step()
				snap := state.snapshot()
				promGauges.Update(snap)
				msg := ServerMessage{Type: "metrics", Metrics: &snap}
				if err := conn.WriteJSON(msg); err != nil {
					log.Printf("error sending metrics: %v", err)
					return
				}
			}
		}
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("error upgrading connection: %v", err)
		return
	}
	defer conn.Close()

	sc := &safeConn{Conn: conn}
	log.Println("client connected")

	params := config.Default()
	state, err := newCoreState(params)
	if err != nil {
		log.Printf("error creating core: %v", err)
		return
	}

	running := false
	cfg := state.params()
	sc.WriteJSON(ServerMessage{Type: "status", Running: &running, Config: &cfg})

	go tickLoop(sc, state)

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading message: %v", err)
			}
			break
		}

		switch msg.Type {
		case "start":
			state.start()
			running := true
			cfg := state.params()
			sc.WriteJSON(ServerMessage{Type: "status", Running: &running, Config: &cfg})

		case "pause":
			state.pause()
			running := false
			cfg := state.params()
			sc.WriteJSON(ServerMessage{Type: "status", Running: &running, Config: &cfg})

		case "set_rate":
			state.setRate(msg.GlobalID, msg.RateHz)

		case "rate_update_packet":
			// Exercises the same decode path a real fabric packet would:
			// key == global id directly here since the browser already
			// knows it, mask left at the core's own configured value.
			payload := intake.EncodeRateUpdatePayload(msg.RateHz)
			state.mu.Lock()
			intake.MulticastCallback(state.c.Controller(), msg.GlobalID, payload, state.c.Parameters().RateUpdateMask)
			state.mu.Unlock()
		}
	}

	state.stop()
	log.Println("client disconnected")
}

func quitHandler(w http.ResponseWriter, r *http.Request) {
	log.Println("shutdown requested via /quitquitquit")
	w.WriteHeader(http.StatusOK)
	go func() {
		time.Sleep(100 * time.Millisecond)
		os.Exit(0)
	}()
}

func main() {
	if err := promGauges.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalf("registering prometheus gauges: %v", err)
	}

	http.HandleFunc("/ws", handleWebSocket)
	http.HandleFunc("/quitquitquit", quitHandler)
	http.Handle("/metrics", promhttp.Handler())

	addr := ":8080"
	log.Printf("coreserver starting on http://localhost%s", addr)
	log.Printf("websocket endpoint: ws://localhost%s/ws", addr)
	log.Printf("prometheus endpoint: http://localhost%s/metrics", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
