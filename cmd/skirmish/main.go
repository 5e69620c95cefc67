// Command skirmish runs a sandbox server around the surface engine. Clients
// connect over a websocket, cast surfaces and fire events with JSON
// commands, and receive the full notification feed plus state snapshots.
// It exists for designers poking at catalog data, not for real matches.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/viper"

	"cinder-and-brine/engine/logging"
	"cinder-and-brine/engine/logging/sinks"
	"cinder-and-brine/engine/surfaces"
	"cinder-and-brine/engine/surfaces/catalog"
)

type clientCommand struct {
	Cmd      string  `json:"cmd"`
	Surface  string  `json:"surface,omitempty"`
	Event    string  `json:"event,omitempty"`
	Instance string  `json:"instance,omitempty"`
	Creator  string  `json:"creator,omitempty"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Radius   float64 `json:"radius"`
	Duration *int    `json:"duration,omitempty"`
}

type serverMessage struct {
	Kind      string                      `json:"kind"`
	Event     *logging.Event              `json:"event,omitempty"`
	Snapshots []surfaces.InstanceSnapshot `json:"snapshots,omitempty"`
	Error     string                      `json:"error,omitempty"`
}

// hub serializes access to the single-writer manager and fans the
// notification feed out to every connected client. The client registry has
// its own lock: the manager publishes synchronously mid-command, so
// broadcast runs while mu is still held and must never touch it.
type hub struct {
	mu      sync.Mutex
	manager *surfaces.Manager

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]chan serverMessage
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan serverMessage)}
}

func (h *hub) broadcast(event logging.Event) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for _, outbox := range h.clients {
		select {
		case outbox <- serverMessage{Kind: "event", Event: &event}:
		default:
			// Slow client; the feed is best-effort.
		}
	}
}

// send queues a message for one client. The per-client writer goroutine is
// the only place that touches the websocket, so replies go through the same
// outbox as the feed.
func (h *hub) send(conn *websocket.Conn, msg serverMessage) {
	h.clientsMu.Lock()
	outbox, ok := h.clients[conn]
	h.clientsMu.Unlock()
	if !ok {
		return
	}
	select {
	case outbox <- msg:
	default:
	}
}

func (h *hub) subscribe(conn *websocket.Conn) chan serverMessage {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	outbox := make(chan serverMessage, 64)
	h.clients[conn] = outbox
	return outbox
}

func (h *hub) unsubscribe(conn *websocket.Conn) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if outbox, ok := h.clients[conn]; ok {
		close(outbox)
		delete(h.clients, conn)
	}
}

func (h *hub) handle(cmd clientCommand) serverMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	position := surfaces.Vec3{X: cmd.X, Z: cmd.Z}
	switch cmd.Cmd {
	case "cast":
		if cmd.Duration != nil {
			h.manager.CreateSurfaceLasting(cmd.Surface, position, cmd.Radius, cmd.Creator, *cmd.Duration)
		} else {
			h.manager.CreateSurface(cmd.Surface, position, cmd.Radius, cmd.Creator)
		}
	case "event":
		h.manager.ApplySurfaceEvent(cmd.Event, position, cmd.Radius, cmd.Creator)
	case "subtract":
		h.manager.SubtractSurfaceArea(cmd.Instance, position, cmd.Radius)
	case "remove":
		h.manager.RemoveSurface(cmd.Instance)
	case "end_round":
		h.manager.ProcessRoundEnd()
	case "state":
	default:
		return serverMessage{Kind: "error", Error: "unknown command: " + cmd.Cmd}
	}
	return serverMessage{Kind: "state", Snapshots: h.manager.ExportState()}
}

func loadConfig() *viper.Viper {
	v := viper.New()
	v.SetDefault("listen", ":8585")
	v.SetDefault("seed", int64(1))
	v.SetDefault("catalog_paths", catalog.DefaultPaths())
	v.SetDefault("log.sinks", []string{"console"})
	v.SetDefault("log.json_path", "")
	v.SetConfigName("skirmish")
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.SetEnvPrefix("skirmish")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("config: %v (using defaults)", err)
		}
	}
	return v
}

func buildRouter(v *viper.Viper) (*logging.Router, error) {
	cfg := logging.DefaultConfig()
	cfg.EnabledSinks = v.GetStringSlice("log.sinks")

	named := make([]logging.NamedSink, 0, 2)
	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: sinks.NewConsoleSink(os.Stdout, cfg.Console),
		})
	}
	if cfg.HasSink("json") {
		path := v.GetString("log.json_path")
		if path != "" {
			file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, err
			}
			named = append(named, logging.NamedSink{
				Name: "json",
				Sink: sinks.NewJSON(file, cfg.JSON.FlushInterval),
			})
		}
	}
	return logging.NewRouter(nil, cfg, named)
}

func main() {
	v := loadConfig()

	router, err := buildRouter(v)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		router.Close(ctx)
	}()

	h := newHub()
	publisher := logging.PublisherFunc(func(ctx context.Context, event logging.Event) {
		router.Publish(ctx, event)
		h.broadcast(event)
	})

	h.manager = surfaces.NewManager(surfaces.Config{
		Seed:      v.GetInt64("seed"),
		Publisher: publisher,
	})

	resolver, err := catalog.Load(v.GetStringSlice("catalog_paths")...)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}
	resolver.Apply(h.manager)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade failed: %v", err)
			return
		}
		outbox := h.subscribe(conn)
		defer h.unsubscribe(conn)

		go func() {
			for msg := range outbox {
				data, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
			}
		}()

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var cmd clientCommand
			if err := json.Unmarshal(payload, &cmd); err != nil {
				log.Printf("discarding malformed command: %v", err)
				continue
			}
			h.send(conn, h.handle(cmd))
		}
	})

	listen := v.GetString("listen")
	log.Printf("skirmish sandbox listening on %s", listen)
	if err := http.ListenAndServe(listen, nil); err != nil {
		log.Fatal(err)
	}
}
