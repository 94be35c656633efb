package session

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/empiresrv/empireserver/internal/empire"
	"github.com/empiresrv/empireserver/internal/stats"
	"github.com/empiresrv/empireserver/internal/worldloop"
	"github.com/empiresrv/empireserver/pkg/logger"
)

// Server :
// The C9 reference transport: a websocket upgrade endpoint wired
// against the world loop through a Hub and a dispatcher, plus a
// Prometheus scrape endpoint for internal/telemetry. Modeled on the
// teacher's Server.Serve/shutdown lifecycle (background process
// started alongside the HTTP listener, SIGINT-triggered graceful
// shutdown with a bounded drain).
type Server struct {
	config configuration
	hub    *Hub
	disp   *dispatcher
	log    logger.Logger

	upgrader websocket.Upgrader
}

// ErrUnexpectedServeError :
var ErrUnexpectedServeError = fmt.Errorf("unexpected error occurred while serving requests")

// ErrServerShutdownError :
var ErrServerShutdownError = fmt.Errorf("unexpected error occurred while shutting down the server")

// NewServer :
// Builds the session transport bound to a running world loop and to the
// `hub` the caller already constructed (cmd/empireserver builds the Hub
// before the loop exists, so it can be handed to both the loop, as its
// Broadcaster, and to this constructor, per Hub's own doc comment).
// `startBuildingIid`/`startingResources`/`startingMaxLife` are the
// bootstrap parameters handed to every `empire.New` call a successful
// signup makes; `defaultHexMap` is the starting territory
// (castle/spawnpoint/buildable tiles) stamped onto that empire, loaded
// once by cmd/empireserver from the map config of spec.md §6.
func NewServer(loop *worldloop.Loop, hub *Hub, statsSvc *stats.Service, startBuildingIid string, startingResources map[string]float64, startingMaxLife float64, defaultHexMap map[string]string, log logger.Logger) *Server {
	config := parseConfiguration()

	return &Server{
		config: config,
		hub:    hub,
		log:    log,
		disp: &dispatcher{
			loop:              loop,
			hub:               hub,
			accounts:          newAccountStore(config, loop.EmpireEngine(), loopRegistrarAdapter{loop}, defaultHexMap),
			stats:             statsSvc,
			log:               log,
			startBuildingIid:  startBuildingIid,
			startingResources: startingResources,
			startingMaxLife:   startingMaxLife,
		},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// loopRegistrarAdapter narrows *worldloop.Loop down to the
// RegisterEmpire/Empire pair accountStore needs, per this codebase's
// narrow-consumer-interface convention.
type loopRegistrarAdapter struct {
	loop *worldloop.Loop
}

func (a loopRegistrarAdapter) RegisterEmpire(e *empire.Empire)         { a.loop.RegisterEmpire(e) }
func (a loopRegistrarAdapter) Empire(uid string) (*empire.Empire, bool) { return a.loop.Empire(uid) }

// Hub :
// Exposes the bound Hub so cmd/empireserver can pass it to the world
// loop as its Broadcaster.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.log != nil {
			s.log.Trace(logger.Error, "session", fmt.Sprintf("websocket upgrade failed: %v", err))
		}
		return
	}

	c := newConnection(conn, s.config, s.log)
	go c.writePump()

	defer s.hub.unbind(c)
	c.readPump(s.disp.handle)
}

// Serve :
// Starts the upgrade and metrics endpoints and blocks until SIGINT,
// then gracefully shuts the HTTP server down (teacher's bounded-drain
// idiom, 5s timeout).
func (s *Server) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	mux.Handle("/metrics", promhttp.Handler())

	aMethods := handlers.AllowedMethods([]string{"GET"})
	aOrigins := handlers.AllowedOrigins([]string{"*"})
	aHeaders := handlers.AllowedHeaders([]string{"Origin", "Content-Type"})
	corsRouter := handlers.CORS(aHeaders, aOrigins, aMethods)(mux)

	server := &http.Server{
		Addr:    ":" + strconv.FormatInt(int64(s.config.Port), 10),
		Handler: corsRouter,
	}

	var serveErr error
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer func() {
			if err := recover(); err != nil {
				if s.log != nil {
					s.log.Trace(logger.Fatal, "session", fmt.Sprintf("caught unexpected error while serving requests: %v", err))
				}
				serveErr = ErrUnexpectedServeError
			}
			wg.Done()
			if s.log != nil {
				s.log.Trace(logger.Notice, "session", "server has stopped")
			}
		}()

		if s.log != nil {
			s.log.Trace(logger.Notice, "session", "server has started")
		}

		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		if s.log != nil {
			s.log.Trace(logger.Error, "session", fmt.Sprintf("caught unexpected error while shutting down server: %v", err))
		}
		return ErrServerShutdownError
	}

	wg.Wait()

	return serveErr
}
