// Command empireserver starts the authoritative simulation server
// described by spec.md: it wires the item registry, the event bus, the
// world loop (and, through it, the empire engine, the attack engine and
// the AI opponent) to the websocket session transport of
// internal/session, then blocks serving connections until it receives
// SIGINT.
package main

import (
	"flag"
	"fmt"
	"runtime/debug"

	"github.com/empiresrv/empireserver/internal/empire"
	"github.com/empiresrv/empireserver/internal/eventbus"
	"github.com/empiresrv/empireserver/internal/items"
	"github.com/empiresrv/empireserver/internal/session"
	"github.com/empiresrv/empireserver/internal/stats"
	"github.com/empiresrv/empireserver/internal/telemetry"
	"github.com/empiresrv/empireserver/internal/worldloop"
	"github.com/empiresrv/empireserver/pkg/arguments"
	"github.com/empiresrv/empireserver/pkg/db"
	"github.com/empiresrv/empireserver/pkg/logger"
	"github.com/empiresrv/empireserver/pkg/snapshot"
)

// usage :
// Displays the usage of the server.
func usage() {
	fmt.Println("Usage:")
	fmt.Println("./empireserver -config=[file] for the configuration file to use (development/production)")
	fmt.Println("                -items=[file] for the item catalogue YAML")
	fmt.Println("                -map=[file] for the default starting territory YAML")
	fmt.Println("                -ai-waves=[file] for the AI's scripted wave list YAML")
}

func main() {
	help := flag.Bool("h", false, "Print usage")
	conf := flag.String("config", "", "Configuration file to customize app behavior (development/production)")
	itemsPath := flag.String("items", "data/config/items.yaml", "Item catalogue YAML file")
	mapPath := flag.String("map", "data/config/maps/default.yaml", "Default starting territory YAML file")
	aiWavesPath := flag.String("ai-waves", "data/config/ai_waves.yaml", "AI scripted wave list YAML file")

	flag.Parse()

	if *help {
		usage()
	}

	trueConf := ""
	if conf != nil {
		trueConf = *conf
	}
	metadata := arguments.Parse(trueConf)

	log := logger.NewStdLogger(metadata.InstanceID, metadata.PublicIPv4)

	defer func() {
		if err := recover(); err != nil {
			stack := string(debug.Stack())
			log.Trace(logger.Fatal, "main", fmt.Sprintf("server crashed after error: %v (stack: %s)", err, stack))
		}
		log.Release()
	}()

	catalogue, err := loadCatalogue(*itemsPath)
	if err != nil {
		panic(fmt.Errorf("could not load item catalogue: %v", err))
	}
	registry := items.NewRegistry(catalogue)

	defaultHexMap, err := loadHexMap(*mapPath)
	if err != nil {
		panic(fmt.Errorf("could not load default map: %v", err))
	}

	scriptedDefs, err := loadScriptedWaves(*aiWavesPath)
	if err != nil {
		log.Trace(logger.Warning, "main", fmt.Sprintf("could not load AI scripted waves: %v", err))
	}

	bus := eventbus.New(log)
	hub := session.NewHub(log)

	loop := worldloop.NewLoop(registry, bus, log, hub, scriptedDefs)
	statsSvc := stats.NewService(registry, bus)
	telemetryCollector := telemetry.NewCollector(loop, log)

	dbase := db.NewPool(log)
	snapshotProxy := snapshot.NewProxy(dbase, log, "default")

	restored, err := snapshotProxy.Load(loop, loop.AttackEngine(), registry)
	if err != nil {
		log.Trace(logger.Error, "main", fmt.Sprintf("could not restore world snapshot: %v", err))
	} else if restored {
		log.Trace(logger.Notice, "main", "restored world state from snapshot")
	}

	startingResources := map[string]float64{
		empire.Gold:    500,
		empire.Culture: 200,
	}
	const bootstrapIid = "INIT"
	const startingMaxLife = 100.0

	server := session.NewServer(loop, hub, statsSvc, bootstrapIid, startingResources, startingMaxLife, defaultHexMap, log)

	if err := loop.Start(); err != nil {
		panic(fmt.Errorf("could not start world loop: %v", err))
	}
	if err := telemetryCollector.Start(); err != nil {
		panic(fmt.Errorf("could not start telemetry collector: %v", err))
	}

	log.Trace(logger.Notice, "main", fmt.Sprintf("empireserver starting (ai power_multiplier=%.2f)", loop.AIEngine().PowerMultiplier()))

	err = server.Serve()

	telemetryCollector.Stop()
	loop.Stop()

	if saveErr := snapshotProxy.Save(loop.AttackEngine().All(), loop); saveErr != nil {
		log.Trace(logger.Error, "main", fmt.Sprintf("could not persist world snapshot on shutdown: %v", saveErr))
	}

	if err != nil {
		panic(fmt.Errorf("unexpected error while serving requests: %v", err))
	}
}
