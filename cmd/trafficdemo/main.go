// Command trafficdemo runs a small standalone simulation on a single
// straight path and logs the live-vehicle count and simulated time every
// five seconds. It is a minimal
// host: a real multiplayer server would drive sim.Context from its own
// network loop instead of this CLI. Grounded on the teacher's main.go
// entrypoint style (flag-based config, logrus setup), generalized from its
// file-backed city map to a single roadnet.Path built in code,
// since no file/wire format is part of the core (spec §6).
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fib-lab/drivecore/driver"
	"github.com/fib-lab/drivecore/roadnet"
	"github.com/fib-lab/drivecore/sim"
	"github.com/fib-lab/drivecore/simconfig"
)

var (
	logLevel  = flag.String("log.level", "info", "log level: debug, info, warn, error")
	numAI     = flag.Int("sim.num_ai_vehicles", 20, "number of AI vehicles to spawn")
	pathLen   = flag.Float64("sim.path_length", 2000, "length in meters of the demo path")
	numLanes  = flag.Int("sim.num_lanes", 3, "number of lanes on the demo path")
	runSecs   = flag.Int("sim.run_seconds", 30, "how long to run before exiting")
	seed      = flag.Uint64("sim.seed", 1, "deterministic RNG seed")
)

func main() {
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("bad log level %q: %v", *logLevel, err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := simconfig.Default()
	path := roadnet.New(1, *pathLen, *numLanes, cfg.LaneWidth, 30, "demo")
	catalog := roadnet.NewCatalog(path)

	ctx, err := sim.NewContext(cfg, catalog, *seed)
	if err != nil {
		logrus.Fatalf("sim.NewContext: %v", err)
	}

	personalities := []driver.Personality{driver.Timid, driver.Normal, driver.Aggressive, driver.VeryAggressive}
	for i := 0; i < *numAI; i++ {
		lane := i % *numLanes
		s := float64(i) * (*pathLen / float64(*numAI))
		personality := personalities[i%len(personalities)]
		kind := driver.Car
		if i%5 == 0 {
			kind = driver.Truck
		}
		if _, err := ctx.SpawnAIVehicle(kind, personality, path.ID(), lane, s, 15); err != nil {
			logrus.Warnf("spawn vehicle %d: %v", i, err)
		}
	}

	runCtx, cancel := context.WithTimeout(context.Background(), time.Duration(*runSecs)*time.Second)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	logrus.Infof("trafficdemo: running %d AI vehicles on a %.0fm/%d-lane path for %ds",
		*numAI, *pathLen, *numLanes, *runSecs)

	reportTicker := time.NewTicker(5 * time.Second)
	defer reportTicker.Stop()
	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case <-reportTicker.C:
				snap := ctx.Snapshot()
				logrus.Infof("snapshot: %d live vehicles at t=%s", len(snap), ctx.Clock().String())
			}
		}
	}()

	ctx.Run(runCtx)
	logrus.Infof("trafficdemo: done")
}
