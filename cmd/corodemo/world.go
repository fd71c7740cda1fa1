package main

import (
	"math/rand/v2"
	"time"

	coroutine "github.com/Swind/go-coroutine-registry"
	"github.com/Swind/go-coroutine-registry/core"
)

// entity is a simulated game object. Tasks attach to it by identity.
type entity struct {
	id  int
	pos int
}

// world owns the simulated entities. All methods run on the tick loop.
type world struct {
	rt     *coroutine.Runtime
	logger core.Logger
	nextID int
	live   map[int]*entity
}

func newWorld(rt *coroutine.Runtime, logger core.Logger) *world {
	return &world{rt: rt, logger: logger, live: make(map[int]*entity)}
}

func (w *world) spawn(n int) {
	for range n {
		w.spawnOne()
	}
	if _, err := w.rt.Delays.RunRepeatingWithTag(w.report, 5*time.Second, "report"); err != nil {
		w.logger.Error("report task rejected", core.F("error", err))
	}
}

func (w *world) spawnOne() {
	w.nextID++
	e := &entity{id: w.nextID}
	w.live[e.id] = e
	owner := coroutine.OwnerOf(e)
	reg := w.rt.Registry

	if _, err := reg.RunWithOwnerAndTag(patrol(e), owner, "ai"); err != nil {
		w.logger.Error("patrol rejected", core.F("entity", e.id), core.F("error", err))
	}
	if _, err := w.rt.Delays.RunRepeatingWithOwnerAndTag(func() { w.heartbeat(e) }, time.Second, owner, "heartbeat"); err != nil {
		w.logger.Error("heartbeat rejected", core.F("entity", e.id), core.F("error", err))
	}

	lifespan := time.Duration(3+rand.IntN(10)) * time.Second
	if _, err := w.rt.Delays.RunDelayedWithOwner(func() { w.despawn(e) }, lifespan, owner); err != nil {
		w.logger.Error("lifespan rejected", core.F("entity", e.id), core.F("error", err))
	}
	w.logger.Debug("entity spawned", core.F("entity", e.id), core.F("lifespan", lifespan))
}

// despawn destroys e and replaces it with a fresh entity. It runs inside one
// of e's own tasks, which the cleanup hook stops along with the others.
func (w *world) despawn(e *entity) {
	delete(w.live, e.id)
	w.rt.Cleanup.NotifyOwnerDestroyed(coroutine.OwnerOf(e))
	w.logger.Debug("entity despawned", core.F("entity", e.id), core.F("pos", e.pos))
	w.spawnOne()
}

func (w *world) heartbeat(e *entity) {
	w.logger.Debug("heartbeat", core.F("entity", e.id), core.F("pos", e.pos))
}

func (w *world) report() {
	reg := w.rt.Registry
	ai, _ := reg.GetDataWithTag("ai")
	stats := reg.Stats()
	w.logger.Info("world report",
		core.F("entities", len(w.live)),
		core.F("tasks", reg.GetActiveCoroutineCount()),
		core.F("patrols", len(ai)),
		core.F("started", stats.Started),
		core.F("stopped", stats.Stopped))

	for _, rec := range reg.History(3) {
		w.logger.Debug("recently finished",
			core.F("label", rec.Label), core.F("status", rec.Status.String()),
			core.F("lifetime", rec.ElapsedRealTime))
	}
}

// patrol walks e back and forth, one step per tick, resting at each end.
func patrol(e *entity) coroutine.Routine {
	return func(yield func(coroutine.Instruction) bool) {
		defer func() { e.pos = 0 }()
		dir := 1
		for {
			for range 10 {
				e.pos += dir
				if !yield(coroutine.NextTick()) {
					return
				}
			}
			dir = -dir
			if !yield(coroutine.WaitFor(500 * time.Millisecond)) {
				return
			}
		}
	}
}
