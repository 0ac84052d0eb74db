// Package perf wraps hardware performance counters for the benchmark
// harness. Counters may be unavailable (restricted kernel settings,
// unknown CPU, non-Linux host); the distinguished dummy event bypasses
// the hardware entirely so a harness can still run end to end.
package perf

import (
	"sync"

	"tlog.app/go/errors"
)

type (
	Event struct {
		Name string

		dummy  bool
		ok     bool
		typ    uint32
		config uint64
	}

	Counter struct {
		ev Event
		fd int
	}
)

// DummyEventName skips interaction with real counters while still
// passing control through the measured code path.
const DummyEventName = "not-really-an-event"

const dummyCount = 42

var ErrUnavailable = errors.New("performance counters unavailable")

var (
	mu          sync.Mutex
	initialized bool
)

// Initialize prepares process-wide counter state. Safe to call more
// than once.
func Initialize() error {
	mu.Lock()
	defer mu.Unlock()

	initialized = true

	return nil
}

// Terminate releases process-wide counter state. Idempotent.
func Terminate() {
	mu.Lock()
	defer mu.Unlock()

	initialized = false
}

func NewEvent(name string) Event {
	if name == DummyEventName {
		return Event{Name: name, dummy: true, ok: true}
	}

	return resolveEvent(name)
}

func (e Event) Valid() bool { return e.ok }
func (e Event) Dummy() bool { return e.dummy }

// NewCounter opens a counter for ev observing the given process
// (0 means the calling process).
func NewCounter(ev Event, pid int) (*Counter, error) {
	mu.Lock()
	ready := initialized
	mu.Unlock()

	if !ready {
		return nil, errors.New("perf not initialized")
	}

	if !ev.Valid() {
		return nil, errors.New("invalid event: %v", ev.Name)
	}

	c := &Counter{ev: ev, fd: -1}

	if ev.dummy {
		return c, nil
	}

	fd, err := openCounter(ev, pid)
	if err != nil {
		return nil, errors.Wrap(err, "open event %v", ev.Name)
	}

	c.fd = fd

	return c, nil
}

func (c *Counter) Start() error {
	if c.ev.dummy {
		return nil
	}

	return startCounter(c.fd)
}

func (c *Counter) Stop() error {
	if c.ev.dummy {
		return nil
	}

	return stopCounter(c.fd)
}

// Read returns the counter values accumulated since Start.
func (c *Counter) Read() ([]int64, error) {
	if c.ev.dummy {
		return []int64{dummyCount}, nil
	}

	return readCounter(c.fd)
}

func (c *Counter) Close() error {
	if c.ev.dummy || c.fd < 0 {
		return nil
	}

	err := closeCounter(c.fd)
	c.fd = -1

	return err
}
