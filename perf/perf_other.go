//go:build !linux

package perf

import (
	"tlog.app/go/tlog"
)

func resolveEvent(name string) Event {
	tlog.Printw("cannot create event", "event", name, "err", ErrUnavailable)
	return Event{Name: name}
}

func openCounter(Event, int) (int, error) {
	return -1, ErrUnavailable
}

func startCounter(int) error {
	return ErrUnavailable
}

func stopCounter(int) error {
	return ErrUnavailable
}

func readCounter(int) ([]int64, error) {
	return nil, ErrUnavailable
}

func closeCounter(int) error {
	return nil
}
