//go:build linux

package perf

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

var events = map[string]struct {
	typ    uint32
	config uint64
}{
	"cycles":        {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CPU_CYCLES},
	"instructions":  {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_INSTRUCTIONS},
	"cache-misses":  {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_CACHE_MISSES},
	"branch-misses": {unix.PERF_TYPE_HARDWARE, unix.PERF_COUNT_HW_BRANCH_MISSES},
	"task-clock":    {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_TASK_CLOCK},
	"page-faults":   {unix.PERF_TYPE_SOFTWARE, unix.PERF_COUNT_SW_PAGE_FAULTS},
}

func resolveEvent(name string) Event {
	ev, ok := events[name]
	if !ok {
		tlog.Printw("cannot create event", "event", name)
		return Event{Name: name}
	}

	return Event{Name: name, ok: true, typ: ev.typ, config: ev.config}
}

func openCounter(ev Event, pid int) (int, error) {
	attr := &unix.PerfEventAttr{
		Type:   ev.typ,
		Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config: ev.config,
		Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
	}

	fd, err := unix.PerfEventOpen(attr, pid, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		// kernel.perf_event_paranoid commonly forbids this
		return -1, errors.Wrap(ErrUnavailable, "%v", err)
	}

	return fd, nil
}

func startCounter(fd int) error {
	err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0)
	if err != nil {
		return errors.Wrap(err, "reset")
	}

	err = unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0)
	if err != nil {
		return errors.Wrap(err, "enable")
	}

	return nil
}

func stopCounter(fd int) error {
	err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_DISABLE, 0)
	if err != nil {
		return errors.Wrap(err, "disable")
	}

	return nil
}

func readCounter(fd int) ([]int64, error) {
	var buf [8]byte

	n, err := unix.Read(fd, buf[:])
	if err != nil {
		return nil, errors.Wrap(err, "read counter")
	}

	if n != len(buf) {
		return nil, errors.Wrap(ErrUnavailable, "short read: %d bytes", n)
	}

	return []int64{int64(binary.NativeEndian.Uint64(buf[:]))}, nil
}

func closeCounter(fd int) error {
	return unix.Close(fd)
}
