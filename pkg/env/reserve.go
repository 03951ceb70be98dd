// pkg/env/reserve.go

package env

// InitReserve allocates the memory reserve unless it is held already. It is a no-op,
// with a warning, when the probe cannot afford it.
func (e *Environment) InitReserve() {
	if e.reserve != nil || e.conf.ReserveSize == 0 {
		return
	}
	if avail := e.probe.Available(); avail < int64(e.conf.ReserveSize) {
		logger.Warnf("cannot allocate memory reserve of %d bytes, %d available", e.conf.ReserveSize, avail)
		return
	}
	e.reserve = make([]byte, e.conf.ReserveSize)
}

// ClearReserve releases the memory reserve.
func (e *Environment) ClearReserve() {
	e.reserve = nil
}

// HasReserve reports whether the reserve is held.
func (e *Environment) HasReserve() bool {
	return e.reserve != nil
}
