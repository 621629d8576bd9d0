package goSession

// Watch subscribes to session snapshots. The current snapshot is delivered
// immediately, then one per state change. A watcher that falls behind keeps
// only the newest snapshots that fit in its buffer.
//
// The returned cancel func unsubscribes and closes the channel; Close does the
// same for every watcher.
func (m *Manager) Watch(buffer int) (<-chan Snapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)
	if m == nil {
		close(ch)
		return ch, func() {}
	}

	m.watchMu.Lock()
	if m.closed {
		m.watchMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := m.nextWatchID
	m.nextWatchID++
	m.watchers[id] = ch
	ch <- m.Session()
	m.watchMu.Unlock()

	return ch, func() {
		m.watchMu.Lock()
		defer m.watchMu.Unlock()
		if w, ok := m.watchers[id]; ok {
			delete(m.watchers, id)
			close(w)
		}
	}
}

func (m *Manager) publish() {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	if len(m.watchers) == 0 {
		return
	}
	snap := m.Session()
	for _, ch := range m.watchers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (m *Manager) closeWatchers() {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	m.closed = true
	for id, ch := range m.watchers {
		delete(m.watchers, id)
		close(ch)
	}
}
