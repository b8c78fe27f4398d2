package snapshot

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// Snapshot is a committed, read-only copy of the realtime state. Readers can
// keep using a snapshot for as long as they like, commits never touch it.
type Snapshot struct {
	*timetableData

	Sequence  int64
	Committed time.Time
}

// CommitListener is told about every published snapshot
type CommitListener interface {
	OnCommit(snapshot *Snapshot)
}

type ManagerOptions struct {
	// Realtime data of service dates older than this many days is dropped on
	// commit, zero keeps everything
	PurgeAfterDays int

	Now func() time.Time
}

// Manager owns the write buffer and publishes snapshots of it. Writers are
// serialised, readers only load the current snapshot pointer.
type Manager struct {
	options ManagerOptions

	writeMutex sync.Mutex
	buffer     *Buffer

	snapshot        atomic.Pointer[Snapshot]
	sequence        int64
	commitListeners []CommitListener
}

func NewManager(model *ctdf.TransitModel, options ManagerOptions) *Manager {
	if options.Now == nil {
		options.Now = time.Now
	}

	manager := &Manager{
		options: options,
		buffer:  NewBuffer(model),
	}
	manager.snapshot.Store(&Snapshot{timetableData: newTimetableData(model), Committed: options.Now()})

	return manager
}

func (m *Manager) AddListener(listener Listener) {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()

	m.buffer.AddListener(listener)
}

func (m *Manager) AddCommitListener(listener CommitListener) {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()

	m.commitListeners = append(m.commitListeners, listener)
}

// Snapshot returns the last committed snapshot
func (m *Manager) Snapshot() *Snapshot {
	return m.snapshot.Load()
}

// WithBuffer runs fn as the only writer of the buffer
func (m *Manager) WithBuffer(fn func(buffer *Buffer)) {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()

	fn(m.buffer)
}

func (m *Manager) UpdateBuffer(update *ctdf.RealTimeTripUpdate) (tripupdate.UpdateSuccess, error) {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()

	return m.buffer.Update(update)
}

func (m *Manager) ClearBuffer(feedID string) {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()

	m.buffer.Clear(feedID)
}

// Commit publishes a copy of the buffer as the new snapshot
func (m *Manager) Commit() *Snapshot {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()

	return m.commitLocked()
}

// CommitIfDirty commits only when the buffer changed since the last commit,
// returning nil otherwise
func (m *Manager) CommitIfDirty() *Snapshot {
	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()

	if !m.buffer.IsDirty() {
		return nil
	}

	return m.commitLocked()
}

// SeedBuffer returns an independent buffer holding the committed state,
// without listeners. Writes to it never reach the manager.
func (m *Manager) SeedBuffer() *Buffer {
	return &Buffer{timetableData: m.Snapshot().timetableData.clone()}
}

func (m *Manager) commitLocked() *Snapshot {
	now := m.options.Now()

	if m.options.PurgeAfterDays > 0 {
		cutoff := ctdf.ServiceDateOf(now.In(m.buffer.model.TimeZone)).AddDays(-m.options.PurgeAfterDays)
		if m.buffer.PurgeExpiredData(cutoff) {
			log.Debug().Str("before", cutoff.String()).Msg("Purged expired realtime data")
		}
	}

	m.sequence++
	snapshot := &Snapshot{
		timetableData: m.buffer.clone(),
		Sequence:      m.sequence,
		Committed:     now,
	}
	m.snapshot.Store(snapshot)
	m.buffer.dirty = false

	for _, listener := range m.commitListeners {
		listener.OnCommit(snapshot)
	}

	return snapshot
}
