package manager

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/civ"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/config"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/logging"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/memory"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/storage"
)

// ErrBusy is returned when a device operation is requested while another one
// is still running. The CI-V link is half duplex; exchanges never interleave.
var ErrBusy = errors.New("a radio operation is already in progress")

// DeviceSession is the slice of the CI-V session the manager drives. It is
// an interface so tests can substitute a scripted device.
type DeviceSession interface {
	WriteChannel(data civ.ChannelData) (civ.WriteResult, error)
	ClearChannel(slot int) error
	ReadChannel(slot int) (civ.ChannelData, bool, error)
	Pacing() time.Duration
	Close() error
}

// Dialer opens a device session from configuration.
type Dialer func(cfg *config.Config) (DeviceSession, error)

// DefaultDialer opens the configured serial device.
func DefaultDialer(cfg *config.Config) (DeviceSession, error) {
	radio, err := cfg.RadioAddress()
	if err != nil {
		return nil, err
	}
	controller, err := cfg.ControllerAddress()
	if err != nil {
		return nil, err
	}
	return civ.Dial(cfg.Radio.Device, cfg.Radio.BaudRate,
		civ.WithAddresses(radio, controller),
		civ.WithTimeout(time.Duration(cfg.Radio.CommandTimeoutMs)*time.Millisecond),
		civ.WithPollInterval(time.Duration(cfg.Radio.PollIntervalMs)*time.Millisecond),
		civ.WithPacing(time.Duration(cfg.Radio.PacingDelayMs)*time.Millisecond),
	)
}

// Manager coordinates the local channel model, its persistence and the radio.
// Local edits only need the store; anything touching the radio takes the
// single operation guard first and dials a fresh session for the duration of
// the operation.
type Manager struct {
	cfg   *config.Config
	store *memory.Store
	db    *storage.ChannelStore
	dial  Dialer

	opMu sync.Mutex
}

// New creates a manager. db may be nil to run without persistence.
func New(cfg *config.Config, db *storage.ChannelStore, dial Dialer) *Manager {
	if dial == nil {
		dial = DefaultDialer
	}
	return &Manager{
		cfg:   cfg,
		store: memory.NewStore(),
		db:    db,
		dial:  dial,
	}
}

// Store exposes the local channel model.
func (m *Manager) Store() *memory.Store { return m.store }

// LoadPersisted restores the local model from the database.
func (m *Manager) LoadPersisted() error {
	if m.db == nil {
		return nil
	}
	channels, groups, err := m.db.LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load persisted channels: %w", err)
	}
	m.store.Restore(channels, groups)
	logging.Infof("manager", "loaded %d channels and %d groups from %s",
		len(channels), len(groups), m.cfg.Storage.DatabasePath)
	return nil
}

// autosave persists the current model, logging rather than failing the
// triggering operation on error.
func (m *Manager) autosave() {
	if m.db == nil {
		return
	}
	channels, groups := m.store.Snapshot()
	if err := m.db.SaveAll(channels, groups); err != nil {
		logging.Errorf("manager", "autosave failed: %v", err)
	}
}

// acquire takes the device operation guard without blocking.
func (m *Manager) acquire() error {
	if !m.opMu.TryLock() {
		return ErrBusy
	}
	return nil
}

// SetChannel applies a local edit.
func (m *Manager) SetChannel(ch memory.Channel) error {
	if err := m.store.SetChannel(ch); err != nil {
		return err
	}
	m.autosave()
	return nil
}

// ClearLocalChannel clears a slot in the local model only.
func (m *Manager) ClearLocalChannel(slot int) error {
	if err := m.store.ClearChannel(slot); err != nil {
		return err
	}
	m.autosave()
	return nil
}

// AddGroup declares a group.
func (m *Manager) AddGroup(id string, baseSlot int) error {
	if err := m.store.AddGroup(id, baseSlot); err != nil {
		return err
	}
	m.autosave()
	return nil
}

// UpdateGroup moves a group's base slot.
func (m *Manager) UpdateGroup(id string, baseSlot int) error {
	if err := m.store.UpdateGroup(id, baseSlot); err != nil {
		return err
	}
	m.autosave()
	return nil
}

// DeleteGroup removes a group declaration.
func (m *Manager) DeleteGroup(id string) error {
	if err := m.store.DeleteGroup(id); err != nil {
		return err
	}
	m.autosave()
	return nil
}

// Plan runs the allocator against the current model without touching the
// radio, for previewing a bulk upload's layout.
func (m *Manager) Plan() (*memory.Plan, error) {
	return memory.Allocate(m.store)
}

// Summary reports local memory usage.
func (m *Manager) Summary() memory.Summary {
	return m.store.Summarize()
}

// UploadChannel writes one local channel to its slot on the radio.
func (m *Manager) UploadChannel(slot int) (civ.WriteResult, error) {
	ch, ok := m.store.Channel(slot)
	if !ok || ch.Empty {
		return civ.WriteResult{}, fmt.Errorf("slot %d has no channel to upload", slot)
	}

	if err := m.acquire(); err != nil {
		return civ.WriteResult{}, err
	}
	defer m.opMu.Unlock()

	session, err := m.dial(m.cfg)
	if err != nil {
		return civ.WriteResult{}, err
	}
	defer session.Close()

	return session.WriteChannel(ch.DeviceData())
}

// ClearDeviceChannel erases one slot on the radio and in the local model.
func (m *Manager) ClearDeviceChannel(slot int) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.opMu.Unlock()

	session, err := m.dial(m.cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.ClearChannel(slot); err != nil {
		return err
	}
	if err := m.store.ClearChannel(slot); err != nil {
		return err
	}
	m.autosave()
	return nil
}

// UploadReport summarizes a bulk upload.
type UploadReport struct {
	Written int                `json:"written"`
	Partial int                `json:"partial"`
	Failed  int                `json:"failed"`
	Ranges  []memory.SlotRange `json:"ranges"`
}

// UploadAll allocates slots for every group and ungrouped channel, then
// clears and writes each target slot in ascending order. Allocation conflicts
// fail the whole operation before any frame reaches the radio. Per-slot
// failures are counted but never abort the loop. On completion the local
// model is reorganized to match what was written and persisted.
func (m *Manager) UploadAll(progress func(current, total int)) (UploadReport, error) {
	plan, err := memory.Allocate(m.store)
	if err != nil {
		return UploadReport{}, err
	}
	if len(plan.Assignments) == 0 {
		return UploadReport{}, fmt.Errorf("no channels to upload")
	}

	if err := m.acquire(); err != nil {
		return UploadReport{}, err
	}
	defer m.opMu.Unlock()

	session, err := m.dial(m.cfg)
	if err != nil {
		return UploadReport{}, err
	}
	defer session.Close()

	report := UploadReport{Ranges: plan.Ranges}
	slots := plan.Slots()
	for i, slot := range slots {
		if progress != nil {
			progress(i+1, len(slots))
		}

		ch := plan.Assignments[slot]
		ch.Slot = slot

		if err := session.ClearChannel(slot); err != nil {
			logging.Warnf("manager", "upload slot %d: clear failed: %v", slot, err)
		}

		result, err := session.WriteChannel(ch.DeviceData())
		switch {
		case err != nil:
			logging.Errorf("manager", "upload slot %d (%s): %v", slot, ch.Name, err)
			report.Failed++
		case !result.Extended:
			report.Partial++
		default:
			report.Written++
		}

		time.Sleep(session.Pacing())
	}

	m.store.Reorganize(plan)
	m.autosave()

	logging.Infof("manager", "upload finished: %d written, %d partial, %d failed",
		report.Written, report.Partial, report.Failed)
	return report, nil
}

// DownloadChannel reads one slot from the radio into the local model. The
// second return reports whether the slot held a channel.
func (m *Manager) DownloadChannel(slot int) (memory.Channel, bool, error) {
	if err := m.acquire(); err != nil {
		return memory.Channel{}, false, err
	}
	defer m.opMu.Unlock()

	session, err := m.dial(m.cfg)
	if err != nil {
		return memory.Channel{}, false, err
	}
	defer session.Close()

	data, found, err := session.ReadChannel(slot)
	if err != nil {
		return memory.Channel{}, false, err
	}
	if !found {
		if err := m.store.ClearChannel(slot); err != nil {
			return memory.Channel{}, false, err
		}
		m.autosave()
		return memory.Channel{}, false, nil
	}

	ch := memory.ChannelFromDevice(data)
	if prev, ok := m.store.Channel(slot); ok && !prev.Empty {
		// Group tags live only in the local model; keep them across reads.
		ch.Group = prev.Group
	}
	if err := m.store.SetChannel(ch); err != nil {
		return memory.Channel{}, false, err
	}
	m.autosave()
	return ch, true, nil
}

// DownloadAll reads an inclusive slot range from the radio and replaces the
// local channels with the result. Group declarations survive; member tags do
// not, since the radio carries no group information.
func (m *Manager) DownloadAll(start, end int, progress func(current, total int)) (int, error) {
	if start < 0 || end > memory.MaxSlot || start > end {
		return 0, fmt.Errorf("invalid slot range %d-%d", start, end)
	}

	if err := m.acquire(); err != nil {
		return 0, err
	}
	defer m.opMu.Unlock()

	session, err := m.dial(m.cfg)
	if err != nil {
		return 0, err
	}
	defer session.Close()

	var channels []memory.Channel
	for slot := start; slot <= end; slot++ {
		if progress != nil {
			progress(slot-start+1, end-start+1)
		}
		data, found, err := session.ReadChannel(slot)
		if err != nil {
			logging.Warnf("manager", "download slot %d: %v", slot, err)
		} else if found {
			channels = append(channels, memory.ChannelFromDevice(data))
		}
		time.Sleep(session.Pacing())
	}

	_, groups := m.store.Snapshot()
	m.store.Restore(channels, groups)
	m.autosave()

	logging.Infof("manager", "download finished: %d channels from slots %d-%d",
		len(channels), start, end)
	return len(channels), nil
}

// ExportCSV writes the local channels as CSV.
func (m *Manager) ExportCSV(w io.Writer) error {
	return memory.ExportCSV(w, m.store.Channels())
}

// ExportJSON writes the local channels and groups as JSON.
func (m *Manager) ExportJSON(w io.Writer) error {
	channels, groups := m.store.Snapshot()
	return memory.ExportJSON(w, channels, groups)
}

// ImportCSV replaces the local channels with the parsed CSV contents.
func (m *Manager) ImportCSV(r io.Reader) (int, error) {
	channels, err := memory.ImportCSV(r)
	if err != nil {
		return 0, err
	}
	_, groups := m.store.Snapshot()
	m.store.Restore(channels, groups)
	m.autosave()
	return len(channels), nil
}

// ImportJSON replaces the local channels and groups with the parsed document.
func (m *Manager) ImportJSON(r io.Reader) (int, error) {
	channels, groups, err := memory.ImportJSON(r)
	if err != nil {
		return 0, err
	}
	m.store.Restore(channels, groups)
	m.autosave()
	return len(channels), nil
}

// Close releases persistence resources.
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
