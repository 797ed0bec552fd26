package storage

import (
	"path/filepath"
	"testing"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/memory"
)

func testStore(t *testing.T) *ChannelStore {
	t.Helper()
	store, err := NewChannelStore(filepath.Join(t.TempDir(), "channels.db"))
	if err != nil {
		t.Fatalf("NewChannelStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndLoad(t *testing.T) {
	store := testStore(t)

	ch := memory.DefaultChannel(5)
	ch.Name = "DX NET"
	ch.TxFrequency = 14_210_000
	ch.Duplex = memory.DuplexSplit
	ch.ToneMode = memory.ToneEnc
	ch.ToneFrequency = 103.5
	ch.Group = "NETS"

	groups := []memory.Group{
		{ID: "NETS", BaseSlot: 10},
		{ID: "POTA", BaseSlot: 30},
	}

	if err := store.SaveAll([]memory.Channel{ch}, groups); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	channels, gotGroups, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("got %d channels", len(channels))
	}

	got := channels[0]
	if got.Slot != 5 || got.Name != "DX NET" || got.Group != "NETS" {
		t.Errorf("channel = %+v", got)
	}
	if got.RxFrequency != ch.RxFrequency || got.TxFrequency != 14_210_000 {
		t.Errorf("frequencies = %d/%d", got.RxFrequency, got.TxFrequency)
	}
	if got.Mode != memory.ModeUSB || got.Duplex != memory.DuplexSplit {
		t.Errorf("mode/duplex = %v/%v", got.Mode, got.Duplex)
	}
	if got.ToneMode != memory.ToneEnc || got.ToneFrequency != 103.5 {
		t.Errorf("tone = %v/%v", got.ToneMode, got.ToneFrequency)
	}

	// Declaration order survives persistence
	if len(gotGroups) != 2 || gotGroups[0].ID != "NETS" || gotGroups[1].ID != "POTA" {
		t.Errorf("groups = %+v", gotGroups)
	}
}

func TestSaveAllReplacesState(t *testing.T) {
	store := testStore(t)

	if err := store.SaveAll([]memory.Channel{memory.DefaultChannel(1), memory.DefaultChannel(2)}, nil); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	if err := store.SaveAll([]memory.Channel{memory.DefaultChannel(9)}, nil); err != nil {
		t.Fatalf("second SaveAll: %v", err)
	}

	channels, _, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(channels) != 1 || channels[0].Slot != 9 {
		t.Errorf("channels = %+v", channels)
	}
}

func TestSaveAllSkipsEmptyChannels(t *testing.T) {
	store := testStore(t)

	if err := store.SaveAll([]memory.Channel{memory.EmptyChannel(0), memory.DefaultChannel(3)}, nil); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	channels, _, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(channels) != 1 || channels[0].Slot != 3 {
		t.Errorf("channels = %+v", channels)
	}
}

func TestLoadAllEmptyDatabase(t *testing.T) {
	store := testStore(t)
	channels, groups, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(channels) != 0 || len(groups) != 0 {
		t.Errorf("fresh database returned %d channels, %d groups", len(channels), len(groups))
	}
}
