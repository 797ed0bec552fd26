package memory

import (
	"testing"
)

func TestNewStoreAllSlotsEmpty(t *testing.T) {
	st := NewStore()
	channels := st.Channels()
	if len(channels) != MaxSlot+1 {
		t.Fatalf("got %d slots, want %d", len(channels), MaxSlot+1)
	}
	for _, ch := range channels {
		if !ch.Empty {
			t.Fatalf("slot %d not empty on a new store", ch.Slot)
		}
	}
	if got := st.NonEmpty(); len(got) != 0 {
		t.Errorf("NonEmpty on a new store returned %d channels", len(got))
	}
}

func TestSetAndClearChannel(t *testing.T) {
	st := NewStore()
	ch := DefaultChannel(5)
	ch.Name = "TEST"

	if err := st.SetChannel(ch); err != nil {
		t.Fatalf("SetChannel: %v", err)
	}
	got, ok := st.Channel(5)
	if !ok || got.Empty || got.Name != "TEST" {
		t.Fatalf("Channel(5) = %+v, %v", got, ok)
	}

	if err := st.ClearChannel(5); err != nil {
		t.Fatalf("ClearChannel: %v", err)
	}
	got, _ = st.Channel(5)
	if !got.Empty {
		t.Error("slot not empty after clear")
	}

	if err := st.SetChannel(DefaultChannel(100)); err == nil {
		t.Error("expected error for out-of-range slot")
	}
	if err := st.ClearChannel(-1); err == nil {
		t.Error("expected error for negative slot")
	}
}

func TestGroupLifecycle(t *testing.T) {
	st := NewStore()

	if err := st.AddGroup("POTA", 20); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	if err := st.AddGroup("POTA", 30); err == nil {
		t.Error("duplicate group id accepted")
	}
	if err := st.AddGroup("", 0); err == nil {
		t.Error("empty group id accepted")
	}

	if err := st.AddGroup("NETS", 40); err != nil {
		t.Fatalf("AddGroup: %v", err)
	}

	// Declaration order must be stable
	groups := st.Groups()
	if len(groups) != 2 || groups[0].ID != "POTA" || groups[1].ID != "NETS" {
		t.Fatalf("groups = %+v", groups)
	}

	if err := st.UpdateGroup("NETS", 50); err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}
	g, ok := st.Group("NETS")
	if !ok || g.BaseSlot != 50 {
		t.Errorf("Group(NETS) = %+v, %v", g, ok)
	}
	if err := st.UpdateGroup("MISSING", 10); err == nil {
		t.Error("update of unknown group accepted")
	}
}

func TestDeleteGroupKeepsChannels(t *testing.T) {
	st := NewStore()
	st.AddGroup("POTA", 20)

	ch := DefaultChannel(3)
	ch.Group = "POTA"
	st.SetChannel(ch)

	if err := st.DeleteGroup("POTA"); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	got, _ := st.Channel(3)
	if got.Empty {
		t.Fatal("member channel deleted with its group")
	}
	if got.Group != "" {
		t.Errorf("group tag %q not cleared", got.Group)
	}
	if err := st.DeleteGroup("POTA"); err == nil {
		t.Error("second delete accepted")
	}
}

func TestMembersOrderedBySlot(t *testing.T) {
	st := NewStore()
	st.AddGroup("POTA", 20)
	for _, slot := range []int{9, 2, 5} {
		ch := DefaultChannel(slot)
		ch.Group = "POTA"
		st.SetChannel(ch)
	}

	members := st.Members("POTA")
	if len(members) != 3 {
		t.Fatalf("got %d members", len(members))
	}
	for i, want := range []int{2, 5, 9} {
		if members[i].Slot != want {
			t.Errorf("member %d at slot %d, want %d", i, members[i].Slot, want)
		}
	}
}

func TestRestore(t *testing.T) {
	st := NewStore()
	st.SetChannel(DefaultChannel(7))

	replacement := DefaultChannel(3)
	replacement.Name = "NEW"
	st.Restore([]Channel{replacement}, []Group{{ID: "NETS", BaseSlot: 10}})

	if got, _ := st.Channel(7); !got.Empty {
		t.Error("stale channel survived restore")
	}
	got, _ := st.Channel(3)
	if got.Empty || got.Name != "NEW" {
		t.Errorf("Channel(3) = %+v", got)
	}
	if groups := st.Groups(); len(groups) != 1 || groups[0].ID != "NETS" {
		t.Errorf("groups = %+v", groups)
	}
}

func TestReorganize(t *testing.T) {
	st := NewStore()
	old := DefaultChannel(50)
	old.Name = "OLD SLOT"
	st.SetChannel(old)

	moved := old
	plan := &Plan{Assignments: map[int]Channel{2: moved}}
	st.Reorganize(plan)

	if got, _ := st.Channel(50); !got.Empty {
		t.Error("channel still at old slot after reorganize")
	}
	got, _ := st.Channel(2)
	if got.Empty || got.Name != "OLD SLOT" || got.Slot != 2 {
		t.Errorf("Channel(2) = %+v", got)
	}
}

func TestSummarize(t *testing.T) {
	st := NewStore()

	ssb := DefaultChannel(1) // 14.2 MHz USB
	st.SetChannel(ssb)

	cw := DefaultChannel(2)
	cw.RxFrequency = 7_030_000
	cw.Mode = ModeCW
	st.SetChannel(cw)

	sum := st.Summarize()
	if sum.UsedChannels != 2 || sum.FreeChannels != 98 {
		t.Errorf("used %d free %d", sum.UsedChannels, sum.FreeChannels)
	}
	if sum.ByMode["USB"] != 1 || sum.ByMode["CW"] != 1 {
		t.Errorf("by mode = %v", sum.ByMode)
	}
	if sum.ByBand["20m"] != 1 || sum.ByBand["40m"] != 1 {
		t.Errorf("by band = %v", sum.ByBand)
	}
}
