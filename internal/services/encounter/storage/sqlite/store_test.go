package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/progressions/shot-server/internal/services/encounter/domain"
	"github.com/progressions/shot-server/internal/services/encounter/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir() + "/encounter.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func seedFight(t *testing.T, store *Store, fightID string) {
	t.Helper()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PutFight(context.Background(), domain.Fight{
		ID:         fightID,
		CampaignID: "campaign-1",
		Name:       "Warehouse Brawl",
		Sequence:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatalf("put fight: %v", err)
	}
}

func seedParty(t *testing.T, store *Store, partyID string) {
	t.Helper()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PutParty(context.Background(), domain.Party{
		ID:         partyID,
		CampaignID: "campaign-1",
		Name:       "The Dragons",
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatalf("put party: %v", err)
	}
}

func seedSlot(t *testing.T, store *Store, partyID, role, characterID, vehicleID string) domain.Slot {
	t.Helper()
	slot, err := domain.CreateSlot(domain.CreateSlotInput{
		PartyID:     partyID,
		Role:        role,
		CharacterID: characterID,
		VehicleID:   vehicleID,
	}, nil, nil)
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	inserted, err := store.InsertSlot(context.Background(), slot)
	if err != nil {
		t.Fatalf("insert slot: %v", err)
	}
	return inserted
}

func rosterIDs(t *testing.T, store *Store, fightID string, kind domain.ParticipantKind) []string {
	t.Helper()
	shots, err := store.ListShots(context.Background(), fightID)
	if err != nil {
		t.Fatalf("list shots: %v", err)
	}
	var ids []string
	for _, shot := range shots {
		if participantID := shot.ParticipantID(kind); participantID != "" {
			ids = append(ids, participantID)
		}
	}
	return ids
}

func TestFightRoundTrip(t *testing.T) {
	store := newTestStore(t)

	createdAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	fight := domain.Fight{
		ID:         "fight-1",
		CampaignID: "campaign-1",
		Name:       "Opening Brawl",
		Sequence:   1,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	if err := store.PutFight(context.Background(), fight); err != nil {
		t.Fatalf("put fight: %v", err)
	}

	got, err := store.GetFight(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("get fight: %v", err)
	}
	if got.Name != "Opening Brawl" || got.Sequence != 1 {
		t.Fatalf("fight = %+v, want name Opening Brawl sequence 1", got)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, createdAt)
	}

	fight.Name = "Second Act"
	fight.Sequence = 2
	fight.UpdatedAt = createdAt.Add(time.Hour)
	if err := store.PutFight(context.Background(), fight); err != nil {
		t.Fatalf("update fight: %v", err)
	}
	got, err = store.GetFight(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("get updated fight: %v", err)
	}
	if got.Name != "Second Act" || got.Sequence != 2 {
		t.Fatalf("fight = %+v, want name Second Act sequence 2", got)
	}

	if err := store.DeleteFight(context.Background(), "fight-1"); err != nil {
		t.Fatalf("delete fight: %v", err)
	}
	if _, err := store.GetFight(context.Background(), "fight-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted fight error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteFight(context.Background(), "fight-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("delete missing fight error = %v, want ErrNotFound", err)
	}
}

func TestPartyRoundTrip(t *testing.T) {
	store := newTestStore(t)

	createdAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	if err := store.PutParty(context.Background(), domain.Party{
		ID:          "party-1",
		CampaignID:  "campaign-1",
		Name:        "The Jade Wheel",
		Description: "Triad enforcers",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}); err != nil {
		t.Fatalf("put party: %v", err)
	}

	got, err := store.GetParty(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("get party: %v", err)
	}
	if got.Name != "The Jade Wheel" || got.Description != "Triad enforcers" {
		t.Fatalf("party = %+v", got)
	}

	if err := store.DeleteParty(context.Background(), "party-1"); err != nil {
		t.Fatalf("delete party: %v", err)
	}
	if _, err := store.GetParty(context.Background(), "party-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted party error = %v, want ErrNotFound", err)
	}
}

func TestReconcileShotsCreatesMissingEntries(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	created, deleted, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "alice", "bob"})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if created != 3 || deleted != 0 {
		t.Fatalf("created = %d deleted = %d, want 3 and 0", created, deleted)
	}

	got := rosterIDs(t, store, "fight-1", domain.ParticipantKindCharacter)
	want := []string{"alice", "alice", "bob"}
	if len(got) != len(want) {
		t.Fatalf("roster = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("roster = %v, want %v", got, want)
		}
	}
}

func TestReconcileShotsDeletesNewestCopyFirst(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	// Build the roster across three reconciliations at distinct times so each
	// copy of alice has its own created_at.
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return base }
	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice"}); err != nil {
		t.Fatalf("reconcile 1: %v", err)
	}
	store.clock = func() time.Time { return base.Add(time.Minute) }
	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "alice"}); err != nil {
		t.Fatalf("reconcile 2: %v", err)
	}
	store.clock = func() time.Time { return base.Add(2 * time.Minute) }
	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "alice", "bob"}); err != nil {
		t.Fatalf("reconcile 3: %v", err)
	}

	shots, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots: %v", err)
	}
	if len(shots) != 3 {
		t.Fatalf("len(shots) = %d, want 3", len(shots))
	}
	oldestAliceID := shots[0].ID

	created, deleted, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "bob"})
	if err != nil {
		t.Fatalf("reconcile down: %v", err)
	}
	if created != 0 || deleted != 1 {
		t.Fatalf("created = %d deleted = %d, want 0 and 1", created, deleted)
	}

	shots, err = store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots after: %v", err)
	}
	if len(shots) != 2 {
		t.Fatalf("len(shots) = %d, want 2", len(shots))
	}
	if shots[0].ID != oldestAliceID {
		t.Fatalf("surviving alice = %s, want oldest %s", shots[0].ID, oldestAliceID)
	}
	if shots[1].VehicleID != "" || shots[1].CharacterID != "bob" {
		t.Fatalf("second shot = %+v, want bob", shots[1])
	}
}

func TestReconcileShotsKeepsInitiativeOfOldestCopy(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i, desired := range [][]string{
		{"mook"},
		{"mook", "mook"},
		{"mook", "mook", "mook"},
	} {
		offset := time.Duration(i) * time.Minute
		store.clock = func() time.Time { return base.Add(offset) }
		if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, desired); err != nil {
			t.Fatalf("reconcile %d: %v", i, err)
		}
	}
	shots, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots: %v", err)
	}
	if len(shots) != 3 {
		t.Fatalf("len(shots) = %d, want 3", len(shots))
	}

	// Distinct initiative per copy makes the tie-break observable.
	for i, shot := range shots {
		value := 10 + i
		if _, err := store.SetShotInitiative(context.Background(), "fight-1", shot.ID, &value); err != nil {
			t.Fatalf("set initiative on %s: %v", shot.ID, err)
		}
	}

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"mook"}); err != nil {
		t.Fatalf("reconcile down: %v", err)
	}
	shots, err = store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots after: %v", err)
	}
	if len(shots) != 1 {
		t.Fatalf("len(shots) = %d, want 1", len(shots))
	}
	if shots[0].Initiative == nil || *shots[0].Initiative != 10 {
		t.Fatalf("survivor initiative = %v, want 10 (the oldest copy)", shots[0].Initiative)
	}
}

func TestSetShotInitiativeScopesAndClears(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")
	seedFight(t, store, "fight-2")

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice"}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	shots, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots: %v", err)
	}

	value := 14
	updated, err := store.SetShotInitiative(context.Background(), "fight-1", shots[0].ID, &value)
	if err != nil {
		t.Fatalf("set initiative: %v", err)
	}
	if updated.Initiative == nil || *updated.Initiative != 14 {
		t.Fatalf("initiative = %v, want 14", updated.Initiative)
	}

	cleared, err := store.SetShotInitiative(context.Background(), "fight-1", shots[0].ID, nil)
	if err != nil {
		t.Fatalf("clear initiative: %v", err)
	}
	if cleared.Initiative != nil {
		t.Fatalf("initiative = %v, want nil", *cleared.Initiative)
	}

	if _, err := store.SetShotInitiative(context.Background(), "fight-2", shots[0].ID, &value); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cross-fight set error = %v, want ErrNotFound", err)
	}
	if _, err := store.SetShotInitiative(context.Background(), "fight-1", "missing", &value); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing shot error = %v, want ErrNotFound", err)
	}
}

func TestReconcileShotsSwapsParticipants(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"c1", "c1", "c1"}); err != nil {
		t.Fatalf("reconcile up: %v", err)
	}
	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"c1"}); err != nil {
		t.Fatalf("reconcile down: %v", err)
	}
	created, deleted, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"c2"})
	if err != nil {
		t.Fatalf("reconcile swap: %v", err)
	}
	if created != 1 || deleted != 1 {
		t.Fatalf("created = %d deleted = %d, want 1 and 1", created, deleted)
	}

	ids := rosterIDs(t, store, "fight-1", domain.ParticipantKindCharacter)
	if len(ids) != 1 || ids[0] != "c2" {
		t.Fatalf("roster = %v, want [c2]", ids)
	}
}

func TestReconcileShotsBreaksCreatedAtTiesByInsertOrder(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	// One reconcile gives every copy the same created_at millisecond.
	fixed := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.clock = func() time.Time { return fixed }
	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "alice", "alice"}); err != nil {
		t.Fatalf("reconcile up: %v", err)
	}
	before, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots: %v", err)
	}

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice"}); err != nil {
		t.Fatalf("reconcile down: %v", err)
	}
	after, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots after: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("len(after) = %d, want 1", len(after))
	}
	if after[0].ID != before[0].ID {
		t.Fatalf("survivor = %s, want first-inserted %s", after[0].ID, before[0].ID)
	}
}

func TestReconcileShotsLeavesOtherKindUntouched(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindVehicle, []string{"pursuit-car"}); err != nil {
		t.Fatalf("reconcile vehicles: %v", err)
	}
	created, deleted, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice"})
	if err != nil {
		t.Fatalf("reconcile characters: %v", err)
	}
	if created != 1 || deleted != 0 {
		t.Fatalf("created = %d deleted = %d, want 1 and 0", created, deleted)
	}

	vehicles := rosterIDs(t, store, "fight-1", domain.ParticipantKindVehicle)
	if len(vehicles) != 1 || vehicles[0] != "pursuit-car" {
		t.Fatalf("vehicles = %v, want [pursuit-car]", vehicles)
	}
}

func TestReconcileShotsEmptyDesiredClearsKind(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "bob"}); err != nil {
		t.Fatalf("reconcile up: %v", err)
	}
	created, deleted, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, nil)
	if err != nil {
		t.Fatalf("reconcile empty: %v", err)
	}
	if created != 0 || deleted != 2 {
		t.Fatalf("created = %d deleted = %d, want 0 and 2", created, deleted)
	}
	if ids := rosterIDs(t, store, "fight-1", domain.ParticipantKindCharacter); len(ids) != 0 {
		t.Fatalf("roster = %v, want empty", ids)
	}
}

func TestReconcileShotsMatchingRosterIsNoOp(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "alice"}); err != nil {
		t.Fatalf("reconcile up: %v", err)
	}
	before, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots: %v", err)
	}

	created, deleted, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "alice"})
	if err != nil {
		t.Fatalf("reconcile same: %v", err)
	}
	if created != 0 || deleted != 0 {
		t.Fatalf("created = %d deleted = %d, want 0 and 0", created, deleted)
	}

	after, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots after: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("len(after) = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i].ID != before[i].ID {
			t.Fatalf("shot %d = %s, want %s", i, after[i].ID, before[i].ID)
		}
	}
}

func TestReconcileShotsUnknownFight(t *testing.T) {
	store := newTestStore(t)

	if _, _, err := store.ReconcileShots(context.Background(), "missing", domain.ParticipantKindCharacter, []string{"alice"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("reconcile error = %v, want ErrNotFound", err)
	}
	if _, err := store.ListShots(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("list error = %v, want ErrNotFound", err)
	}
}

func TestReconcileShotsRejectsInvalidKind(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindUnspecified, []string{"alice"}); !errors.Is(err, domain.ErrInvalidKind) {
		t.Fatalf("reconcile error = %v, want ErrInvalidKind", err)
	}
}

func TestAppendPartyShotsSkipsUnboundSlots(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")
	seedParty(t, store, "party-1")
	seedSlot(t, store, "party-1", domain.RoleBoss, "big-bad", "")
	seedSlot(t, store, "party-1", domain.RoleMook, "", "")
	seedSlot(t, store, "party-1", domain.RoleDriver, "", "van-1")

	created, err := store.AppendPartyShots(context.Background(), "fight-1", "party-1")
	if err != nil {
		t.Fatalf("append party: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	shots, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots: %v", err)
	}
	if len(shots) != 2 {
		t.Fatalf("len(shots) = %d, want 2", len(shots))
	}
	if shots[0].CharacterID != "big-bad" {
		t.Fatalf("shot 0 = %+v, want big-bad", shots[0])
	}
	if shots[1].VehicleID != "van-1" {
		t.Fatalf("shot 1 = %+v, want van-1", shots[1])
	}
	if shots[0].Initiative != nil {
		t.Fatalf("initiative = %v, want unset", *shots[0].Initiative)
	}
}

func TestAppendPartyShotsAppendsDuplicates(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")
	seedParty(t, store, "party-1")
	seedSlot(t, store, "party-1", domain.RoleBoss, "big-bad", "")

	for i := 0; i < 2; i++ {
		if _, err := store.AppendPartyShots(context.Background(), "fight-1", "party-1"); err != nil {
			t.Fatalf("append party %d: %v", i, err)
		}
	}
	ids := rosterIDs(t, store, "fight-1", domain.ParticipantKindCharacter)
	if len(ids) != 2 || ids[0] != "big-bad" || ids[1] != "big-bad" {
		t.Fatalf("roster = %v, want [big-bad big-bad]", ids)
	}
}

func TestAppendPartyShotsMissingRecords(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")
	seedParty(t, store, "party-1")

	if _, err := store.AppendPartyShots(context.Background(), "missing", "party-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing fight error = %v, want ErrNotFound", err)
	}
	if _, err := store.AppendPartyShots(context.Background(), "fight-1", "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing party error = %v, want ErrNotFound", err)
	}
}

func TestReplaceSlotsStampsTemplate(t *testing.T) {
	store := newTestStore(t)
	seedParty(t, store, "party-1")
	seedSlot(t, store, "party-1", domain.RoleAlly, "old-friend", "")

	template, ok := domain.TemplateByKey("big_boss_showdown")
	if !ok {
		t.Fatalf("template big_boss_showdown not in catalog")
	}

	slots, err := store.ReplaceSlots(context.Background(), "party-1", template)
	if err != nil {
		t.Fatalf("replace slots: %v", err)
	}
	if len(slots) != len(template.Slots) {
		t.Fatalf("len(slots) = %d, want %d", len(slots), len(template.Slots))
	}
	for i, slot := range slots {
		if slot.Position != i {
			t.Fatalf("slot %d position = %d", i, slot.Position)
		}
		if slot.Role != template.Slots[i].Role {
			t.Fatalf("slot %d role = %q, want %q", i, slot.Role, template.Slots[i].Role)
		}
		if slot.Bound() {
			t.Fatalf("slot %d is bound: %+v", i, slot)
		}
	}

	persisted, err := store.ListSlots(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(persisted) != len(template.Slots) {
		t.Fatalf("persisted = %d slots, want %d", len(persisted), len(template.Slots))
	}
	for _, slot := range persisted {
		if slot.CharacterID == "old-friend" {
			t.Fatalf("pre-template slot survived: %+v", slot)
		}
	}
}

func TestInsertSlotAppendsAtNextPosition(t *testing.T) {
	store := newTestStore(t)
	seedParty(t, store, "party-1")

	first := seedSlot(t, store, "party-1", domain.RoleBoss, "", "")
	second := seedSlot(t, store, "party-1", domain.RoleMook, "", "")
	if first.Position != 0 || second.Position != 1 {
		t.Fatalf("positions = %d, %d, want 0, 1", first.Position, second.Position)
	}

	if err := store.DeleteSlot(context.Background(), "party-1", second.ID); err != nil {
		t.Fatalf("delete slot: %v", err)
	}
	third := seedSlot(t, store, "party-1", domain.RoleDriver, "", "")
	if third.Position != 1 {
		t.Fatalf("position after delete = %d, want 1", third.Position)
	}
}

func TestUpdateSlotRebindSwitchesKind(t *testing.T) {
	store := newTestStore(t)
	seedParty(t, store, "party-1")
	slot := seedSlot(t, store, "party-1", domain.RoleDriver, "wheelman", "")

	vehicleID := "pursuit-car"
	updated, err := store.UpdateSlot(context.Background(), "party-1", slot.ID, domain.SlotUpdate{VehicleID: &vehicleID})
	if err != nil {
		t.Fatalf("update slot: %v", err)
	}
	if updated.VehicleID != "pursuit-car" || updated.CharacterID != "" {
		t.Fatalf("slot = %+v, want vehicle bound and character detached", updated)
	}

	got, err := store.ListSlots(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if got[0].VehicleID != "pursuit-car" || got[0].CharacterID != "" {
		t.Fatalf("persisted slot = %+v", got[0])
	}
}

func TestUpdateSlotForeignPartyNotFound(t *testing.T) {
	store := newTestStore(t)
	seedParty(t, store, "party-1")
	seedParty(t, store, "party-2")
	slot := seedSlot(t, store, "party-1", domain.RoleBoss, "", "")

	role := "renamed"
	if _, err := store.UpdateSlot(context.Background(), "party-2", slot.ID, domain.SlotUpdate{Role: &role}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cross-party update error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteSlot(context.Background(), "party-2", slot.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("cross-party delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSlotRenumbersSurvivors(t *testing.T) {
	store := newTestStore(t)
	seedParty(t, store, "party-1")
	first := seedSlot(t, store, "party-1", domain.RoleBoss, "", "")
	second := seedSlot(t, store, "party-1", domain.RoleFeaturedFoe, "", "")
	third := seedSlot(t, store, "party-1", domain.RoleMook, "", "")

	if err := store.DeleteSlot(context.Background(), "party-1", second.ID); err != nil {
		t.Fatalf("delete slot: %v", err)
	}

	slots, err := store.ListSlots(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("len(slots) = %d, want 2", len(slots))
	}
	if slots[0].ID != first.ID || slots[0].Position != 0 {
		t.Fatalf("slot 0 = %+v, want %s at 0", slots[0], first.ID)
	}
	if slots[1].ID != third.ID || slots[1].Position != 1 {
		t.Fatalf("slot 1 = %+v, want %s at 1", slots[1], third.ID)
	}
}

func TestReorderSlotsAppliesPermutation(t *testing.T) {
	store := newTestStore(t)
	seedParty(t, store, "party-1")
	first := seedSlot(t, store, "party-1", domain.RoleBoss, "", "")
	second := seedSlot(t, store, "party-1", domain.RoleFeaturedFoe, "", "")
	third := seedSlot(t, store, "party-1", domain.RoleMook, "", "")

	reordered, err := store.ReorderSlots(context.Background(), "party-1", []string{third.ID, first.ID, second.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if reordered[0].ID != third.ID || reordered[1].ID != first.ID || reordered[2].ID != second.ID {
		t.Fatalf("reordered = %v", reordered)
	}

	slots, err := store.ListSlots(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	for i, want := range []string{third.ID, first.ID, second.ID} {
		if slots[i].ID != want || slots[i].Position != i {
			t.Fatalf("slot %d = %+v, want %s at %d", i, slots[i], want, i)
		}
	}
}

func TestReorderSlotsRejectsBadLists(t *testing.T) {
	store := newTestStore(t)
	seedParty(t, store, "party-1")
	seedParty(t, store, "party-2")
	first := seedSlot(t, store, "party-1", domain.RoleBoss, "", "")
	second := seedSlot(t, store, "party-1", domain.RoleMook, "", "")
	foreign := seedSlot(t, store, "party-2", domain.RoleAlly, "", "")

	if _, err := store.ReorderSlots(context.Background(), "party-1", []string{first.ID}); !errors.Is(err, domain.ErrReorderMismatch) {
		t.Fatalf("incomplete list error = %v, want ErrReorderMismatch", err)
	}
	if _, err := store.ReorderSlots(context.Background(), "party-1", []string{first.ID, first.ID}); !errors.Is(err, domain.ErrReorderMismatch) {
		t.Fatalf("duplicate list error = %v, want ErrReorderMismatch", err)
	}
	if _, err := store.ReorderSlots(context.Background(), "party-1", []string{first.ID, second.ID, foreign.ID}); !errors.Is(err, domain.ErrSlotUnknown) {
		t.Fatalf("foreign slot error = %v, want ErrSlotUnknown", err)
	}

	// Failed reorders leave the party untouched.
	slots, err := store.ListSlots(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("list slots: %v", err)
	}
	if slots[0].ID != first.ID || slots[1].ID != second.ID {
		t.Fatalf("slots = %v, want original order", slots)
	}
}

func countRows(t *testing.T, store *Store, query string, args ...any) int {
	t.Helper()
	var count int
	if err := store.sqlDB.QueryRowContext(context.Background(), query, args...).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func TestDeleteFightCascadesShots(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")
	seedFight(t, store, "fight-2")

	if _, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, []string{"alice", "bob"}); err != nil {
		t.Fatalf("reconcile fight-1: %v", err)
	}
	if _, _, err := store.ReconcileShots(context.Background(), "fight-2", domain.ParticipantKindCharacter, []string{"bob"}); err != nil {
		t.Fatalf("reconcile fight-2: %v", err)
	}

	if err := store.DeleteFight(context.Background(), "fight-1"); err != nil {
		t.Fatalf("delete fight: %v", err)
	}
	if got := countRows(t, store, "SELECT COUNT(*) FROM shots WHERE fight_id = ?", "fight-1"); got != 0 {
		t.Fatalf("orphan shots after fight delete = %d, want 0", got)
	}
	ids := rosterIDs(t, store, "fight-2", domain.ParticipantKindCharacter)
	if len(ids) != 1 || ids[0] != "bob" {
		t.Fatalf("fight-2 roster = %v, want [bob]", ids)
	}

	// Re-creating the id starts from a clean roster, not resurrected rows.
	seedFight(t, store, "fight-1")
	shots, err := store.ListShots(context.Background(), "fight-1")
	if err != nil {
		t.Fatalf("list shots after recreate: %v", err)
	}
	if len(shots) != 0 {
		t.Fatalf("recreated fight roster = %d shots, want 0", len(shots))
	}
}

func TestDeletePartyCascadesSlots(t *testing.T) {
	store := newTestStore(t)
	seedParty(t, store, "party-1")
	seedSlot(t, store, "party-1", domain.RoleBoss, "big-bad", "")
	seedSlot(t, store, "party-1", domain.RoleMook, "", "")

	if err := store.DeleteParty(context.Background(), "party-1"); err != nil {
		t.Fatalf("delete party: %v", err)
	}
	if got := countRows(t, store, "SELECT COUNT(*) FROM slots WHERE party_id = ?", "party-1"); got != 0 {
		t.Fatalf("orphan slots after party delete = %d, want 0", got)
	}

	seedParty(t, store, "party-1")
	slots, err := store.ListSlots(context.Background(), "party-1")
	if err != nil {
		t.Fatalf("list slots after recreate: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("recreated party slots = %d, want 0", len(slots))
	}
}

func TestConcurrentReconcileSerializes(t *testing.T) {
	store := newTestStore(t)
	seedFight(t, store, "fight-1")

	desired := []string{"alice", "alice", "bob"}
	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.ReconcileShots(context.Background(), "fight-1", domain.ParticipantKindCharacter, desired)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent reconcile: %v", err)
		}
	}

	got := rosterIDs(t, store, "fight-1", domain.ParticipantKindCharacter)
	counts := map[string]int{}
	for _, id := range got {
		counts[id]++
	}
	if counts["alice"] != 2 || counts["bob"] != 1 || len(got) != 3 {
		t.Fatalf("roster = %v, want two alice and one bob", got)
	}
}
