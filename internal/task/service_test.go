package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/condition"
	"hotel-ops-backend/internal/events"
	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/testdb"
)

type recordingNotifier struct {
	mu  sync.Mutex
	ids []int64
}

func (n *recordingNotifier) Dispatch(taskID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, taskID)
}

type fixture struct {
	db       *gorm.DB
	store    store.Store
	svc      *Service
	notifier *recordingNotifier
	events   *events.Recorder
	rooms    []model.Room
}

func newFixture(t *testing.T) *fixture {
	db := testdb.Open(t)
	st := store.NewGormStore(db)
	_, rooms := testdb.Category(t, db, "Double", 100, 2)
	n := &recordingNotifier{}
	rec := &events.Recorder{}
	svc := NewService(st, condition.NewTracker(st), n, rec)
	svc.now = func() time.Time { return time.Date(2024, 6, 2, 10, 0, 0, 0, time.UTC) }
	return &fixture{db: db, store: st, svc: svc, notifier: n, events: rec, rooms: rooms}
}

func (f *fixture) room(t *testing.T, id int64) *model.Room {
	r, err := f.store.GetRoom(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (f *fixture) setCondition(t *testing.T, id int64, c model.RoomCondition) {
	require.NoError(t, f.db.Model(&model.Room{}).Where("id = ?", id).Update("condition", c).Error)
}

func TestService_CreateCleaningMarksRoomDirty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, CreateInput{Type: model.TaskTypeCleaning, RoomID: f.rooms[0].ID, Description: " Daily cleaning "})
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusPending, created.Status)
	assert.Equal(t, model.TaskPriorityNormal, created.Priority)
	assert.Equal(t, "Daily cleaning", created.Description)
	assert.Equal(t, model.RoomConditionDirty, f.room(t, f.rooms[0].ID).Condition)
	assert.Equal(t, []int64{created.ID}, f.notifier.ids)
	assert.Equal(t, []string{events.TaskCreated}, f.events.Subjects())
}

func TestService_CreateOtherTypesLeaveRoomAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, typ := range []model.TaskType{model.TaskTypeRepair, model.TaskTypeAmenityRefill, model.TaskTypeCheckout} {
		_, err := f.svc.Create(ctx, CreateInput{Type: typ, RoomID: f.rooms[0].ID, Priority: model.TaskPriorityLow})
		require.NoError(t, err)
	}
	assert.Equal(t, model.RoomConditionClean, f.room(t, f.rooms[0].ID).Condition)
}

func TestService_CleaningLeavesMaintenanceRoomAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := testdb.Staff(t, f.db, "maria", model.UserRoleStaff, true)
	_, err := condition.NewTracker(f.store).StartMaintenance(ctx, f.rooms[0].ID)
	require.NoError(t, err)

	task, err := f.svc.Create(ctx, CreateInput{Type: model.TaskTypeCleaning, RoomID: f.rooms[0].ID})
	require.NoError(t, err)
	assert.Equal(t, model.RoomConditionInMaintenance, f.room(t, f.rooms[0].ID).Condition)

	done, err := f.svc.UpdateStatus(ctx, task.ID, StatusChange{Status: model.TaskStatusDone, ActorUserID: staff.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusDone, done.Status)
	assert.Equal(t, model.RoomConditionInMaintenance, f.room(t, f.rooms[0].ID).Condition,
		"only ending maintenance releases the room")
}

func TestService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name string
		in   CreateInput
		kind apperr.Kind
	}{
		{"unknown type", CreateInput{Type: "LAUNDRY", RoomID: f.rooms[0].ID}, apperr.KindInvalid},
		{"unknown priority", CreateInput{Type: model.TaskTypeRepair, Priority: "ASAP", RoomID: f.rooms[0].ID}, apperr.KindInvalid},
		{"missing room", CreateInput{Type: model.TaskTypeRepair, RoomID: 999}, apperr.KindNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.in)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}
	assert.Empty(t, f.notifier.ids)
}

func TestService_AssignWorker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.svc.Create(ctx, CreateInput{Type: model.TaskTypeRepair, RoomID: f.rooms[0].ID})
	require.NoError(t, err)

	guest, _ := testdb.Staff(t, f.db, "guest", model.UserRoleGuest, true)
	noEmployee, _ := testdb.Staff(t, f.db, "temp", model.UserRoleStaff, false)
	staff, emp := testdb.Staff(t, f.db, "maria", model.UserRoleStaff, true)

	_, err = f.svc.AssignWorker(ctx, task.ID, guest.ID)
	assert.Equal(t, apperr.CodeUserNotStaff, apperr.CodeOf(err))

	_, err = f.svc.AssignWorker(ctx, task.ID, noEmployee.ID)
	assert.Equal(t, apperr.CodeNoEmployeeIdentity, apperr.CodeOf(err))

	_, err = f.svc.AssignWorker(ctx, task.ID, 999)
	assert.Equal(t, apperr.CodeUserNotFound, apperr.CodeOf(err))

	assigned, err := f.svc.AssignWorker(ctx, task.ID, staff.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToID)
	assert.Equal(t, emp.ID, *assigned.AssignedToID)
	assert.Equal(t, []int64{task.ID, task.ID}, f.notifier.ids)
}

func TestService_CompleteCheckoutRotatesDoorCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, emp := testdb.Staff(t, f.db, "maria", model.UserRoleStaff, true)
	f.setCondition(t, f.rooms[0].ID, model.RoomConditionDirty)

	task, err := f.svc.Create(ctx, CreateInput{Type: model.TaskTypeCheckout, RoomID: f.rooms[0].ID})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, task.ID, StatusChange{Status: model.TaskStatusDone, ActorUserID: staff.ID})
	assert.Equal(t, apperr.CodeDoorCodeRequired, apperr.CodeOf(err))
	room := f.room(t, f.rooms[0].ID)
	assert.Equal(t, model.RoomConditionDirty, room.Condition, "rejected completion must not touch the room")
	assert.Equal(t, "1111", room.DoorCode)

	done, err := f.svc.UpdateStatus(ctx, task.ID, StatusChange{Status: model.TaskStatusDone, ActorUserID: staff.ID, NewDoorCode: "7305"})
	require.NoError(t, err)
	require.NotNil(t, done.CompletedByID)
	assert.Equal(t, emp.ID, *done.CompletedByID)
	assert.NotNil(t, done.CompletedAt)

	room = f.room(t, f.rooms[0].ID)
	assert.Equal(t, model.RoomConditionClean, room.Condition)
	assert.Equal(t, "7305", room.DoorCode)
	assert.Contains(t, f.events.Subjects(), events.TaskCompleted)
}

func TestService_ReopenClearsCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := testdb.Staff(t, f.db, "maria", model.UserRoleStaff, true)

	task, err := f.svc.Create(ctx, CreateInput{Type: model.TaskTypeCleaning, RoomID: f.rooms[1].ID})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, task.ID, StatusChange{Status: model.TaskStatusInProgress, ActorUserID: staff.ID})
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, task.ID, StatusChange{Status: model.TaskStatusDone, ActorUserID: staff.ID})
	require.NoError(t, err)
	assert.Equal(t, model.RoomConditionClean, f.room(t, f.rooms[1].ID).Condition)

	_, err = f.svc.UpdateStatus(ctx, task.ID, StatusChange{Status: model.TaskStatusDone, ActorUserID: staff.ID})
	assert.Equal(t, apperr.CodeStatusUnchanged, apperr.CodeOf(err))

	reopened, err := f.svc.UpdateStatus(ctx, task.ID, StatusChange{Status: model.TaskStatusPending, ActorUserID: staff.ID})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedByID)

	stored, err := f.svc.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CompletedByID)
	assert.Nil(t, stored.CompletedAt)
	assert.Equal(t, model.TaskStatusPending, stored.Status)
}

func TestService_ConcurrentCheckoutCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, _ := testdb.Staff(t, f.db, "alice", model.UserRoleStaff, true)
	bob, _ := testdb.Staff(t, f.db, "bob", model.UserRoleStaff, true)
	f.setCondition(t, f.rooms[0].ID, model.RoomConditionDirty)

	task, err := f.svc.Create(ctx, CreateInput{Type: model.TaskTypeCheckout, RoomID: f.rooms[0].ID})
	require.NoError(t, err)

	codes := map[int64]string{alice.ID: "1000", bob.ID: "2000"}
	var wg sync.WaitGroup
	errs := make(map[int64]error, 2)
	var mu sync.Mutex
	for userID, code := range codes {
		wg.Add(1)
		go func(userID int64, code string) {
			defer wg.Done()
			_, err := f.svc.UpdateStatus(ctx, task.ID, StatusChange{Status: model.TaskStatusDone, ActorUserID: userID, NewDoorCode: code})
			mu.Lock()
			errs[userID] = err
			mu.Unlock()
		}(userID, code)
	}
	wg.Wait()

	var winner int64
	conflicts := 0
	for userID, err := range errs {
		if err == nil {
			winner = userID
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		conflicts++
	}
	require.NotZero(t, winner)
	assert.Equal(t, 1, conflicts)

	room := f.room(t, f.rooms[0].ID)
	assert.Equal(t, codes[winner], room.DoorCode)
	assert.Equal(t, int64(2), room.Version, "exactly one clean and one rotation")
}

func TestService_ListAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, CreateInput{Type: model.TaskTypeRepair, RoomID: f.rooms[0].ID})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateInput{Type: model.TaskTypeCleaning, RoomID: f.rooms[1].ID})
	require.NoError(t, err)

	repairs, err := f.svc.List(ctx, store.TaskFilter{Type: model.TaskTypeRepair})
	require.NoError(t, err)
	require.Len(t, repairs, 1)

	require.NoError(t, f.svc.Delete(ctx, a.ID))
	assert.Equal(t, apperr.CodeTaskNotFound, apperr.CodeOf(f.svc.Delete(ctx, a.ID)))
}
