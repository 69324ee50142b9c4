package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"mentor/internal/models"
)

func TestTaskService_EnsureDefaultListsIdempotent(t *testing.T) {
	s := NewTaskService(newTestDB(t), nil)
	ctx := context.Background()

	first, err := s.EnsureDefaultLists(ctx, "u1")
	if err != nil {
		t.Fatalf("EnsureDefaultLists failed: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("Expected 3 default lists, got %d", len(first))
	}
	for i, name := range models.DefaultListNames {
		if first[i].Name != name || !first[i].IsDefault {
			t.Errorf("Expected default list %q at %d, got %+v", name, i, first[i])
		}
	}

	second, err := s.EnsureDefaultLists(ctx, "u1")
	if err != nil {
		t.Fatalf("EnsureDefaultLists failed: %v", err)
	}
	if len(second) != 3 {
		t.Errorf("Expected no new lists on second call, got %d", len(second))
	}
}

func TestTaskService_FindOrCreateList(t *testing.T) {
	s := NewTaskService(newTestDB(t), nil)
	ctx := context.Background()

	gym, created, err := s.FindOrCreateList(ctx, "u1", "Gym")
	if err != nil || !created {
		t.Fatalf("Expected list to be created, got %v, %v", created, err)
	}

	again, created, err := s.FindOrCreateList(ctx, "u1", "  gYM ")
	if err != nil {
		t.Fatalf("FindOrCreateList failed: %v", err)
	}
	if created || again.ID != gym.ID {
		t.Errorf("Expected existing list %s, got %s (created=%v)", gym.ID, again.ID, created)
	}

	other, created, err := s.FindOrCreateList(ctx, "u2", "gym")
	if err != nil || !created || other.ID == gym.ID {
		t.Errorf("Expected a separate list for another user, got %+v (created=%v, err=%v)", other, created, err)
	}

	if _, _, err := s.FindOrCreateList(ctx, "u1", "   "); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for blank name, got %v", err)
	}
}

func TestTaskService_FindOrCreateListConcurrent(t *testing.T) {
	s := NewTaskService(newTestDB(t), nil)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			list, _, err := s.FindOrCreateList(ctx, "u1", "Gym")
			if err != nil {
				t.Errorf("FindOrCreateList failed: %v", err)
				return
			}
			ids[i] = list.ID
		}(i)
	}
	wg.Wait()

	lists, err := s.ListLists(ctx, "u1")
	if err != nil {
		t.Fatalf("ListLists failed: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("Expected exactly one list, got %d", len(lists))
	}
	for _, id := range ids {
		if id != lists[0].ID {
			t.Errorf("Expected every caller to get %s, got %s", lists[0].ID, id)
		}
	}
}

func TestTaskService_CreateTaskOwnership(t *testing.T) {
	s := NewTaskService(newTestDB(t), nil)
	ctx := context.Background()

	lists, _ := s.EnsureDefaultLists(ctx, "u1")

	_, err := s.CreateTask(ctx, "u2", models.TaskCreate{ListID: lists[0].ID, Title: "sneaky"})
	if !errors.Is(err, ErrListNotOwned) {
		t.Fatalf("Expected ErrListNotOwned, got %v", err)
	}
	if err.Error() != "List not found or doesn't belong to user" {
		t.Errorf("Unexpected message %q", err.Error())
	}

	if _, err := s.CreateTask(ctx, "u1", models.TaskCreate{ListID: lists[0].ID, Title: ""}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error for empty title, got %v", err)
	}
}

func TestTaskService_TaskLifecycle(t *testing.T) {
	s := NewTaskService(newTestDB(t), nil)
	ctx := context.Background()

	lists, _ := s.EnsureDefaultLists(ctx, "u1")
	town := lists[0]

	milk, err := s.CreateTask(ctx, "u1", models.TaskCreate{ListID: town.ID, Title: "buy milk"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	urgent, err := s.CreateTask(ctx, "u1", models.TaskCreate{ListID: lists[1].ID, Title: "fix sink", Priority: 3})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	all, err := s.ListTasks(ctx, "u1", "")
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != urgent.ID {
		t.Errorf("Expected priority task first, got %+v", all)
	}

	inTown, _ := s.ListTasks(ctx, "u1", town.ID)
	if len(inTown) != 1 || inTown[0].ID != milk.ID {
		t.Errorf("Expected only the Town task, got %+v", inTown)
	}

	done, err := s.CompleteTask(ctx, "u1", milk.ID)
	if err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if !done.Completed || done.CompletedAt == nil {
		t.Errorf("Expected completed task with timestamp, got %+v", done)
	}

	open, err := s.OpenTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("OpenTasks failed: %v", err)
	}
	if len(open) != 1 || open[0].ID != urgent.ID {
		t.Errorf("Expected only the open task, got %+v", open)
	}

	reopened, err := s.UpdateTask(ctx, "u1", milk.ID, models.TaskUpdate{Completed: models.Some(false)})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if reopened.Completed || reopened.CompletedAt != nil {
		t.Errorf("Expected reopened task without timestamp, got %+v", reopened)
	}

	if _, err := s.GetTask(ctx, "u2", milk.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for another user, got %v", err)
	}

	deleted, err := s.DeleteTask(ctx, "u2", milk.ID)
	if err != nil || deleted {
		t.Errorf("Expected no delete for another user, got %v, %v", deleted, err)
	}
	deleted, err = s.DeleteTask(ctx, "u1", milk.ID)
	if err != nil || !deleted {
		t.Errorf("Expected delete, got %v, %v", deleted, err)
	}
}

func TestTaskService_DeleteListRemovesTasks(t *testing.T) {
	s := NewTaskService(newTestDB(t), nil)
	ctx := context.Background()

	gym, _, _ := s.FindOrCreateList(ctx, "u1", "Gym")
	if _, err := s.CreateTask(ctx, "u1", models.TaskCreate{ListID: gym.ID, Title: "squats"}); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	deleted, err := s.DeleteList(ctx, "u1", gym.ID)
	if err != nil || !deleted {
		t.Fatalf("Expected list delete, got %v, %v", deleted, err)
	}

	tasks, _ := s.ListTasks(ctx, "u1", "")
	if len(tasks) != 0 {
		t.Errorf("Expected tasks to be removed with their list, got %d", len(tasks))
	}

	if _, err := s.FindListByName(ctx, "u1", "gym"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
