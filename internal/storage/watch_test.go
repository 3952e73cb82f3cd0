package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

func waitFor(t *testing.T, ch <-chan []models.WorkoutPlan) []models.WorkoutPlan {
	t.Helper()
	select {
	case plans := <-ch:
		return plans
	case <-time.After(2 * time.Second):
		t.Fatal("listener was not notified")
		return nil
	}
}

func TestWatchPlansNotify(t *testing.T) {
	db := &DB{}
	got := make(chan []models.WorkoutPlan, 1)

	unsubscribe := db.WatchPlans("user-1", func(plans []models.WorkoutPlan, err error) {
		if err == nil {
			got <- plans
		}
	})
	defer unsubscribe()

	snapshot := []models.WorkoutPlan{{ID: "plan-1", Name: "Push Day"}}
	db.plans.notify("user-1", func() ([]models.WorkoutPlan, error) {
		return snapshot, nil
	})

	plans := waitFor(t, got)
	if len(plans) != 1 || plans[0].ID != "plan-1" {
		t.Errorf("plans = %+v", plans)
	}
}

func TestWatchPlansOtherUserNotNotified(t *testing.T) {
	db := &DB{}
	got := make(chan []models.WorkoutPlan, 1)

	unsubscribe := db.WatchPlans("user-1", func(plans []models.WorkoutPlan, err error) {
		got <- plans
	})
	defer unsubscribe()

	fetched := false
	db.plans.notify("user-2", func() ([]models.WorkoutPlan, error) {
		fetched = true
		return nil, nil
	})

	select {
	case plans := <-got:
		t.Errorf("unexpected notification: %v", plans)
	case <-time.After(100 * time.Millisecond):
	}
	if fetched {
		t.Error("fetch should not run when nobody watches the user")
	}
}

func TestWatchPlansReplaceAndUnsubscribe(t *testing.T) {
	db := &DB{}
	first := make(chan []models.WorkoutPlan, 1)
	second := make(chan []models.WorkoutPlan, 1)

	db.WatchPlans("user-1", func(plans []models.WorkoutPlan, err error) {
		first <- plans
	})
	// A second registration for the same user replaces the first.
	unsubscribe := db.WatchPlans("user-1", func(plans []models.WorkoutPlan, err error) {
		second <- plans
	})

	db.plans.notify("user-1", func() ([]models.WorkoutPlan, error) {
		return []models.WorkoutPlan{{ID: "p"}}, nil
	})

	waitFor(t, second)
	select {
	case <-first:
		t.Error("replaced listener should not receive notifications")
	case <-time.After(100 * time.Millisecond):
	}

	unsubscribe()
	db.plans.notify("user-1", func() ([]models.WorkoutPlan, error) {
		return []models.WorkoutPlan{{ID: "p"}}, nil
	})
	select {
	case <-second:
		t.Error("unsubscribed listener should not receive notifications")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchPlansDeliversFetchError(t *testing.T) {
	db := &DB{}
	errs := make(chan error, 1)

	unsubscribe := db.WatchPlans("user-1", func(plans []models.WorkoutPlan, err error) {
		errs <- err
	})
	defer unsubscribe()

	db.plans.notify("user-1", func() ([]models.WorkoutPlan, error) {
		return nil, errors.New("db down")
	})

	select {
	case err := <-errs:
		if err == nil {
			t.Error("expected fetch error to reach the listener")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listener was not notified")
	}
}
