package session

import "testing"

func TestSourceStartsUnauthenticated(t *testing.T) {
	s := NewSource()
	if got := s.Current(); got.Authenticated || got.Token != "" {
		t.Errorf("Current() = %+v, want unauthenticated", got)
	}
}

func TestSetTokenAndClear(t *testing.T) {
	s := NewSource()

	s.SetToken("jwt-abc")
	if got := s.Current(); !got.Authenticated || got.Token != "jwt-abc" {
		t.Errorf("after SetToken: %+v", got)
	}

	s.Clear()
	if got := s.Current(); got.Authenticated || got.Token != "" {
		t.Errorf("after Clear: %+v", got)
	}
}

func TestSetEmptyTokenIsUnauthenticated(t *testing.T) {
	s := NewSource()
	s.SetToken("")
	if s.Current().Authenticated {
		t.Error("empty token must not count as authenticated")
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	s := NewSource()

	var got []State
	cancel := s.Subscribe(func(st State) { got = append(got, st) })
	defer cancel()

	s.SetToken("tok-1")
	s.Clear()

	if len(got) != 2 {
		t.Fatalf("received %d notifications, want 2", len(got))
	}
	if !got[0].Authenticated || got[0].Token != "tok-1" {
		t.Errorf("first notification = %+v", got[0])
	}
	if got[1].Authenticated {
		t.Errorf("second notification = %+v, want logout", got[1])
	}
}

func TestNoNotificationWithoutTransition(t *testing.T) {
	s := NewSource()

	calls := 0
	cancel := s.Subscribe(func(State) { calls++ })
	defer cancel()

	s.Clear() // already unauthenticated
	s.SetToken("tok")
	s.SetToken("tok") // same state

	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
}

func TestCancelStopsNotifications(t *testing.T) {
	s := NewSource()

	calls := 0
	cancel := s.Subscribe(func(State) { calls++ })

	s.SetToken("a")
	cancel()
	s.Clear()

	if calls != 1 {
		t.Errorf("listener called %d times after cancel, want 1", calls)
	}
}

func TestListenersDeliveredInRegistrationOrder(t *testing.T) {
	s := NewSource()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		s.Subscribe(func(State) { order = append(order, i) })
	}

	s.SetToken("tok")

	for i, got := range order {
		if got != i {
			t.Fatalf("delivery order %v, want ascending", order)
		}
	}
}
