package realtime

import "testing"

func TestRegistryLastWriterWins(t *testing.T) {
	reg := NewRegistry()

	first := NewSession("c1", "u1", "Ann", &fakeWriter{})
	second := NewSession("c2", "u1", "Ann", &fakeWriter{})

	if displaced := reg.Register(first); displaced != nil {
		t.Fatalf("expected no displaced session on first register")
	}
	displaced := reg.Register(second)
	if displaced == nil || displaced.ID != "c1" {
		t.Fatalf("expected first session to be displaced, got %+v", displaced)
	}

	current, ok := reg.Lookup("u1")
	if !ok || current.ID != "c2" {
		t.Fatalf("expected lookup to return the second session")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected one live session, got %d", reg.Len())
	}
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	sess := NewSession("c1", "u1", "", &fakeWriter{})
	reg.Register(sess)

	removed, last := reg.Remove(sess)
	if !removed || !last {
		t.Fatalf("expected first remove to report removed and last, got %v %v", removed, last)
	}

	removed, last = reg.Remove(sess)
	if removed || last {
		t.Fatalf("expected second remove to be a no-op, got %v %v", removed, last)
	}
}

func TestRegistryRemoveDisplacedSessionKeepsUserOnline(t *testing.T) {
	reg := NewRegistry()
	old := NewSession("c1", "u1", "", &fakeWriter{})
	replacement := NewSession("c2", "u1", "", &fakeWriter{})
	reg.Register(old)
	reg.Register(replacement)

	removed, last := reg.Remove(old)
	if removed {
		t.Fatalf("displaced session was already dropped from the registry")
	}
	if last {
		t.Fatalf("removing a displaced session must not mark the user offline")
	}
	if _, ok := reg.Lookup("u1"); !ok {
		t.Fatalf("user should still be online through the replacement")
	}
}

func TestRegistryOnlineUsers(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewSession("c1", "u1", "", &fakeWriter{}))
	reg.Register(NewSession("c2", "u2", "", &fakeWriter{}))

	users := reg.OnlineUsers()
	if len(users) != 2 {
		t.Fatalf("expected two online users, got %v", users)
	}
	if _, ok := reg.Lookup("u3"); ok {
		t.Fatalf("did not expect an unknown user to resolve")
	}
}
