package chat

import "testing"

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	c1 := NewClient("conn-1", 7, nil, 4)
	c2 := NewClient("conn-2", 7, nil, 4)

	reg.Register(c1)
	reg.Register(c2)

	if got := reg.NumConns(); got != 2 {
		t.Fatalf("NumConns = %d, want 2", got)
	}
	if got := reg.KnownUsers(); got != 1 {
		t.Fatalf("KnownUsers = %d, want 1", got)
	}
	if got := len(reg.ConnectionsOf(7)); got != 2 {
		t.Fatalf("ConnectionsOf(7) = %d conns, want 2", got)
	}
	if reg.GetByConnID("conn-2") != c2 {
		t.Fatal("GetByConnID returned wrong client")
	}
}

func TestRegistryRegisterIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := NewClient("conn-1", 7, nil, 4)

	reg.Register(c)
	reg.Register(c)

	if got := reg.NumConns(); got != 1 {
		t.Fatalf("NumConns = %d, want 1", got)
	}
}

func TestRegistryUnregisterLastConnection(t *testing.T) {
	reg := NewRegistry()
	c1 := NewClient("conn-1", 7, nil, 4)
	c2 := NewClient("conn-2", 7, nil, 4)
	reg.Register(c1)
	reg.Register(c2)

	removed, last := reg.Unregister(c1)
	if !removed || last {
		t.Fatalf("Unregister(c1) = (%v, %v), want (true, false)", removed, last)
	}

	removed, last = reg.Unregister(c2)
	if !removed || !last {
		t.Fatalf("Unregister(c2) = (%v, %v), want (true, true)", removed, last)
	}

	if got := reg.KnownUsers(); got != 0 {
		t.Fatalf("KnownUsers after last unregister = %d, want 0", got)
	}
	if conns := reg.ConnectionsOf(7); len(conns) != 0 {
		t.Fatalf("ConnectionsOf(7) = %d conns, want 0", len(conns))
	}
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	reg := NewRegistry()
	c := NewClient("conn-1", 7, nil, 4)

	removed, last := reg.Unregister(c)
	if removed || last {
		t.Fatalf("Unregister(unknown) = (%v, %v), want (false, false)", removed, last)
	}

	// double unregister after a real registration
	reg.Register(c)
	reg.Unregister(c)
	removed, _ = reg.Unregister(c)
	if removed {
		t.Fatal("second Unregister reported removed")
	}
}
