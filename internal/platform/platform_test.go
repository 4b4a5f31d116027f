package platform

import (
	"context"
	"testing"
)

func TestKnown(t *testing.T) {
	for _, id := range All() {
		if !Known(id) {
			t.Fatalf("%s must be known", id)
		}
	}
	if Known("myspace") {
		t.Fatal("unknown id must not be known")
	}
	if Known("") {
		t.Fatal("empty id must not be known")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Lookup(Telegram); ok {
		t.Fatal("empty registry must miss")
	}

	ok := DispatcherFunc(func(context.Context, Content, Bundle) (Result, error) {
		return Result{Success: true, RemoteID: "r1"}, nil
	})
	r.Register(Telegram, ok)
	r.Register(Linkedin, ok)
	r.Register(Bluesky, nil) // nil dispatchers are ignored

	d, found := r.Lookup(Telegram)
	if !found {
		t.Fatal("registered dispatcher not found")
	}
	res, err := d.Post(context.Background(), Content{Text: "x"}, Bundle{})
	if err != nil || !res.Success || res.RemoteID != "r1" {
		t.Fatalf("unexpected result: %+v, %v", res, err)
	}

	if _, found := r.Lookup(Bluesky); found {
		t.Fatal("nil registration must not be stored")
	}

	ids := r.IDs()
	if len(ids) != 2 || ids[0] != Linkedin || ids[1] != Telegram {
		t.Fatalf("expected sorted [linkedin telegram], got %v", ids)
	}
}
