package report

import (
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	b := NewBus()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.OnSuccess("posted to telegram")
	b.OnError("linkedin: api rejected")
	b.OnLinkPrepared("https://t.me/chan/7")

	want := []struct {
		kind Kind
		msg  string
	}{
		{KindSuccess, "posted to telegram"},
		{KindError, "linkedin: api rejected"},
		{KindLink, "https://t.me/chan/7"},
	}
	for _, w := range want {
		select {
		case e := <-ch:
			if e.Kind != w.kind || e.Message != w.msg {
				t.Fatalf("got %+v, want %+v", e, w)
			}
			if e.Time.IsZero() {
				t.Fatal("event time must be stamped")
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %+v", w)
		}
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.OnSuccess("first")
	b.OnSuccess("second") // buffer full, must not block

	e := <-ch
	if e.Message != "first" {
		t.Fatalf("expected first event, got %q", e.Message)
	}
	select {
	case e := <-ch:
		t.Fatalf("expected second event dropped, got %q", e.Message)
	default:
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()
	ch, unsub := b.Subscribe(1)
	unsub()
	unsub() // idempotent

	if _, open := <-ch; open {
		t.Fatal("channel must be closed after unsubscribe")
	}

	// Publishing after unsubscribe must not panic.
	b.OnError("late")
}

func TestMultiFansOut(t *testing.T) {
	var got []string
	rec := recorder{&got}
	m := Multi{nil, rec, rec}

	m.OnSuccess("s")
	m.OnError("e")
	m.OnLinkPrepared("l")

	if len(got) != 6 {
		t.Fatalf("expected 6 deliveries, got %v", got)
	}
}

type recorder struct{ sink *[]string }

func (r recorder) OnSuccess(msg string)      { *r.sink = append(*r.sink, "success:"+msg) }
func (r recorder) OnError(msg string)        { *r.sink = append(*r.sink, "error:"+msg) }
func (r recorder) OnLinkPrepared(url string) { *r.sink = append(*r.sink, "link:"+url) }
