package mqtt

import (
	"testing"
)

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got, dropped := rb.drainAll()
	if got != nil || dropped != 0 {
		t.Errorf("expected nil from empty drain, got %d items, %d dropped", len(got), dropped)
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got, _ := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if again, _ := rb.drainAll(); again != nil {
		t.Errorf("expected nil from second drain, got %d items", len(again))
	}
}

func TestRingBufferOverflowKeepsNewest(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 8; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if rb.len() != 5 {
		t.Errorf("expected len 5, got %d", rb.len())
	}

	got, dropped := rb.drainAll()
	if dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", dropped)
	}
	for i, msg := range got {
		if want := byte(i + 3); msg.payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, msg.payload[0])
		}
	}

	// The drop count resets with the drain.
	rb.push(bufferedMsg{topic: "t"})
	if _, dropped := rb.drainAll(); dropped != 0 {
		t.Errorf("expected drop count reset, got %d", dropped)
	}
}

func TestRingBufferWrapAcrossCycles(t *testing.T) {
	rb := newRingBuffer(4)
	for i := 0; i < 3; i++ {
		rb.push(bufferedMsg{payload: []byte{byte(i)}})
	}
	rb.drainAll()

	for i := 10; i < 16; i++ {
		rb.push(bufferedMsg{payload: []byte{byte(i)}})
	}
	got, _ := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		if want := byte(12 + i); msg.payload[0] != want {
			t.Errorf("item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{
		topic:    "home/cinema/screen/system",
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got, _ := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	m := got[0]
	if m.topic != "home/cinema/screen/system" || string(m.payload) != `{"test":true}` || m.qos != 1 || !m.retained {
		t.Errorf("fields not preserved: %+v", m)
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := newRingBuffer(0)
	rb.push(bufferedMsg{payload: []byte{1}})
	rb.push(bufferedMsg{payload: []byte{2}})
	got, dropped := rb.drainAll()
	if len(got) != 1 || got[0].payload[0] != 2 || dropped != 1 {
		t.Errorf("got %d items (%d dropped), want newest only", len(got), dropped)
	}
}
