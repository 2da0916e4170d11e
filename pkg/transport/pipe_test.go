package transport

import (
	"bytes"
	"testing"
	"time"
)

func TestPipeAutoProcess(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	if !p.AutoProcess() {
		t.Fatal("AutoProcess should be true by default")
	}

	host, dev := NewLink(p.Host()), NewLink(p.Device())
	want := []byte("auto-delivered frame")
	if err := host.Send(want); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	done := make(chan []byte, 1)
	go func() {
		data, err := dev.Receive()
		if err != nil {
			t.Errorf("Receive failed: %v", err)
		}
		done <- data
	}()

	select {
	case got := <-done:
		if !bytes.Equal(got, want) {
			t.Errorf("got %q, want %q", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout - auto-process may not be working")
	}
}

func TestPipeManualProcess(t *testing.T) {
	p := NewPipeWithConfig(PipeConfig{AutoProcess: false})
	defer p.Close()

	if p.AutoProcess() {
		t.Fatal("AutoProcess should be false")
	}

	host, dev := NewLink(p.Host()), NewLink(p.Device())
	done := make(chan []byte, 1)
	go func() {
		data, _ := dev.Receive()
		done <- data
	}()

	if err := host.Send([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	// Nothing moves until the test delivers the prefix and then the body.
	select {
	case <-done:
		t.Fatal("frame delivered without processing")
	case <-time.After(20 * time.Millisecond):
	}

	deadline := time.After(time.Second)
	for {
		p.Process()
		select {
		case got := <-done:
			if !bytes.Equal(got, []byte{1, 2, 3}) {
				t.Errorf("got %v", got)
			}
			return
		case <-deadline:
			t.Fatal("frame not delivered by Process")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestPipeToggleAutoProcess(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	p.SetAutoProcess(false)
	if p.AutoProcess() {
		t.Fatal("AutoProcess still enabled")
	}
	p.SetAutoProcess(true)
	if !p.AutoProcess() {
		t.Fatal("AutoProcess not re-enabled")
	}
}

func TestPipeClose(t *testing.T) {
	p := NewPipe()
	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	p.SetAutoProcess(true)
	if p.AutoProcess() {
		t.Error("closed pipe restarted auto-processing")
	}
}
