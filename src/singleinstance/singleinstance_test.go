package singleinstance

import (
	"context"
	"strconv"
	"testing"
	"time"

	"screen-translate/src/capture"
)

func TestRequestLineRoundTrip(t *testing.T) {
	tests := []struct {
		line string
		want Request
	}{
		{"CAPTURE translate\n", Request{Intent: capture.Translate}},
		{"CAPTURE translate fixed\n", Request{Intent: capture.Translate, Fixed: true}},
		{"CAPTURE copy-image-translated\r\n", Request{Intent: capture.CopyImageTranslated}},
	}
	for _, tt := range tests {
		got, err := decodeRequest(tt.line)
		if err != nil {
			t.Fatalf("decodeRequest(%q): %v", tt.line, err)
		}
		if got != tt.want {
			t.Fatalf("decodeRequest(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
		if again, _ := decodeRequest(encodeRequest(got)); again != got {
			t.Fatalf("encode/decode mismatch for %+v", got)
		}
	}

	for _, bad := range []string{"STDOUT\n", "CAPTURE paint\n", ""} {
		if _, err := decodeRequest(bad); err == nil {
			t.Fatalf("decodeRequest(%q) should fail", bad)
		}
	}
}

// freePortRange points the range at one port nothing listens on yet.
func freePortRange(t *testing.T) {
	t.Helper()
	port := 49500 + int(time.Now().UnixNano()%400)
	t.Setenv("SINGLEINSTANCE_PORT_START", strconv.Itoa(port))
	t.Setenv("SINGLEINSTANCE_PORT_END", strconv.Itoa(port))
}

func TestServerClientRoundTrip(t *testing.T) {
	freePortRange(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv := NewServer()
	if err := srv.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer srv.Close()

	type answer struct {
		delegated bool
		reply     string
		err       error
	}
	answers := make(chan answer, 1)
	go func() {
		delegated, reply, err := NewClient().Send(ctx, Request{Intent: capture.CopyOriginal, Fixed: true})
		answers <- answer{delegated, reply, err}
	}()

	conn, err := srv.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if got := conn.Request(); got.Intent != capture.CopyOriginal || !got.Fixed {
		t.Errorf("request = %+v", got)
	}
	if err := conn.RespondSuccess("queued"); err != nil {
		t.Fatalf("respond: %v", err)
	}
	_ = conn.Close()

	a := <-answers
	if a.err != nil || !a.delegated || a.reply != "queued" {
		t.Fatalf("client got %+v", a)
	}
}

func TestSecondServerCannotStart(t *testing.T) {
	freePortRange(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := NewServer()
	if err := first.Start(ctx); err != nil {
		t.Skipf("loopback TCP unavailable in this environment: %v", err)
	}
	defer first.Close()

	if err := NewServer().Start(ctx); err == nil {
		t.Fatal("second resident should fail to bind")
	}
	if port, ok := DetectResidentPort(ctx); !ok || port != first.Port() {
		t.Fatalf("DetectResidentPort = %d, %v", port, ok)
	}
}

func TestSendWithoutResident(t *testing.T) {
	freePortRange(t)
	delegated, _, err := NewClient().Send(context.Background(), Request{Intent: capture.Translate})
	if err != nil || delegated {
		t.Fatalf("delegated=%v err=%v, want no resident", delegated, err)
	}
}
