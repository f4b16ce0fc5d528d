package autosave

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func orderedTransport(name string, order *[]string, mu *sync.Mutex, fail bool) Transport {
	return TransportFunc(func(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
		mu.Lock()
		*order = append(*order, name)
		mu.Unlock()
		if fail {
			return Failure(fmt.Errorf("%s broke", name)), nil
		}
		return Success(name), nil
	})
}

func TestComposeTransports_RunsInOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	ct, err := ComposeTransports(
		orderedTransport("local", &order, &mu, false),
		orderedTransport("remote", &order, &mu, false),
	)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	result, err := ct.Save(context.Background(), Payload{}, &SaveContext{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.OK {
		t.Fatalf("expected OK result, got %+v", result)
	}
	if result.Version != "remote" {
		t.Fatalf("expected final stage result, got version %q", result.Version)
	}
	if len(order) != 2 || order[0] != "local" || order[1] != "remote" {
		t.Fatalf("unexpected call order: %v", order)
	}
}

func TestComposeTransports_ShortCircuitsOnFailure(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	ct, err := ComposeTransports(
		orderedTransport("first", &order, &mu, false),
		orderedTransport("second", &order, &mu, true),
		orderedTransport("third", &order, &mu, false),
	)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}

	result, err := ct.Save(context.Background(), Payload{}, &SaveContext{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.OK {
		t.Fatal("expected failed result")
	}
	if len(order) != 2 {
		t.Fatalf("expected third stage to be skipped, calls: %v", order)
	}
	// The failing stage's result comes back unchanged.
	if result.Err == nil || result.Err.Error() != "second broke" {
		t.Fatalf("expected the failing stage's own error, got %v", result.Err)
	}
}

func TestComposeTransports_Validation(t *testing.T) {
	if _, err := ComposeTransports(); err == nil {
		t.Fatal("expected error composing zero transports")
	}
	if _, err := ComposeTransports(nil); err == nil {
		t.Fatal("expected error composing nil transport")
	}

	single := &recordingTransport{}
	ct, err := ComposeTransports(single)
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	if ct != Transport(single) {
		t.Fatal("expected single transport to be returned unchanged")
	}
}

func TestParallelTransports_AllSucceed(t *testing.T) {
	a := &recordingTransport{}
	b := &recordingTransport{}
	pt, err := ParallelTransports(a, b)
	if err != nil {
		t.Fatalf("parallel compose failed: %v", err)
	}

	result, err := pt.Save(context.Background(), Payload{"x": 1}, &SaveContext{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.OK {
		t.Fatalf("expected OK result, got %+v", result)
	}
	if a.calls() != 1 || b.calls() != 1 {
		t.Fatalf("expected both transports called, got %d and %d", a.calls(), b.calls())
	}
}

func TestParallelTransports_WaitsForAllAndAggregatesFailures(t *testing.T) {
	ok := &recordingTransport{}
	bad := &recordingTransport{}
	bad.failNext(1, fmt.Errorf("mirror down"))
	alsoOK := &recordingTransport{}

	pt, err := ParallelTransports(ok, bad, alsoOK)
	if err != nil {
		t.Fatalf("parallel compose failed: %v", err)
	}

	result, err := pt.Save(context.Background(), Payload{}, &SaveContext{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.OK {
		t.Fatal("expected aggregate failure")
	}
	if ok.calls() != 1 || bad.calls() != 1 || alsoOK.calls() != 1 {
		t.Fatal("expected every branch to run despite the failure")
	}
	msg := result.Err.Error()
	if !strings.Contains(msg, "1 of 3 transports failed") {
		t.Fatalf("expected aggregate failure count, got %q", msg)
	}
	if !strings.Contains(msg, "mirror down") {
		t.Fatalf("expected branch error in message, got %q", msg)
	}
}
