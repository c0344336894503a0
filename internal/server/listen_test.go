package server

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mzeryck/widgetsched/common"
)

func TestServerLifecycle(t *testing.T) {
	rs := NewRPCServer(RPCConfig{Secret: testSecret, Version: "9"}, newBackend(t), nil, nil)
	s := NewServer(nil, rs, 0, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.Addr() == nil {
		t.Fatal("server never started listening")
	}
	url := fmt.Sprintf("http://%s", s.Addr())
	if _, resp := call(t, url, testSecret, common.MethodVersion, nil); resp.Error != nil {
		t.Fatalf("version over live listener: %+v", resp.Error)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
