//go:build integration

package mqtt

import (
	"encoding/json"
	"testing"
	"time"
)

// Integration tests need a broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAndStatus(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "plccodec-int-status"
	topics := NewTopics("plccodec-it")

	client, err := Connect(cfg, topics)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	cfg.Broker.ClientID = "plccodec-int-status-watch"
	watcher, err := Connect(cfg, NewTopics("plccodec-it-watch"))
	if err != nil {
		t.Fatalf("Connect() watcher error = %v", err)
	}
	defer watcher.Close()

	got := make(chan statusPayload, 4)
	if err := watcher.Subscribe(topics.Status(), 1, func(_ string, payload []byte) error {
		var s statusPayload
		if err := json.Unmarshal(payload, &s); err != nil {
			return err
		}
		got <- s
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case s := <-got:
		if s.Status != statusOnline || s.ClientID != "plccodec-int-status" {
			t.Errorf("status = %+v", s)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no retained online status")
	}
}

func TestIntegration_RawRoundtrip(t *testing.T) {
	cfg := testConfig()
	topics := NewTopics("plccodec-it")

	cfg.Broker.ClientID = "plccodec-int-sub"
	sub, err := Connect(cfg, topics)
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	cfg.Broker.ClientID = "plccodec-int-pub"
	pub, err := Connect(cfg, topics)
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	received := make(chan string, 1)
	if err := sub.Subscribe(topics.AllRaw(), 1, func(topic string, _ []byte) error {
		name, _ := topics.RawDatapoint(topic)
		received <- name
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !sub.HasSubscription(topics.AllRaw()) || sub.SubscriptionCount() != 1 {
		t.Error("subscription not tracked")
	}

	time.Sleep(100 * time.Millisecond)
	if err := pub.Publish(topics.Raw("flow_temp"), []byte{0x0C, 0x33}, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case name := <-received:
		if name != "flow_temp" {
			t.Errorf("datapoint = %q, want flow_temp", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for raw message")
	}

	if err := sub.Unsubscribe(topics.AllRaw()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}
