package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, merchantID uuid.UUID) *Client {
	return &Client{
		hub:        hub,
		merchantID: merchantID,
		send:       make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	merchantID := uuid.New()
	client := mockClient(hub, merchantID)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[merchantID] == nil {
		t.Fatal("merchant room not created")
	}
	if !hub.rooms[merchantID][client] {
		t.Fatal("client not registered in merchant room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	merchantID := uuid.New()
	client := mockClient(hub, merchantID)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[merchantID] != nil {
		t.Fatal("merchant room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleMerchant(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	merchant1 := uuid.New()
	merchant2 := uuid.New()

	client1 := mockClient(hub, merchant1)
	client2 := mockClient(hub, merchant2)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	// Broadcast to merchant1 only
	testPayload := json.RawMessage(`{"sale_id":"test-123"}`)
	event := Event{
		Type:    "sale.created",
		Payload: testPayload,
	}
	hub.BroadcastToMerchant(merchant1, event)

	// Check client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "sale.created" {
			t.Errorf("expected type 'sale.created', got '%s'", received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// Check client2 does NOT receive the message
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different merchant")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsSameMerchant(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	merchantID := uuid.New()
	client1 := mockClient(hub, merchantID)
	client2 := mockClient(hub, merchantID)
	client3 := mockClient(hub, merchantID)

	// Register all clients to same merchant
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testPayload := json.RawMessage(`{"sale_number":4}`)
	event := Event{
		Type:    "sale.created",
		Payload: testPayload,
	}
	hub.BroadcastToMerchant(merchantID, event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "sale.created" {
				t.Errorf("client%d: expected type 'sale.created', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestEventSerialization(t *testing.T) {
	testCases := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{
			name: "sale created event",
			event: Event{
				Type:    "sale.created",
				Payload: json.RawMessage(`{"id":"abc","total":"25.00"}`),
			},
			wantErr: false,
		},
		{
			name: "catalog updated event",
			event: Event{
				Type:    "catalog.updated",
				Payload: json.RawMessage(`{"item_id":"def"}`),
			},
			wantErr: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.event)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Marshal error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}

			// Verify we can unmarshal back
			var decoded Event
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}

			if decoded.Type != tc.event.Type {
				t.Errorf("Type mismatch: got %s, want %s", decoded.Type, tc.event.Type)
			}
			if string(decoded.Payload) != string(tc.event.Payload) {
				t.Errorf("Payload mismatch: got %s, want %s", decoded.Payload, tc.event.Payload)
			}
		})
	}
}

func TestHubMultipleMerchantsIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	merchant1 := uuid.New()
	merchant2 := uuid.New()
	merchant3 := uuid.New()

	// Create 2 clients per merchant
	clients := map[uuid.UUID][]*Client{
		merchant1: {mockClient(hub, merchant1), mockClient(hub, merchant1)},
		merchant2: {mockClient(hub, merchant2), mockClient(hub, merchant2)},
		merchant3: {mockClient(hub, merchant3), mockClient(hub, merchant3)},
	}

	// Register all clients
	for _, clientList := range clients {
		for _, client := range clientList {
			hub.register <- client
		}
	}
	time.Sleep(10 * time.Millisecond)

	// Broadcast to merchant2 only
	event := Event{
		Type:    "sale.created",
		Payload: json.RawMessage(`{"merchant_id":"` + merchant2.String() + `"}`),
	}
	hub.BroadcastToMerchant(merchant2, event)

	// Only merchant2 clients should receive
	for merchantID, clientList := range clients {
		for i, client := range clientList {
			select {
			case msg := <-client.send:
				if merchantID != merchant2 {
					t.Fatalf("merchant %s client %d should not receive message", merchantID, i)
				}
				var received Event
				if err := json.Unmarshal(msg, &received); err != nil {
					t.Fatalf("unmarshal error: %v", err)
				}
				if received.Type != "sale.created" {
					t.Errorf("wrong event type: %s", received.Type)
				}
			case <-time.After(50 * time.Millisecond):
				if merchantID == merchant2 {
					t.Fatalf("merchant2 client %d should have received message", i)
				}
				// Expected for other merchants
			}
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	merchantID := uuid.New()
	client1 := mockClient(hub, merchantID)
	client2 := mockClient(hub, merchantID)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[merchantID]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[merchantID]))
	}
	hub.mu.RUnlock()

	// Unregister first client
	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[merchantID]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[merchantID]))
	}
	hub.mu.RUnlock()

	// Unregister second client
	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[merchantID] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToNonExistentMerchant(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Create a client for merchant1
	merchant1 := uuid.New()
	client1 := mockClient(hub, merchant1)
	hub.register <- client1
	time.Sleep(10 * time.Millisecond)

	// Broadcast to merchant2 (doesn't exist)
	merchant2 := uuid.New()
	event := Event{
		Type:    "sale.created",
		Payload: json.RawMessage(`{"test":"data"}`),
	}
	hub.BroadcastToMerchant(merchant2, event)

	// client1 should NOT receive anything
	select {
	case <-client1.send:
		t.Fatal("client should not receive message for different merchant")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}
