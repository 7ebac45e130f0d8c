package zhmc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdapterService_List(t *testing.T) {
	tests := []struct {
		name     string
		opts     ListAdapterOptions
		wantPath string
	}{
		{
			name:     "list all",
			opts:     ListAdapterOptions{},
			wantPath: "/api/cpcs/fake-cpc-1/adapters",
		},
		{
			name:     "list filtered by adapter ID",
			opts:     ListAdapterOptions{AdapterID: "12c"},
			wantPath: "/api/cpcs/fake-cpc-1/adapters?adapter-id=12c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fullPath := r.URL.Path
				if r.URL.RawQuery != "" {
					fullPath += "?" + r.URL.RawQuery
				}
				if fullPath != tt.wantPath {
					t.Errorf("expected path '%s', got '%s'", tt.wantPath, fullPath)
				}

				response := map[string]interface{}{
					"adapters": []map[string]interface{}{
						{
							"object-uri":     "/api/adapters/fake-adapter-1",
							"name":           "OSD 12C Z22B-02",
							"adapter-id":     "12c",
							"adapter-family": "osa",
							"type":           "osd",
							"status":         "active",
						},
					},
				}
				_ = json.NewEncoder(w).Encode(response)
			}))
			defer server.Close()

			client := testClient(server)

			adapters, err := client.Adapter.List(context.Background(), "/api/cpcs/fake-cpc-1", tt.opts)
			if err != nil {
				t.Fatalf("Adapter.List returned error: %v", err)
			}
			if len(adapters) != 1 {
				t.Fatalf("expected 1 adapter, got %d", len(adapters))
			}
			if adapters[0].AdapterID != "12c" {
				t.Errorf("unexpected adapter ID '%s'", adapters[0].AdapterID)
			}
			if adapters[0].AdapterFamily != "osa" {
				t.Errorf("unexpected adapter family '%s'", adapters[0].AdapterFamily)
			}
		})
	}
}

func TestAdapterService_FindByName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != `^OSD 12C$` {
			t.Errorf("unexpected name filter '%s'", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"adapters": []map[string]interface{}{
				{"object-uri": "/api/adapters/fake-adapter-1", "name": "OSD 12C"},
			},
		})
	}))
	defer server.Close()

	client := testClient(server)

	adapter, err := client.Adapter.FindByName(context.Background(), "/api/cpcs/fake-cpc-1", "OSD 12C")
	if err != nil {
		t.Fatalf("Adapter.FindByName returned error: %v", err)
	}
	if adapter.ObjectURI != "/api/adapters/fake-adapter-1" {
		t.Errorf("unexpected object URI '%s'", adapter.ObjectURI)
	}
}

func TestAdapterService_UpdateProperties(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/adapters/fake-adapter-1" {
			t.Errorf("unexpected path '%s'", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("expected POST request, got '%s'", r.Method)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["description"] != "uplink" {
			t.Errorf("unexpected description '%v'", body["description"])
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server)

	err := client.Adapter.UpdateProperties(context.Background(), "/api/adapters/fake-adapter-1",
		Properties{"description": "uplink"})
	if err != nil {
		t.Fatalf("Adapter.UpdateProperties returned error: %v", err)
	}
}
