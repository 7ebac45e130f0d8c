package zhmc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCPCService_List(t *testing.T) {
	tests := []struct {
		name     string
		opts     ListCPCOptions
		wantPath string
	}{
		{
			name:     "list all",
			opts:     ListCPCOptions{},
			wantPath: "/api/cpcs",
		},
		{
			name:     "list filtered by name",
			opts:     ListCPCOptions{Name: "^CPC1$"},
			wantPath: "/api/cpcs?name=%5ECPC1%24",
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
				if r.Method != "GET" {
					t.Errorf("expected GET request, got '%s'", r.Method)
				}

				response := map[string]interface{}{
					"cpcs": []map[string]interface{}{
						{
							"object-uri":  "/api/cpcs/fake-cpc-1",
							"name":        "CPC1",
							"status":      "active",
							"se-version":  "2.16.0",
							"dpm-enabled": true,
						},
						{
							"object-uri": "/api/cpcs/fake-cpc-2",
							"name":       "CPC2",
							"status":     "operating",
						},
					},
				}
				if err := json.NewEncoder(w).Encode(response); err != nil {
					t.Fatalf("failed to encode response: %v", err)
				}
			}))
			defer server.Close()

			client := testClient(server)

			cpcs, err := client.CPC.List(context.Background(), tt.opts)
			if err != nil {
				t.Fatalf("CPC.List returned error: %v", err)
			}

			if len(cpcs) != 2 {
				t.Fatalf("expected 2 CPCs, got %d", len(cpcs))
			}
			if cpcs[0].Name != "CPC1" {
				t.Errorf("expected name 'CPC1', got '%s'", cpcs[0].Name)
			}
			if cpcs[0].Status != CPCStatusActive {
				t.Errorf("expected status 'active', got '%s'", cpcs[0].Status)
			}
			if !cpcs[0].DPMEnabled {
				t.Error("expected CPC1 to be DPM-enabled")
			}
			if cpcs[1].ObjectURI != "/api/cpcs/fake-cpc-2" {
				t.Errorf("unexpected object URI '%s'", cpcs[1].ObjectURI)
			}
		})
	}
}

func TestCPCService_List_StatusFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := map[string]interface{}{
			"cpcs": []map[string]interface{}{
				{"object-uri": "/api/cpcs/fake-cpc-1", "name": "CPC1", "status": "active"},
				{"object-uri": "/api/cpcs/fake-cpc-2", "name": "CPC2", "status": "operating"},
				{"object-uri": "/api/cpcs/fake-cpc-3", "name": "CPC3", "status": "not-operating"},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := testClient(server)

	cpcs, err := client.CPC.List(context.Background(), ListCPCOptions{Status: "^operating$"})
	if err != nil {
		t.Fatalf("CPC.List returned error: %v", err)
	}
	if len(cpcs) != 1 {
		t.Fatalf("expected 1 CPC, got %d", len(cpcs))
	}
	if cpcs[0].Name != "CPC2" {
		t.Errorf("expected name 'CPC2', got '%s'", cpcs[0].Name)
	}

	if _, err := client.CPC.List(context.Background(), ListCPCOptions{Status: "("}); err == nil {
		t.Error("expected error for invalid status filter regexp")
	}
}

func TestCPCService_FindByName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "^CPC1$" {
			t.Errorf("expected name filter '^CPC1$', got '%s'", got)
		}
		response := map[string]interface{}{
			"cpcs": []map[string]interface{}{
				{"object-uri": "/api/cpcs/fake-cpc-1", "name": "CPC1", "status": "active"},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := testClient(server)

	cpc, err := client.CPC.FindByName(context.Background(), "CPC1")
	if err != nil {
		t.Fatalf("CPC.FindByName returned error: %v", err)
	}
	if cpc.ObjectURI != "/api/cpcs/fake-cpc-1" {
		t.Errorf("unexpected object URI '%s'", cpc.ObjectURI)
	}
}

func TestCPCService_FindByNameNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"cpcs": []interface{}{}})
	}))
	defer server.Close()

	client := testClient(server)

	_, err := client.CPC.FindByName(context.Background(), "NOSUCH")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsNotFoundError(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestCPCService_UpdateProperties(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cpcs/fake-cpc-1" {
			t.Errorf("unexpected path '%s'", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("expected POST request, got '%s'", r.Method)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["description"] != "updated" {
			t.Errorf("expected description 'updated', got '%v'", body["description"])
		}
		if body["acceptable-status"] == nil {
			t.Error("expected acceptable-status in body")
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server)

	err := client.CPC.UpdateProperties(context.Background(), "/api/cpcs/fake-cpc-1", Properties{
		"description":       "updated",
		"acceptable-status": []string{"active", "degraded"},
	})
	if err != nil {
		t.Fatalf("CPC.UpdateProperties returned error: %v", err)
	}
}

func TestCPCService_UpdatePropertiesEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty update")
	}))
	defer server.Close()

	client := testClient(server)

	if err := client.CPC.UpdateProperties(context.Background(), "/api/cpcs/fake-cpc-1", nil); err != nil {
		t.Fatalf("CPC.UpdateProperties returned error: %v", err)
	}
}

// jobServer wires an asynchronous operation endpoint to a one-poll job.
func jobServer(t *testing.T, opPath string, checkBody func(t *testing.T, body map[string]interface{}), jobResult map[string]interface{}) *httptest.Server {
	t.Helper()
	const jobURI = "/api/jobs/fake-job-1"
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == opPath && r.Method == "POST":
			if checkBody != nil {
				var body map[string]interface{}
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode request body: %v", err)
				}
				checkBody(t, body)
			}
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]string{"job-uri": jobURI})
		case r.URL.Path == jobURI && r.Method == "GET":
			response := map[string]interface{}{
				"status":          "complete",
				"job-status-code": 204,
			}
			if jobResult != nil {
				response["job-results"] = jobResult
			}
			_ = json.NewEncoder(w).Encode(response)
		case r.URL.Path == jobURI && r.Method == "DELETE":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
}

func TestCPCService_SetPowerSave(t *testing.T) {
	server := jobServer(t, "/api/cpcs/fake-cpc-1/operations/set-cpc-power-save",
		func(t *testing.T, body map[string]interface{}) {
			if body["power-saving"] != "low-power" {
				t.Errorf("expected power-saving 'low-power', got '%v'", body["power-saving"])
			}
		}, nil)
	defer server.Close()

	client := testClient(server)
	client.Job.PollInterval = 1 // no need to wait in tests

	err := client.CPC.SetPowerSave(context.Background(), "/api/cpcs/fake-cpc-1", PowerSavingLowPower)
	if err != nil {
		t.Fatalf("CPC.SetPowerSave returned error: %v", err)
	}
}

func TestCPCService_SetPowerCapping(t *testing.T) {
	cap := 20000
	server := jobServer(t, "/api/cpcs/fake-cpc-1/operations/set-cpc-power-capping",
		func(t *testing.T, body map[string]interface{}) {
			if body["power-capping-state"] != "enabled" {
				t.Errorf("expected state 'enabled', got '%v'", body["power-capping-state"])
			}
			if body["power-cap-current"] != float64(cap) {
				t.Errorf("expected power-cap-current %d, got '%v'", cap, body["power-cap-current"])
			}
		}, nil)
	defer server.Close()

	client := testClient(server)
	client.Job.PollInterval = 1

	err := client.CPC.SetPowerCapping(context.Background(), "/api/cpcs/fake-cpc-1",
		SetPowerCappingOptions{State: PowerCappingEnabled, CurrentCap: &cap})
	if err != nil {
		t.Fatalf("CPC.SetPowerCapping returned error: %v", err)
	}
}

func TestCPCService_GetEnergyManagementData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cpcs/fake-cpc-1/energy-management-data" {
			t.Errorf("unexpected path '%s'", r.URL.Path)
		}
		response := map[string]interface{}{
			"objects": []map[string]interface{}{
				{
					"object-uri":     "/api/cpcs/fake-cpc-1",
					"error-occurred": false,
					"properties": map[string]interface{}{
						"cpc-power-consumption": 14423,
						"cpc-power-saving":      "high-performance",
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := testClient(server)

	props, err := client.CPC.GetEnergyManagementData(context.Background(), "/api/cpcs/fake-cpc-1")
	if err != nil {
		t.Fatalf("CPC.GetEnergyManagementData returned error: %v", err)
	}
	if props["cpc-power-consumption"] != float64(14423) {
		t.Errorf("unexpected cpc-power-consumption %v", props["cpc-power-consumption"])
	}
}

func TestCPCService_ListAPIFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cpcs/fake-cpc-1/web-services-api-features" {
			t.Errorf("unexpected path '%s'", r.URL.Path)
		}
		response := map[string]interface{}{
			"api-features": []string{"dpm-storage-management", "cpc-install-and-activate"},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := testClient(server)

	features, err := client.CPC.ListAPIFeatures(context.Background(), "/api/cpcs/fake-cpc-1", "")
	if err != nil {
		t.Fatalf("CPC.ListAPIFeatures returned error: %v", err)
	}
	if len(features) != 2 || features[0] != "dpm-storage-management" {
		t.Errorf("unexpected features %v", features)
	}
}

func TestCPCService_ListAPIFeaturesUnsupported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Old SE versions do not know the URI.
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"http-status": 404, "reason": 1, "message": "not found",
		})
	}))
	defer server.Close()

	client := testClient(server)

	features, err := client.CPC.ListAPIFeatures(context.Background(), "/api/cpcs/fake-cpc-1", "")
	if err != nil {
		t.Fatalf("CPC.ListAPIFeatures returned error: %v", err)
	}
	if len(features) != 0 {
		t.Errorf("expected no features, got %v", features)
	}
}

func TestCPCService_ExportDPMConfiguration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cpcs/fake-cpc-1/operations/export-dpm-configuration" {
			t.Errorf("unexpected path '%s'", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["include-unused-adapters"] != true {
			t.Errorf("expected include-unused-adapters true, got '%v'", body["include-unused-adapters"])
		}
		response := map[string]interface{}{
			"se-version": "2.16.0",
			"partitions": []interface{}{},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := testClient(server)

	config, err := client.CPC.ExportDPMConfiguration(context.Background(), "/api/cpcs/fake-cpc-1", true)
	if err != nil {
		t.Fatalf("CPC.ExportDPMConfiguration returned error: %v", err)
	}
	if config["se-version"] != "2.16.0" {
		t.Errorf("unexpected se-version %v", config["se-version"])
	}
}

func TestCPCService_ImportDPMConfiguration(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		responseBody string
		wantComplete bool
		wantOutput   int
	}{
		{
			name:         "complete import",
			status:       http.StatusNoContent,
			wantComplete: true,
		},
		{
			name:         "partial import",
			status:       http.StatusOK,
			responseBody: `{"output":[{"name":"part1","status":"not-restored"}]}`,
			wantComplete: false,
			wantOutput:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/cpcs/fake-cpc-1/operations/import-dpm-configuration" {
					t.Errorf("unexpected path '%s'", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				if tt.responseBody != "" {
					_, _ = w.Write([]byte(tt.responseBody))
				}
			}))
			defer server.Close()

			client := testClient(server)

			result, err := client.CPC.ImportDPMConfiguration(context.Background(),
				"/api/cpcs/fake-cpc-1", map[string]any{"preserve-configuration": false})
			if err != nil {
				t.Fatalf("CPC.ImportDPMConfiguration returned error: %v", err)
			}
			if result.Complete != tt.wantComplete {
				t.Errorf("expected complete=%v, got %v", tt.wantComplete, result.Complete)
			}
			if len(result.Output) != tt.wantOutput {
				t.Errorf("expected %d output entries, got %d", tt.wantOutput, len(result.Output))
			}
		})
	}
}

func TestCPCService_GetAutoStartList(t *testing.T) {
	tests := []struct {
		name        string
		props       map[string]interface{}
		wantPresent bool
		wantEntries int
	}{
		{
			name: "DPM mode with entries",
			props: map[string]interface{}{
				"name": "CPC1",
				"auto-start-list": []map[string]interface{}{
					{
						"type":             "partition",
						"partition-uri":    "/api/partitions/fake-part-1",
						"post-start-delay": 10,
					},
					{
						"type":             "partition-group",
						"name":             "webgroup",
						"description":      "web servers",
						"partition-uris":   []string{"/api/partitions/fake-part-2"},
						"post-start-delay": 20,
					},
				},
			},
			wantPresent: true,
			wantEntries: 2,
		},
		{
			name:        "classic mode without property",
			props:       map[string]interface{}{"name": "CPC2"},
			wantPresent: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(tt.props)
			}))
			defer server.Close()

			client := testClient(server)

			entries, present, err := client.CPC.GetAutoStartList(context.Background(), "/api/cpcs/fake-cpc-1")
			if err != nil {
				t.Fatalf("CPC.GetAutoStartList returned error: %v", err)
			}
			if present != tt.wantPresent {
				t.Errorf("expected present=%v, got %v", tt.wantPresent, present)
			}
			if len(entries) != tt.wantEntries {
				t.Fatalf("expected %d entries, got %d", tt.wantEntries, len(entries))
			}
			if tt.wantEntries > 0 {
				if entries[0].Type != AutoStartTypePartition {
					t.Errorf("expected type 'partition', got '%s'", entries[0].Type)
				}
				if entries[1].Name != "webgroup" {
					t.Errorf("expected group name 'webgroup', got '%s'", entries[1].Name)
				}
			}
		})
	}
}

func TestCPCService_SetAutoStartList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cpcs/fake-cpc-1/operations/set-auto-start-list" {
			t.Errorf("unexpected path '%s'", r.URL.Path)
		}
		var body struct {
			AutoStartList []map[string]interface{} `json:"auto-start-list"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if len(body.AutoStartList) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(body.AutoStartList))
		}
		entry := body.AutoStartList[0]
		if entry["partition-uri"] != "/api/partitions/fake-part-1" {
			t.Errorf("unexpected partition-uri '%v'", entry["partition-uri"])
		}
		if entry["post-start-delay"] != float64(30) {
			t.Errorf("unexpected post-start-delay '%v'", entry["post-start-delay"])
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server)

	err := client.CPC.SetAutoStartList(context.Background(), "/api/cpcs/fake-cpc-1", []AutoStartEntry{
		{Type: AutoStartTypePartition, PartitionURI: "/api/partitions/fake-part-1", PostStartDelay: 30},
	})
	if err != nil {
		t.Fatalf("CPC.SetAutoStartList returned error: %v", err)
	}
}

func TestCPCService_SetAutoStartListClear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if string(body["auto-start-list"]) != "[]" {
			t.Errorf("expected empty list, got %s", body["auto-start-list"])
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := testClient(server)

	if err := client.CPC.SetAutoStartList(context.Background(), "/api/cpcs/fake-cpc-1", nil); err != nil {
		t.Fatalf("CPC.SetAutoStartList returned error: %v", err)
	}
}

func TestCPCService_ListPartitions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cpcs/fake-cpc-1/partitions" {
			t.Errorf("unexpected path '%s'", r.URL.Path)
		}
		response := map[string]interface{}{
			"partitions": []map[string]interface{}{
				{"object-uri": "/api/partitions/fake-part-1", "name": "PART1", "status": "active"},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := testClient(server)

	parts, err := client.CPC.ListPartitions(context.Background(), "/api/cpcs/fake-cpc-1", "")
	if err != nil {
		t.Fatalf("CPC.ListPartitions returned error: %v", err)
	}
	if len(parts) != 1 || parts[0].Name != "PART1" {
		t.Errorf("unexpected partitions %v", parts)
	}
}
