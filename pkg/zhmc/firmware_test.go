package zhmc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCPCService_SingleStepInstall(t *testing.T) {
	server := jobServer(t, "/api/cpcs/fake-cpc-1/operations/single-step-install",
		func(t *testing.T, body map[string]interface{}) {
			if body["bundle-level"] != "S71" {
				t.Errorf("expected bundle-level 'S71', got '%v'", body["bundle-level"])
			}
			if body["accept-firmware"] != true {
				t.Errorf("expected accept-firmware true, got '%v'", body["accept-firmware"])
			}
			if _, ok := body["ftp-retrieve"]; ok {
				t.Error("ftp-retrieve must be absent without an FTP server")
			}
		}, nil)
	defer server.Close()

	client := testClient(server)
	client.Job.PollInterval = time.Millisecond

	err := client.CPC.SingleStepInstall(context.Background(), "/api/cpcs/fake-cpc-1",
		SingleStepInstallOptions{BundleLevel: "S71", AcceptFirmware: true})
	if err != nil {
		t.Fatalf("CPC.SingleStepInstall returned error: %v", err)
	}
}

func TestCPCService_SingleStepInstallFTP(t *testing.T) {
	server := jobServer(t, "/api/cpcs/fake-cpc-1/operations/single-step-install",
		func(t *testing.T, body map[string]interface{}) {
			if body["ftp-retrieve"] != true {
				t.Errorf("expected ftp-retrieve true, got '%v'", body["ftp-retrieve"])
			}
			info, ok := body["ftp-server-info"].(map[string]interface{})
			if !ok {
				t.Fatalf("expected ftp-server-info object, got '%v'", body["ftp-server-info"])
			}
			if info["ftp-server"] != "ftp.example.com" {
				t.Errorf("unexpected ftp-server '%v'", info["ftp-server"])
			}
			if info["protocol"] != "sftp" {
				t.Errorf("unexpected protocol '%v'", info["protocol"])
			}
		}, nil)
	defer server.Close()

	client := testClient(server)
	client.Job.PollInterval = time.Millisecond

	err := client.CPC.SingleStepInstall(context.Background(), "/api/cpcs/fake-cpc-1",
		SingleStepInstallOptions{
			FTPServer: &FTPServerInfo{
				Host:     "ftp.example.com",
				Protocol: "sftp",
				User:     "ftpuser",
				Password: "ftppass",
			},
		})
	if err != nil {
		t.Fatalf("CPC.SingleStepInstall returned error: %v", err)
	}
}

func TestCPCService_SingleStepInstallAlreadyAtLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"http-status": 400,
			"reason":      356,
			"message":     "SE is already at the requested bundle level",
		})
	}))
	defer server.Close()

	client := testClient(server)

	err := client.CPC.SingleStepInstall(context.Background(), "/api/cpcs/fake-cpc-1",
		SingleStepInstallOptions{BundleLevel: "S71"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsHMCError(err, 400, 356) {
		t.Errorf("expected HMC error 400.356, got %v", err)
	}
}

func TestCPCService_InstallAndActivate(t *testing.T) {
	tests := []struct {
		name      string
		opts      InstallAndActivateOptions
		checkBody func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "bundle level",
			opts: InstallAndActivateOptions{BundleLevel: "S71"},
			checkBody: func(t *testing.T, body map[string]interface{}) {
				if body["bundle-level"] != "S71" {
					t.Errorf("expected bundle-level 'S71', got '%v'", body["bundle-level"])
				}
				if _, ok := body["ec-levels"]; ok {
					t.Error("ec-levels must be absent")
				}
			},
		},
		{
			name: "ec levels",
			opts: InstallAndActivateOptions{
				ECLevels: []ECLevel{{Number: "P30719", MCL: "015"}, {Number: "P30730", MCL: "007"}},
			},
			checkBody: func(t *testing.T, body map[string]interface{}) {
				levels, ok := body["ec-levels"].([]interface{})
				if !ok || len(levels) != 2 {
					t.Fatalf("expected 2 ec-levels, got '%v'", body["ec-levels"])
				}
				first := levels[0].(map[string]interface{})
				if first["number"] != "P30719" || first["mcl"] != "015" {
					t.Errorf("unexpected first ec-level %v", first)
				}
			},
		},
		{
			name: "all disruptive",
			opts: InstallAndActivateOptions{InstallDisruptive: true},
			checkBody: func(t *testing.T, body map[string]interface{}) {
				if body["install-method"] != "disruptive" {
					t.Errorf("expected install-method 'disruptive', got '%v'", body["install-method"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := jobServer(t, "/api/cpcs/fake-cpc-1/operations/install-and-activate", tt.checkBody, nil)
			defer server.Close()

			client := testClient(server)
			client.Job.PollInterval = time.Millisecond

			err := client.CPC.InstallAndActivate(context.Background(), "/api/cpcs/fake-cpc-1", tt.opts)
			if err != nil {
				t.Fatalf("CPC.InstallAndActivate returned error: %v", err)
			}
		})
	}
}

func TestCPCService_DeleteRetrievedInternalCode(t *testing.T) {
	server := jobServer(t, "/api/cpcs/fake-cpc-1/operations/delete-retrieved-internal-code",
		func(t *testing.T, body map[string]interface{}) {
			levels, ok := body["ec-levels"].([]interface{})
			if !ok || len(levels) != 1 {
				t.Fatalf("expected 1 ec-level, got '%v'", body["ec-levels"])
			}
		}, nil)
	defer server.Close()

	client := testClient(server)
	client.Job.PollInterval = time.Millisecond

	err := client.CPC.DeleteRetrievedInternalCode(context.Background(), "/api/cpcs/fake-cpc-1",
		DeleteRetrievedInternalCodeOptions{ECLevels: []ECLevel{{Number: "P30719", MCL: "015"}}})
	if err != nil {
		t.Fatalf("CPC.DeleteRetrievedInternalCode returned error: %v", err)
	}
}

func TestCPCService_GetFirmwareLevels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/cpcs/fake-cpc-1" {
			t.Errorf("unexpected path '%s'", r.URL.Path)
		}
		response := map[string]interface{}{
			"name": "CPC1",
			"ec-mcl-description": map[string]interface{}{
				"ec": []map[string]interface{}{
					{
						"number":      "P30719",
						"description": "SE Framework",
						"mcl": []map[string]string{
							{"type": "retrieved", "level": "015"},
							{"type": "activated", "level": "012"},
							{"type": "accepted", "level": "000"},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := testClient(server)

	levels, err := client.CPC.GetFirmwareLevels(context.Background(), "/api/cpcs/fake-cpc-1")
	if err != nil {
		t.Fatalf("CPC.GetFirmwareLevels returned error: %v", err)
	}
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(levels))
	}
	if levels[0].Retrieved != "015" {
		t.Errorf("expected retrieved '015', got '%s'", levels[0].Retrieved)
	}
	if levels[0].Accepted != "-" {
		t.Errorf("expected accepted '-', got '%s'", levels[0].Accepted)
	}
	if levels[0].InstallableConc != "n/a" {
		t.Errorf("expected installable-conc 'n/a', got '%s'", levels[0].InstallableConc)
	}
}

func TestFirmwareLevels(t *testing.T) {
	desc := ECMCLDescription{
		BundleLevel: "H71",
		EC: []ECStream{
			{
				Number:      "P30719",
				Description: "SE Framework",
				MCL: []MCLLevel{
					{Type: "retrieved", Level: "015"},
					{Type: "installable-concurrent", Level: "014"},
					{Type: "activated", Level: "0"},
					{Type: "accepted", Level: "000"},
					{Type: "removable-concurrent", Level: "011"},
				},
			},
			{
				Number:      "P30730",
				Description: "CPC LIC",
				MCL:         nil,
			},
		},
	}

	levels := FirmwareLevels(desc)
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}

	first := levels[0]
	if first.ECNumber != "P30719" || first.Description != "SE Framework" {
		t.Errorf("unexpected first row %+v", first)
	}
	if first.Retrieved != "015" || first.InstallableConc != "014" || first.RemovableConc != "011" {
		t.Errorf("unexpected levels in first row %+v", first)
	}
	if first.Activated != "-" || first.Accepted != "-" {
		t.Errorf("levels '0'/'000' must render as '-': %+v", first)
	}

	second := levels[1]
	if second.Retrieved != "n/a" || second.Accepted != "n/a" {
		t.Errorf("missing states must render as 'n/a': %+v", second)
	}
}
