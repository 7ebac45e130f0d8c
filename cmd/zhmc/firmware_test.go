package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

func TestCheckHMCSupportsUpgrade(t *testing.T) {
	tests := []struct {
		name    string
		desc    map[string]interface{}
		wantErr string
	}{
		{
			name: "HMC with bundle level",
			desc: map[string]interface{}{"bundle-level": "H71", "ec": []interface{}{}},
		},
		{
			name:    "old HMC without bundle level",
			desc:    map[string]interface{}{"ec": []interface{}{}},
			wantErr: "does not support firmware upgrade",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/console" {
					t.Errorf("expected path '/api/console', got '%s'", r.URL.Path)
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"ec-mcl-description": tt.desc,
				})
			}))
			defer server.Close()

			client := zhmc.NewClient("hmc.example.com", "test-user", "test-pass",
				zhmc.WithBaseURL(server.URL), zhmc.WithSessionID("test-session"))

			err := checkHMCSupportsUpgrade(context.Background(), client)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("checkHMCSupportsUpgrade returned error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}
