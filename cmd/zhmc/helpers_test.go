package main

import (
	"reflect"
	"testing"
	"time"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

func TestParseECLevels(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    []zhmc.ECLevel
		wantErr bool
	}{
		{
			name:  "two levels",
			value: "[P30719.015, P30730.007]",
			want: []zhmc.ECLevel{
				{Number: "P30719", MCL: "015"},
				{Number: "P30730", MCL: "007"},
			},
		},
		{
			name:  "single level",
			value: "[P30719.015]",
			want:  []zhmc.ECLevel{{Number: "P30719", MCL: "015"}},
		},
		{
			name:  "empty list",
			value: "[]",
			want:  []zhmc.ECLevel{},
		},
		{
			name:    "missing mcl",
			value:   "[P30719]",
			wantErr: true,
		},
		{
			name:    "not a list",
			value:   "{a: b}",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseECLevels("--ec-levels", tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  zhmc.Timestamp
	}{
		{
			name:  "hmc timestamp",
			value: "1714521600000",
			want:  zhmc.Timestamp(1714521600000),
		},
		{
			name:  "date only",
			value: "2024-05-01",
			want:  zhmc.TimestampOf(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:  "date and time",
			value: "2024-05-01 12:30:00",
			want:  zhmc.TimestampOf(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)),
		},
		{
			name:  "rfc3339",
			value: "2024-05-01T12:30:00Z",
			want:  zhmc.TimestampOf(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTimestamp(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Error("expected error for unparseable timestamp")
	}
}

func TestUpdateOptionsProperties(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }
	flag := func(b bool) *bool { return &b }

	tests := []struct {
		name    string
		opts    updateOptions
		want    zhmc.Properties
		wantErr bool
	}{
		{
			name: "description and profile",
			opts: updateOptions{
				description:           str("test CPC"),
				nextActivationProfile: str("PROF1"),
			},
			want: zhmc.Properties{
				"description":                  "test CPC",
				"next-activation-profile-name": "PROF1",
			},
		},
		{
			name: "system determined time slice",
			opts: updateOptions{processorTimeSlice: num(0)},
			want: zhmc.Properties{
				"processor-running-time-type": "system-determined",
			},
		},
		{
			name: "user determined time slice",
			opts: updateOptions{processorTimeSlice: num(25)},
			want: zhmc.Properties{
				"processor-running-time-type": "user-determined",
				"processor-running-time":      25,
			},
		},
		{
			name:    "negative time slice",
			opts:    updateOptions{processorTimeSlice: num(-1)},
			wantErr: true,
		},
		{
			name: "wait ends slice",
			opts: updateOptions{waitEndsSlice: flag(true)},
			want: zhmc.Properties{
				"does-wait-state-end-time-slice": true,
			},
		},
		{
			name: "acceptable status drops empty items",
			opts: updateOptions{acceptableStatus: str("active,service,")},
			want: zhmc.Properties{
				"acceptable-status": []string{"active", "service"},
			},
		},
		{
			name: "empty acceptable status clears the list",
			opts: updateOptions{acceptableStatus: str("")},
			want: zhmc.Properties{
				"acceptable-status": []string{},
			},
		},
		{
			name: "no options",
			opts: updateOptions{},
			want: zhmc.Properties{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.properties()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		name        string
		bundleLevel string
		ftpHost     string
		want        string
	}{
		{
			name:        "bundle from support site",
			bundleLevel: "S71",
			want:        "bundle level S71 with firmware retrieval from the IBM support site",
		},
		{
			name:        "bundle from ftp",
			bundleLevel: "S71",
			ftpHost:     "ftp.example.com",
			want:        "bundle level S71 with firmware retrieval from FTP server 'ftp.example.com'",
		},
		{
			name:    "all from ftp",
			ftpHost: "ftp.example.com",
			want:    "all firmware from FTP server 'ftp.example.com'",
		},
		{
			name: "all local",
			want: "all locally available firmware",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levelString(tt.bundleLevel, tt.ftpHost); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMCLString(t *testing.T) {
	got, dis := mclString("S71", "", false, false, false)
	if got != "bundle level S71" {
		t.Errorf("got %q", got)
	}
	if dis != " (disruptive MCLs will fail)" {
		t.Errorf("got %q", dis)
	}

	got, dis = mclString("", "[P30719.015]", false, false, true)
	if got != "EC levels [P30719.015]" {
		t.Errorf("got %q", got)
	}
	if dis != " (including disruptive MCLs)" {
		t.Errorf("got %q", dis)
	}

	got, dis = mclString("", "", false, true, false)
	if got != "all locally available non-disruptive MCLs" {
		t.Errorf("got %q", got)
	}
	if dis != "" {
		t.Errorf("got %q", dis)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "two properties",
			value: "name=^CPC.*,status=operating",
			want:  map[string]string{"name": "^CPC.*", "status": "operating"},
		},
		{
			name:  "double quoted value",
			value: `name="^CPC1$"`,
			want:  map[string]string{"name": "^CPC1$"},
		},
		{
			name:  "single quoted value",
			value: "status='active'",
			want:  map[string]string{"status": "active"},
		},
		{
			name:    "missing equals sign",
			value:   "name",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilter(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFilter returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
