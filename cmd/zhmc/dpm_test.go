package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

func newImportFlags(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "dpm-import"}
	cmd.Flags().Bool("preserve-uris", false, "")
	cmd.Flags().Bool("generate-uris", false, "")
	cmd.Flags().Bool("preserve-wwpns", false, "")
	cmd.Flags().Bool("generate-wwpns", false, "")
	return cmd
}

func TestResolvePreserveFlag(t *testing.T) {
	tests := []struct {
		name      string
		setFlag   string
		config    map[string]any
		wantValue any
		wantRow   [2]string
	}{
		{
			name:      "option wins over file",
			setFlag:   "preserve-uris",
			config:    map[string]any{"preserve-uris": false},
			wantValue: true,
			wantRow:   [2]string{"preserve-uris:", "true from zhmc option"},
		},
		{
			name:      "generate option overrides file",
			setFlag:   "generate-uris",
			config:    map[string]any{"preserve-uris": true},
			wantValue: false,
			wantRow:   [2]string{"preserve-uris:", "false from zhmc option"},
		},
		{
			name:      "file value kept",
			config:    map[string]any{"preserve-uris": true},
			wantValue: true,
			wantRow:   [2]string{"preserve-uris:", "true from config.yaml"},
		},
		{
			name:    "hmc default",
			config:  map[string]any{},
			wantRow: [2]string{"preserve-uris:", "false from HMC default"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newImportFlags(t)
			if tt.setFlag != "" {
				if err := cmd.Flags().Set(tt.setFlag, "true"); err != nil {
					t.Fatal(err)
				}
			}
			row := resolvePreserveFlag(cmd, tt.config, "preserve-uris", "config.yaml")
			if row != tt.wantRow {
				t.Errorf("got row %v, want %v", row, tt.wantRow)
			}
			got, ok := tt.config["preserve-uris"]
			if tt.wantValue == nil {
				if ok {
					t.Errorf("preserve-uris unexpectedly set to %v", got)
				}
				return
			}
			if got != tt.wantValue {
				t.Errorf("preserve-uris = %v, want %v", got, tt.wantValue)
			}
		})
	}
}

func TestResolveAdapterMapping(t *testing.T) {
	dir := t.TempDir()
	mappingFile := filepath.Join(dir, "mapping.yaml")
	content := `adapter-mapping:
  - old-adapter-id: "12c"
    new-adapter-id: "10c"
  - old-adapter-id: "130"
    new-adapter-id: "110"
`
	if err := os.WriteFile(mappingFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	config := map[string]any{}
	row, err := resolveAdapterMapping(config, mappingFile, "config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row != [2]string{"adapter-mapping:", "from " + mappingFile} {
		t.Errorf("got row %v", row)
	}
	want := []map[string]any{
		{"old-adapter-id": "12c", "new-adapter-id": "10c"},
		{"old-adapter-id": "130", "new-adapter-id": "110"},
	}
	if !reflect.DeepEqual(config["adapter-mapping"], want) {
		t.Errorf("adapter-mapping = %v, want %v", config["adapter-mapping"], want)
	}
}

func TestResolveAdapterMappingDefaults(t *testing.T) {
	config := map[string]any{}
	row, err := resolveAdapterMapping(config, "", "config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if row != [2]string{"adapter-mapping:", "1 to 1 from HMC default"} {
		t.Errorf("got row %v", row)
	}

	config = map[string]any{"adapter-mapping": []any{}}
	row, err = resolveAdapterMapping(config, "", "config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if row != [2]string{"adapter-mapping:", "from config.yaml"} {
		t.Errorf("got row %v", row)
	}
}

func TestResolveAdapterMappingInvalid(t *testing.T) {
	dir := t.TempDir()
	mappingFile := filepath.Join(dir, "mapping.yaml")
	content := `adapter-mapping:
  - old-adapter-id: "12c"
`
	if err := os.WriteFile(mappingFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := resolveAdapterMapping(map[string]any{}, mappingFile, "config.yaml"); err == nil {
		t.Error("expected error for mapping entry without new-adapter-id")
	}
}

func TestDropMetaFields(t *testing.T) {
	config := map[string]any{
		"partitions":                          []any{},
		"zhmccli-meta-exported-by":            "user1",
		"zhmccli-meta-exported-from-cpc-name": "CPC1",
	}
	summary := dropMetaFields(config)

	want := [][2]string{
		{"zhmccli-meta-exported-by:", "user1"},
		{"zhmccli-meta-exported-from-cpc-name:", "CPC1"},
	}
	if !reflect.DeepEqual(summary, want) {
		t.Errorf("summary = %v, want %v", summary, want)
	}
	if _, ok := config["zhmccli-meta-exported-by"]; ok {
		t.Error("meta field not removed from config")
	}
	if _, ok := config["partitions"]; !ok {
		t.Error("non-meta field removed from config")
	}
}

func TestDPMFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	config := map[string]any{
		"preserve-uris": true,
		"se-version":    "2.16.0",
		"partitions":    []any{map[string]any{"name": "PART1"}},
	}

	for _, format := range []string{"yaml", "json"} {
		path := filepath.Join(dir, "config."+format)
		if err := writeDPMFile(path, format, config); err != nil {
			t.Fatalf("%s: write: %v", format, err)
		}
		got, err := readDPMFile(path, format)
		if err != nil {
			t.Fatalf("%s: read: %v", format, err)
		}
		if got["preserve-uris"] != true || got["se-version"] != "2.16.0" {
			t.Errorf("%s: got %v", format, got)
		}
	}
}
