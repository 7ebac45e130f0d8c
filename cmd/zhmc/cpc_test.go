package main

import (
	"reflect"
	"testing"
)

func TestCPCListHeaders(t *testing.T) {
	tests := []struct {
		name      string
		namesOnly bool
		uri       bool
		want      []string
	}{
		{
			name: "default columns",
			want: []string{
				"name", "status", "dpm-enabled", "se-version",
				"machine-type", "machine-model", "machine-serial-number",
				"description",
			},
		},
		{
			name:      "names only",
			namesOnly: true,
			want:      []string{"name"},
		},
		{
			name: "with uri",
			uri:  true,
			want: []string{
				"name", "status", "dpm-enabled", "se-version",
				"machine-type", "machine-model", "machine-serial-number",
				"description", "object-uri",
			},
		},
		{
			name:      "names only with uri",
			namesOnly: true,
			uri:       true,
			want:      []string{"name", "object-uri"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cpcListHeaders(tt.namesOnly, tt.uri)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
