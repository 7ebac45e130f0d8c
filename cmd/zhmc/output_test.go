package main

import (
	"reflect"
	"testing"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

func TestSortRecords(t *testing.T) {
	records := []zhmc.Properties{
		{"name": "CPC2", "status": "operating"},
		{"name": "CPC3", "status": "active"},
		{"name": "CPC1", "status": "operating"},
	}

	if err := sortRecords(records, []string{"name"}); err != nil {
		t.Fatalf("sortRecords returned error: %v", err)
	}
	if records[0]["name"] != "CPC1" || records[2]["name"] != "CPC3" {
		t.Errorf("unexpected order: %v", records)
	}

	if err := sortRecords(records, []string{"status", "name"}); err != nil {
		t.Fatalf("sortRecords returned error: %v", err)
	}
	if records[0]["name"] != "CPC3" {
		t.Errorf("expected CPC3 first, got %v", records[0]["name"])
	}
	if records[1]["name"] != "CPC1" || records[2]["name"] != "CPC2" {
		t.Errorf("unexpected order: %v", records)
	}

	if err := sortRecords(records, []string{"no-such-property"}); err == nil {
		t.Error("expected error for unknown sort property")
	}
}

func TestRemainingKeys(t *testing.T) {
	records := []zhmc.Properties{
		{"name": "CPC1", "status": "active", "machine-type": "3931"},
		{"name": "CPC2", "status": "operating", "se-version": "2.16.0"},
	}

	got := remainingKeys([]string{"name"}, records)
	want := []string{"machine-type", "se-version", "status"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if got := remainingKeys([]string{"name", "status", "machine-type", "se-version"}, records); len(got) != 0 {
		t.Errorf("expected no remaining keys, got %v", got)
	}
}
