package zhmc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
)

// CPCService provides access to the CPC objects managed by the HMC.
type CPCService struct {
	c *Client
}

// NewCPCService creates a new CPC service.
func NewCPCService(c *Client) *CPCService {
	return &CPCService{c: c}
}

// ListCPCOptions narrows down the result of CPCService.List.
type ListCPCOptions struct {
	// Name filters by CPC name; interpreted as a regular expression by
	// the HMC.
	Name string

	// Status filters by CPC status; a regular expression matched on the
	// client, since the List CPC Objects operation only filters by name.
	Status string
}

// List lists the CPCs managed by the HMC, with their summary properties.
func (s *CPCService) List(ctx context.Context, opts ListCPCOptions) ([]CPC, error) {
	query := url.Values{}
	if opts.Name != "" {
		query.Set("name", opts.Name)
	}
	var body struct {
		CPCs []CPC `json:"cpcs"`
	}
	if err := s.c.Get(ctx, "/api/cpcs", query, &body); err != nil {
		return nil, err
	}
	cpcs := body.CPCs
	if opts.Status != "" {
		re, err := regexp.Compile(opts.Status)
		if err != nil {
			return nil, NewParseError(fmt.Sprintf("invalid status filter %q", opts.Status), err)
		}
		filtered := make([]CPC, 0, len(cpcs))
		for _, cpc := range cpcs {
			if re.MatchString(string(cpc.Status)) {
				filtered = append(filtered, cpc)
			}
		}
		cpcs = filtered
	}
	return cpcs, nil
}

// FindByName returns the CPC with the given name, or a not found error.
func (s *CPCService) FindByName(ctx context.Context, name string) (*CPC, error) {
	cpcs, err := s.List(ctx, ListCPCOptions{Name: "^" + regexp.QuoteMeta(name) + "$"})
	if err != nil {
		return nil, err
	}
	for i := range cpcs {
		if cpcs[i].Name == name {
			return &cpcs[i], nil
		}
	}
	return nil, NewNotFoundError("CPC", name)
}

// GetProperties retrieves the full set of properties of a CPC.
func (s *CPCService) GetProperties(ctx context.Context, cpcURI string) (Properties, error) {
	var props Properties
	if err := s.c.Get(ctx, cpcURI, nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// UpdateProperties updates writeable properties of a CPC.
func (s *CPCService) UpdateProperties(ctx context.Context, cpcURI string, props Properties) error {
	if len(props) == 0 {
		return nil
	}
	return s.c.Post(ctx, cpcURI, props, nil)
}

// SetPowerSave sets the power save setting of a CPC. The operation is
// asynchronous; SetPowerSave waits for its completion.
func (s *CPCService) SetPowerSave(ctx context.Context, cpcURI string, powerSaving PowerSaving) error {
	body := map[string]any{"power-saving": string(powerSaving)}
	_, err := s.c.Job.Run(ctx, cpcURI+"/operations/set-cpc-power-save", body)
	return err
}

// SetPowerCappingOptions are the arguments of the Set CPC Power Capping
// operation. CurrentCap is in watts and is required when the state is
// enabled or custom.
type SetPowerCappingOptions struct {
	State      PowerCappingState
	CurrentCap *int
}

// SetPowerCapping sets the power capping settings of a CPC. The operation
// is asynchronous; SetPowerCapping waits for its completion.
func (s *CPCService) SetPowerCapping(ctx context.Context, cpcURI string, opts SetPowerCappingOptions) error {
	body := map[string]any{"power-capping-state": string(opts.State)}
	if opts.CurrentCap != nil {
		body["power-cap-current"] = *opts.CurrentCap
	}
	_, err := s.c.Job.Run(ctx, cpcURI+"/operations/set-cpc-power-capping", body)
	return err
}

// GetEnergyManagementData retrieves the energy management properties of a
// CPC (power consumption, power ratings, capping and save settings).
func (s *CPCService) GetEnergyManagementData(ctx context.Context, cpcURI string) (Properties, error) {
	var body struct {
		Objects []struct {
			ObjectURI     string     `json:"object-uri"`
			ErrorOccurred bool       `json:"error-occurred"`
			Properties    Properties `json:"properties"`
		} `json:"objects"`
	}
	if err := s.c.Get(ctx, cpcURI+"/energy-management-data", nil, &body); err != nil {
		return nil, err
	}
	for _, obj := range body.Objects {
		if obj.ObjectURI != cpcURI {
			continue
		}
		if obj.ErrorOccurred {
			return nil, NewAPIError(&HMCError{
				Message: fmt.Sprintf("error occurred retrieving energy management data for %s", cpcURI),
			})
		}
		return obj.Properties, nil
	}
	return nil, NewParseError(fmt.Sprintf("energy management data did not include %s", cpcURI), nil)
}

// ListAPIFeatures lists the names of the Web Services API features that are
// available on a CPC. The name parameter is an optional regular expression
// filter. CPCs whose SE does not support API features yield an empty list.
func (s *CPCService) ListAPIFeatures(ctx context.Context, cpcURI, name string) ([]string, error) {
	return listAPIFeatures(ctx, s.c, cpcURI, name)
}

func listAPIFeatures(ctx context.Context, c *Client, resourceURI, name string) ([]string, error) {
	query := url.Values{}
	if name != "" {
		query.Set("name", name)
	}
	var body struct {
		Features []string `json:"api-features"`
	}
	err := c.Get(ctx, resourceURI+"/web-services-api-features", query, &body)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return body.Features, nil
}

// ExportDPMConfiguration exports the DPM configuration of a CPC. The
// returned map is the configuration data suitable for a later import. With
// includeUnusedAdapters, adapters not referenced by any partition are
// included as well.
func (s *CPCService) ExportDPMConfiguration(ctx context.Context, cpcURI string, includeUnusedAdapters bool) (map[string]any, error) {
	body := map[string]any{"include-unused-adapters": includeUnusedAdapters}
	var config map[string]any
	if err := s.c.Post(ctx, cpcURI+"/operations/export-dpm-configuration", body, &config); err != nil {
		return nil, err
	}
	return config, nil
}

// DPMImportResult is the outcome of ImportDPMConfiguration. Complete is
// true when the configuration was imported in full; otherwise Output
// describes the parts that were not restored.
type DPMImportResult struct {
	Complete bool
	Output   []map[string]any
}

// ImportDPMConfiguration imports a DPM configuration into a CPC. An HTTP
// 204 response indicates a complete import; an HTTP 200 response carries an
// output field describing a partial import.
func (s *CPCService) ImportDPMConfiguration(ctx context.Context, cpcURI string, config map[string]any) (*DPMImportResult, error) {
	var raw json.RawMessage
	if err := s.c.Post(ctx, cpcURI+"/operations/import-dpm-configuration", config, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &DPMImportResult{Complete: true}, nil
	}
	var body struct {
		Output []map[string]any `json:"output"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, NewParseError("could not parse import-dpm-configuration response", err)
	}
	return &DPMImportResult{Complete: false, Output: body.Output}, nil
}

// GetAutoStartList retrieves the auto-start list of a CPC in DPM mode. The
// second return value is false when the CPC does not have the property,
// which is the case for CPCs in classic mode.
func (s *CPCService) GetAutoStartList(ctx context.Context, cpcURI string) ([]AutoStartEntry, bool, error) {
	props, err := s.GetProperties(ctx, cpcURI)
	if err != nil {
		return nil, false, err
	}
	raw, ok := props["auto-start-list"]
	if !ok {
		return nil, false, nil
	}
	// Round-trip through JSON to get typed entries out of the generic
	// property map.
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, true, NewParseError("could not parse auto-start-list property", err)
	}
	var entries []AutoStartEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, true, NewParseError("could not parse auto-start-list property", err)
	}
	return entries, true, nil
}

// SetAutoStartList replaces the auto-start list of a CPC in DPM mode. An
// empty (non-nil) list clears it.
func (s *CPCService) SetAutoStartList(ctx context.Context, cpcURI string, entries []AutoStartEntry) error {
	if entries == nil {
		entries = []AutoStartEntry{}
	}
	body := map[string]any{"auto-start-list": entries}
	return s.c.Post(ctx, cpcURI+"/operations/set-auto-start-list", body, nil)
}

// ListPartitions lists the partitions of a CPC in DPM mode, with their
// summary properties. The name parameter is an optional regular expression
// filter.
func (s *CPCService) ListPartitions(ctx context.Context, cpcURI, name string) ([]Partition, error) {
	query := url.Values{}
	if name != "" {
		query.Set("name", name)
	}
	var body struct {
		Partitions []Partition `json:"partitions"`
	}
	if err := s.c.Get(ctx, cpcURI+"/partitions", query, &body); err != nil {
		return nil, err
	}
	return body.Partitions, nil
}

// FindPartitionByName returns the partition with the given name on the
// CPC, or a not found error.
func (s *CPCService) FindPartitionByName(ctx context.Context, cpcURI, name string) (*Partition, error) {
	parts, err := s.ListPartitions(ctx, cpcURI, "^"+regexp.QuoteMeta(name)+"$")
	if err != nil {
		return nil, err
	}
	for i := range parts {
		if parts[i].Name == name {
			return &parts[i], nil
		}
	}
	return nil, NewNotFoundError("partition", name)
}
