package zhmc

import (
	"context"
	"net/url"
	"regexp"
)

// AdapterService provides access to the adapters of CPCs in DPM mode.
type AdapterService struct {
	c *Client
}

// NewAdapterService creates a new adapter service.
func NewAdapterService(c *Client) *AdapterService {
	return &AdapterService{c: c}
}

// ListAdapterOptions narrows down the result of AdapterService.List.
type ListAdapterOptions struct {
	// Name filters by adapter name; interpreted as a regular expression
	// by the HMC.
	Name string

	// AdapterID filters by adapter ID (PCHID).
	AdapterID string
}

// List lists the adapters of a CPC in DPM mode, with their summary
// properties.
func (s *AdapterService) List(ctx context.Context, cpcURI string, opts ListAdapterOptions) ([]Adapter, error) {
	query := url.Values{}
	if opts.Name != "" {
		query.Set("name", opts.Name)
	}
	if opts.AdapterID != "" {
		query.Set("adapter-id", opts.AdapterID)
	}
	var body struct {
		Adapters []Adapter `json:"adapters"`
	}
	if err := s.c.Get(ctx, cpcURI+"/adapters", query, &body); err != nil {
		return nil, err
	}
	return body.Adapters, nil
}

// FindByName returns the adapter with the given name on the CPC, or a not
// found error.
func (s *AdapterService) FindByName(ctx context.Context, cpcURI, name string) (*Adapter, error) {
	adapters, err := s.List(ctx, cpcURI, ListAdapterOptions{Name: "^" + regexp.QuoteMeta(name) + "$"})
	if err != nil {
		return nil, err
	}
	for i := range adapters {
		if adapters[i].Name == name {
			return &adapters[i], nil
		}
	}
	return nil, NewNotFoundError("adapter", name)
}

// GetProperties retrieves the full set of properties of an adapter.
func (s *AdapterService) GetProperties(ctx context.Context, adapterURI string) (Properties, error) {
	var props Properties
	if err := s.c.Get(ctx, adapterURI, nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// UpdateProperties updates writeable properties of an adapter.
func (s *AdapterService) UpdateProperties(ctx context.Context, adapterURI string, props Properties) error {
	if len(props) == 0 {
		return nil
	}
	return s.c.Post(ctx, adapterURI, props, nil)
}
