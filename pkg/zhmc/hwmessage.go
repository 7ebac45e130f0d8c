package zhmc

import (
	"context"
	"net/url"
	"strconv"
)

// HardwareMessageService provides access to the hardware messages of a CPC
// or of the console. The parentURI of each method is the object URI of the
// resource owning the messages.
type HardwareMessageService struct {
	c *Client
}

// NewHardwareMessageService creates a new hardware message service.
func NewHardwareMessageService(c *Client) *HardwareMessageService {
	return &HardwareMessageService{c: c}
}

// ListHardwareMessageOptions narrows down the result of
// HardwareMessageService.List.
type ListHardwareMessageOptions struct {
	// Begin limits the result to messages created at or after this time.
	Begin *Timestamp

	// End limits the result to messages created at or before this time.
	End *Timestamp

	// ServiceSupported filters by whether IBM service can be requested
	// for the message.
	ServiceSupported *bool
}

// List lists the hardware messages of a CPC or the console, with their
// summary properties.
func (s *HardwareMessageService) List(ctx context.Context, parentURI string, opts ListHardwareMessageOptions) ([]HardwareMessage, error) {
	query := url.Values{}
	if opts.Begin != nil {
		query.Set("begin-time", strconv.FormatInt(int64(*opts.Begin), 10))
	}
	if opts.End != nil {
		query.Set("end-time", strconv.FormatInt(int64(*opts.End), 10))
	}
	if opts.ServiceSupported != nil {
		query.Set("service-supported", strconv.FormatBool(*opts.ServiceSupported))
	}
	var body struct {
		Messages []HardwareMessage `json:"hardware-messages"`
	}
	if err := s.c.Get(ctx, parentURI+"/hardware-messages", query, &body); err != nil {
		return nil, err
	}
	return body.Messages, nil
}

// FindByID returns the hardware message with the given message ID, or a not
// found error. The message ID is the element-id of the message.
func (s *HardwareMessageService) FindByID(ctx context.Context, parentURI, messageID string) (*HardwareMessage, error) {
	msgs, err := s.List(ctx, parentURI, ListHardwareMessageOptions{})
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].ElementID == messageID {
			return &msgs[i], nil
		}
	}
	return nil, NewNotFoundError("hardware message", messageID)
}

// GetProperties retrieves the full set of properties of a hardware message.
func (s *HardwareMessageService) GetProperties(ctx context.Context, messageURI string) (Properties, error) {
	var props Properties
	if err := s.c.Get(ctx, messageURI, nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// Delete deletes a hardware message.
func (s *HardwareMessageService) Delete(ctx context.Context, messageURI string) error {
	return s.c.Delete(ctx, messageURI)
}

// RequestServiceOptions are the arguments of the Request Service operation.
// Both fields are optional overrides of the contact data configured on the
// HMC.
type RequestServiceOptions struct {
	CustomerName  string
	CustomerPhone string
}

// RequestService requests IBM service for the problem described by a
// hardware message. The message must have service-supported true. On
// success the HMC deletes the message.
func (s *HardwareMessageService) RequestService(ctx context.Context, messageURI string, opts RequestServiceOptions) error {
	body := map[string]any{}
	if opts.CustomerName != "" {
		body["customer-name"] = opts.CustomerName
	}
	if opts.CustomerPhone != "" {
		body["customer-phone"] = opts.CustomerPhone
	}
	return s.c.Post(ctx, messageURI+"/operations/request-service", body, nil)
}

// GetServiceInformation retrieves problem information and telemetry data
// for a hardware message with service-supported true. With deleteMessage,
// the HMC deletes the message afterwards.
func (s *HardwareMessageService) GetServiceInformation(ctx context.Context, messageURI string, deleteMessage bool) (Properties, error) {
	body := map[string]any{"delete-message": deleteMessage}
	var info Properties
	if err := s.c.Post(ctx, messageURI+"/operations/get-service-information", body, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// DeclineService declines IBM service for the problem described by a
// hardware message with service-supported true. On success the HMC deletes
// the message.
func (s *HardwareMessageService) DeclineService(ctx context.Context, messageURI string) error {
	return s.c.Post(ctx, messageURI+"/operations/decline-service", nil, nil)
}
