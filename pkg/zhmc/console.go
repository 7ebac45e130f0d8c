package zhmc

import (
	"context"
)

// ConsoleURI is the object URI of the console resource representing the
// HMC itself.
const ConsoleURI = "/api/console"

// ConsoleService provides access to the console resource, which represents
// the HMC the client is talking to.
type ConsoleService struct {
	c *Client
}

// NewConsoleService creates a new console service.
func NewConsoleService(c *Client) *ConsoleService {
	return &ConsoleService{c: c}
}

// GetProperties retrieves the full set of properties of the console.
func (s *ConsoleService) GetProperties(ctx context.Context) (Properties, error) {
	var props Properties
	if err := s.c.Get(ctx, ConsoleURI, nil, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// ListAPIFeatures lists the names of the Web Services API features of the
// console. The name parameter is an optional regular expression filter.
// HMCs that do not support API features yield an empty list.
func (s *ConsoleService) ListAPIFeatures(ctx context.Context, name string) ([]string, error) {
	return listAPIFeatures(ctx, s.c, ConsoleURI, name)
}

// GetFirmwareLevels retrieves the ec-mcl-description property of the
// console and converts it into the firmware report.
func (s *ConsoleService) GetFirmwareLevels(ctx context.Context) ([]FirmwareLevel, error) {
	desc, err := getECMCLDescription(ctx, s.c, ConsoleURI)
	if err != nil {
		return nil, err
	}
	return FirmwareLevels(*desc), nil
}

// BundleLevel returns the firmware bundle level of the console, or "" when
// the HMC version does not report one. HMCs without a bundle level do not
// support firmware upgrade through the Web Services API.
func (s *ConsoleService) BundleLevel(ctx context.Context) (string, error) {
	desc, err := getECMCLDescription(ctx, s.c, ConsoleURI)
	if err != nil {
		return "", err
	}
	return desc.BundleLevel, nil
}

// Restart restarts the HMC. With force, users logged on to the HMC user
// interface are disconnected. Restarting ends the Web Services API session.
func (s *ConsoleService) Restart(ctx context.Context, force bool) error {
	body := map[string]any{"force": force}
	return s.c.Post(ctx, ConsoleURI+"/operations/restart", body, nil)
}

// SingleStepInstall upgrades the firmware of the HMC to a new bundle level
// and waits for the asynchronous operation to complete. The HMC restarts
// at the end of the upgrade, which ends the session.
func (s *ConsoleService) SingleStepInstall(ctx context.Context, opts SingleStepInstallOptions) error {
	_, err := s.c.Job.Run(ctx, ConsoleURI+"/operations/single-step-install", opts.body())
	return err
}
