package zhmc

import (
	"context"
)

// FTPServerInfo identifies an FTP server from which the SE or HMC retrieves
// firmware, instead of the IBM support site.
type FTPServerInfo struct {
	Host      string `json:"ftp-server"`
	Protocol  string `json:"protocol"` // "ftp", "ftps" or "sftp"
	User      string `json:"username"`
	Password  string `json:"password"`
	Directory string `json:"directory,omitempty"`
}

// SingleStepInstallOptions are the arguments of the CPC Single Step Install
// operation, which upgrades the SE to a new bundle level in one step
// (retrieve, install, activate, optionally accept).
type SingleStepInstallOptions struct {
	// BundleLevel is the target bundle level. Empty means the most recent
	// available level.
	BundleLevel string

	// AcceptFirmware accepts the previously activated level before the
	// upgrade.
	AcceptFirmware bool

	// FTPServer retrieves the firmware from an FTP server instead of the
	// IBM support site.
	FTPServer *FTPServerInfo
}

func (o SingleStepInstallOptions) body() map[string]any {
	body := map[string]any{"accept-firmware": o.AcceptFirmware}
	if o.BundleLevel != "" {
		body["bundle-level"] = o.BundleLevel
	}
	if o.FTPServer != nil {
		body["ftp-retrieve"] = true
		body["ftp-server-info"] = o.FTPServer
	}
	return body
}

// SingleStepInstall upgrades the firmware of the SE of a CPC to a new
// bundle level and waits for the asynchronous operation to complete.
//
// When the SE is already at the requested bundle level, the HMC fails the
// operation with HTTP 400 and reason 356; callers that want to treat that
// as success can detect it with IsHMCError(err, 400, 356).
func (s *CPCService) SingleStepInstall(ctx context.Context, cpcURI string, opts SingleStepInstallOptions) error {
	_, err := s.c.Job.Run(ctx, cpcURI+"/operations/single-step-install", opts.body())
	return err
}

// InstallAndActivateOptions are the arguments of the CPC Install and
// Activate operation. At most one of BundleLevel and ECLevels may be set;
// with neither set, all locally available firmware is installed.
type InstallAndActivateOptions struct {
	// BundleLevel installs the firmware of a specific bundle level that
	// has been retrieved to the SE.
	BundleLevel string

	// ECLevels installs specific MCL levels that have been retrieved to
	// the SE.
	ECLevels []ECLevel

	// InstallDisruptive also installs firmware that requires a disruptive
	// activation. Not valid together with BundleLevel.
	InstallDisruptive bool
}

func (o InstallAndActivateOptions) body() map[string]any {
	body := map[string]any{}
	if o.BundleLevel != "" {
		body["bundle-level"] = o.BundleLevel
	}
	if len(o.ECLevels) > 0 {
		levels := make([]map[string]string, 0, len(o.ECLevels))
		for _, l := range o.ECLevels {
			levels = append(levels, map[string]string{
				"number": l.Number,
				"mcl":    l.MCL,
			})
		}
		body["ec-levels"] = levels
	}
	if o.InstallDisruptive {
		body["install-method"] = "disruptive"
	}
	return body
}

// InstallAndActivate installs firmware that was previously retrieved to the
// SE of a CPC, activates it, and waits for the asynchronous operation to
// complete.
//
// Two error cases deserve special handling by callers: HTTP 500 reason 263
// means the SE was already at the requested bundle level, and HTTP 400
// reason 379 for EC levels cannot distinguish "already at or above the
// requested levels" from "firmware not available on the SE".
func (s *CPCService) InstallAndActivate(ctx context.Context, cpcURI string, opts InstallAndActivateOptions) error {
	_, err := s.c.Job.Run(ctx, cpcURI+"/operations/install-and-activate", opts.body())
	return err
}

// DeleteRetrievedInternalCodeOptions are the arguments of the CPC Delete
// Retrieved Internal Code operation. With no ECLevels, all uninstalled
// firmware is deleted from the SE.
type DeleteRetrievedInternalCodeOptions struct {
	ECLevels []ECLevel
}

func (o DeleteRetrievedInternalCodeOptions) body() any {
	if len(o.ECLevels) == 0 {
		return nil
	}
	levels := make([]map[string]string, 0, len(o.ECLevels))
	for _, l := range o.ECLevels {
		levels = append(levels, map[string]string{
			"number": l.Number,
			"mcl":    l.MCL,
		})
	}
	return map[string]any{"ec-levels": levels}
}

// DeleteRetrievedInternalCode deletes retrieved but uninstalled firmware
// from the SE of a CPC and waits for the asynchronous operation to
// complete.
func (s *CPCService) DeleteRetrievedInternalCode(ctx context.Context, cpcURI string, opts DeleteRetrievedInternalCodeOptions) error {
	_, err := s.c.Job.Run(ctx, cpcURI+"/operations/delete-retrieved-internal-code", opts.body())
	return err
}

// GetFirmwareLevels retrieves the ec-mcl-description property of a CPC and
// converts it into the firmware report, one row per EC stream.
func (s *CPCService) GetFirmwareLevels(ctx context.Context, cpcURI string) ([]FirmwareLevel, error) {
	desc, err := getECMCLDescription(ctx, s.c, cpcURI)
	if err != nil {
		return nil, err
	}
	return FirmwareLevels(*desc), nil
}

func getECMCLDescription(ctx context.Context, c *Client, resourceURI string) (*ECMCLDescription, error) {
	var body struct {
		ECMCLDescription *ECMCLDescription `json:"ec-mcl-description"`
	}
	if err := c.Get(ctx, resourceURI, nil, &body); err != nil {
		return nil, err
	}
	if body.ECMCLDescription == nil {
		return nil, NewParseError("resource has no ec-mcl-description property", nil)
	}
	return body.ECMCLDescription, nil
}
