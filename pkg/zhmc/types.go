package zhmc

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Properties is the generic property map of an HMC resource. Property names
// are the hyphenated names from the HMC API book (e.g. "se-version").
type Properties map[string]any

// Timestamp is an HMC timestamp: milliseconds since the epoch, UTC.
type Timestamp int64

// Time converts the HMC timestamp to a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// TimestampOf converts a time.Time to an HMC timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// UnmarshalJSON accepts both the documented numeric form and the string
// form that some HMC versions emit.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Timestamp(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid HMC timestamp: %s", data)
	}
	var sn int64
	if _, err := fmt.Sscanf(s, "%d", &sn); err != nil {
		return fmt.Errorf("invalid HMC timestamp: %q", s)
	}
	*t = Timestamp(sn)
	return nil
}

// CPCStatus represents the operational status of a CPC.
type CPCStatus string

const (
	CPCStatusActive           CPCStatus = "active"
	CPCStatusOperating        CPCStatus = "operating"
	CPCStatusDegraded         CPCStatus = "degraded"
	CPCStatusNotOperating     CPCStatus = "not-operating"
	CPCStatusNoPower          CPCStatus = "no-power"
	CPCStatusNotCommunicating CPCStatus = "not-communicating"
	CPCStatusServiceRequired  CPCStatus = "service-required"
	CPCStatusExceptions       CPCStatus = "exceptions"
)

// CPC holds the summary properties returned by the List CPC Objects
// operation. Full properties are retrieved with CPCService.GetProperties.
type CPC struct {
	ObjectURI  string    `json:"object-uri"`
	Name       string    `json:"name"`
	Status     CPCStatus `json:"status"`
	SEVersion  string    `json:"se-version,omitempty"`
	DPMEnabled bool      `json:"dpm-enabled,omitempty"`
}

// Partition holds the summary properties of a DPM partition.
type Partition struct {
	ObjectURI string `json:"object-uri"`
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Adapter holds the summary properties of an adapter of a CPC in DPM mode.
type Adapter struct {
	ObjectURI     string `json:"object-uri"`
	Name          string `json:"name"`
	AdapterID     string `json:"adapter-id,omitempty"`
	AdapterFamily string `json:"adapter-family,omitempty"`
	Type          string `json:"type,omitempty"`
	Status        string `json:"status,omitempty"`
}

// PowerSaving is the argument of the Set CPC Power Save operation.
type PowerSaving string

const (
	PowerSavingHighPerformance PowerSaving = "high-performance"
	PowerSavingLowPower        PowerSaving = "low-power"
	PowerSavingCustom          PowerSaving = "custom"
)

// PowerCappingState is the argument of the Set CPC Power Capping operation.
type PowerCappingState string

const (
	PowerCappingDisabled PowerCappingState = "disabled"
	PowerCappingEnabled  PowerCappingState = "enabled"
	PowerCappingCustom   PowerCappingState = "custom"
)

// AutoStartEntry is one entry of the auto-start list of a CPC in DPM mode.
// It is either a partition (PartitionURI set) or a partition group (Name and
// PartitionURIs set). A partition group exists only in the context of the
// auto-start list and is unrelated to Group objects.
type AutoStartEntry struct {
	Type           string   `json:"type"` // "partition" or "partition-group"
	PostStartDelay int      `json:"post-start-delay"`
	PartitionURI   string   `json:"partition-uri,omitempty"`
	Name           string   `json:"name,omitempty"`
	Description    string   `json:"description,omitempty"`
	PartitionURIs  []string `json:"partition-uris,omitempty"`
}

const (
	AutoStartTypePartition      = "partition"
	AutoStartTypePartitionGroup = "partition-group"
)

// HardwareMessage holds the summary properties of a hardware message of a
// CPC or of the console.
type HardwareMessage struct {
	ElementURI       string    `json:"element-uri"`
	ElementID        string    `json:"element-id"`
	Text             string    `json:"text"`
	Timestamp        Timestamp `json:"timestamp"`
	ServiceSupported bool      `json:"service-supported"`
}

// ECLevel identifies one MCL level within an EC stream, e.g. P30719.015.
type ECLevel struct {
	Number string `json:"number"` // EC number of the EC stream
	MCL    string `json:"mcl"`    // MCL number within the EC stream
}

func (l ECLevel) String() string {
	return l.Number + "." + l.MCL
}

// ECMCLDescription is the 'ec-mcl-description' property of a CPC or the
// console, as described in the HMC API book.
type ECMCLDescription struct {
	BundleLevel string     `json:"bundle-level,omitempty"`
	EC          []ECStream `json:"ec"`
}

// ECStream is one EC stream with its per-state MCL levels.
type ECStream struct {
	Number      string     `json:"number"`
	Description string     `json:"description"`
	MCL         []MCLLevel `json:"mcl"`
}

// MCLLevel is the latest MCL level of an EC stream for one installation
// state (retrieved, activated, accepted, installable-concurrent,
// removable-concurrent).
type MCLLevel struct {
	Level string `json:"level"`
	Type  string `json:"type"`
}

// FirmwareLevel is one row of the firmware report derived from an
// ECMCLDescription, with the latest MCL level per installation state.
type FirmwareLevel struct {
	ECNumber        string
	Description     string
	Retrieved       string
	InstallableConc string
	Activated       string
	Accepted        string
	RemovableConc   string
}

const (
	// mclLevelNone marks MCL levels '0'/'000' which mean "no such level".
	mclLevelNone = "-"
	// mclLevelMissing marks installation states absent from the data.
	mclLevelMissing = "n/a"
)

// FirmwareLevels converts an ec-mcl-description into the firmware report,
// one row per EC stream. Levels '0' and '000' are rendered as '-'; an
// installation state without data is rendered as 'n/a'.
func FirmwareLevels(desc ECMCLDescription) []FirmwareLevel {
	levels := make([]FirmwareLevel, 0, len(desc.EC))
	for _, ec := range desc.EC {
		fl := FirmwareLevel{
			ECNumber:        ec.Number,
			Description:     ec.Description,
			Retrieved:       mclLevelMissing,
			InstallableConc: mclLevelMissing,
			Activated:       mclLevelMissing,
			Accepted:        mclLevelMissing,
			RemovableConc:   mclLevelMissing,
		}
		for _, mcl := range ec.MCL {
			level := mcl.Level
			if level == "0" || level == "000" {
				level = mclLevelNone
			}
			switch mcl.Type {
			case "retrieved":
				fl.Retrieved = level
			case "installable-concurrent":
				fl.InstallableConc = level
			case "activated":
				fl.Activated = level
			case "accepted":
				fl.Accepted = level
			case "removable-concurrent":
				fl.RemovableConc = level
			}
		}
		levels = append(levels, fl)
	}
	return levels
}

// SortedKeys returns the property names in sorted order, for stable output.
func (p Properties) SortedKeys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
