package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zhmcclient/zhmc-go/pkg/zhmc"
)

// parseECLevels parses the value of an --ec-levels option: a list in YAML
// flow collection style whose items are strings of the form 'EC.MCL', e.g.
// "[P30719.015, P30730.007]".
func parseECLevels(optionName, value string) ([]zhmc.ECLevel, error) {
	var items []string
	if err := yaml.Unmarshal([]byte(value), &items); err != nil {
		return nil, fmt.Errorf("error parsing value of option %s: value must be a list of strings: %q", optionName, value)
	}
	levels := make([]zhmc.ECLevel, 0, len(items))
	for _, item := range items {
		parts := strings.Split(item, ".")
		if len(parts) != 2 {
			return nil, fmt.Errorf("error parsing value of option %s: invalid EC level format %q - must be EC.MCL", optionName, item)
		}
		levels = append(levels, zhmc.ECLevel{Number: parts[0], MCL: parts[1]})
	}
	return levels, nil
}

// parseFilter parses a --filter option value: a comma-separated list of
// PROP=VALUE items. A value may be enclosed in single or double quotes,
// but then must not contain commas.
func parseFilter(value string) (map[string]string, error) {
	filters := map[string]string{}
	for _, pair := range strings.Split(value, ",") {
		prop, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid PROP=VALUE syntax in %q", pair)
		}
		if len(val) > 0 && (val[0] == '"' || val[0] == '\'') {
			val = strings.Trim(val, string(val[0]))
		}
		filters[prop] = val
	}
	return filters, nil
}

// timestampLayouts are the accepted date/time string formats, tried in
// order. Times without a zone are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimestamp parses a timestamp option value, which is either an
// integer HMC timestamp (milliseconds since the epoch) or a date/time
// string.
func parseTimestamp(value string) (zhmc.Timestamp, error) {
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return zhmc.Timestamp(ms), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return zhmc.TimestampOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid timestamp %q", value)
}

// updateProperties maps the options of 'zhmc cpc update' to HMC properties.
// The HMC models the processor time slice as a pair of properties, and the
// acceptable status list as an array.
type updateOptions struct {
	description           *string
	acceptableStatus      *string
	nextActivationProfile *string
	processorTimeSlice    *int
	waitEndsSlice         *bool
}

func (o updateOptions) properties() (zhmc.Properties, error) {
	props := zhmc.Properties{}
	if o.description != nil {
		props["description"] = *o.description
	}
	if o.nextActivationProfile != nil {
		props["next-activation-profile-name"] = *o.nextActivationProfile
	}
	if o.processorTimeSlice != nil {
		slice := *o.processorTimeSlice
		switch {
		case slice < 0:
			return nil, fmt.Errorf("value for processor-time-slice option must be >= 0")
		case slice == 0:
			props["processor-running-time-type"] = "system-determined"
		default:
			props["processor-running-time-type"] = "user-determined"
			props["processor-running-time"] = slice
		}
	}
	if o.waitEndsSlice != nil {
		props["does-wait-state-end-time-slice"] = *o.waitEndsSlice
	}
	if o.acceptableStatus != nil {
		statuses := []string{}
		for _, item := range strings.Split(*o.acceptableStatus, ",") {
			if item != "" {
				statuses = append(statuses, item)
			}
		}
		props["acceptable-status"] = statuses
	}
	return props, nil
}

// withTimeout derives a context with the given timeout in seconds. A zero
// or negative timeout means no limit.
func withTimeout(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}

// confirm asks a yes/no question on the terminal and returns the answer.
func confirm(message string) bool {
	fmt.Printf("%s [y/N]: ", message)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
