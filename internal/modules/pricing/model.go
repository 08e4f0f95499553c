// README: Pricing rate tiers, ancillary service definitions, and parsed surcharge conditions.
package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"charter/internal/types"
)

// ConditionKind tags the condition attached to an ancillary service.
type ConditionKind string

const (
	ConditionTimeWindow      ConditionKind = "time_window"
	ConditionAdditionalStops ConditionKind = "additional_stops"
)

// TimeOfDay is minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return TimeOfDay(hour*60 + minute), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// TimeWindow is an inclusive daily window, possibly crossing midnight.
type TimeWindow struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Contains reports window membership. A window whose start is after its end
// wraps around midnight.
func (w TimeWindow) Contains(t TimeOfDay) bool {
	if w.Start <= w.End {
		return t >= w.Start && t <= w.End
	}
	return t >= w.Start || t <= w.End
}

// DefaultMidnightWindow is the fallback applied when an ancillary service has
// no usable window configuration.
var DefaultMidnightWindow = TimeWindow{Start: 23 * 60, End: 6*60 + 59}

// StopThreshold activates a stop-count surcharge once the number of extra
// stops reaches TriggerCount.
type StopThreshold struct {
	TriggerCount int `json:"trigger_count"`
}

// Condition is the surcharge condition parsed once at snapshot load, replacing
// repeated JSON parsing at every recompute.
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Window    TimeWindow    `json:"window,omitempty"`
	Threshold StopThreshold `json:"threshold,omitempty"`
}

// ParseCondition parses the raw condition_config payload for the given kind.
// The returned Condition always carries usable values: on a parse failure it
// holds the documented fallback (default midnight window, trigger count 0) and
// the error reports what was wrong with the payload.
func ParseCondition(kind ConditionKind, raw string) (Condition, error) {
	c := Condition{Kind: kind}
	switch kind {
	case ConditionTimeWindow:
		c.Window = DefaultMidnightWindow
		var payload struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		}
		if strings.TrimSpace(raw) == "" {
			return c, fmt.Errorf("empty condition_config")
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return c, fmt.Errorf("condition_config: %w", err)
		}
		start, err := ParseTimeOfDay(payload.StartTime)
		if err != nil {
			return c, fmt.Errorf("condition_config start_time: %w", err)
		}
		end, err := ParseTimeOfDay(payload.EndTime)
		if err != nil {
			return c, fmt.Errorf("condition_config end_time: %w", err)
		}
		c.Window = TimeWindow{Start: start, End: end}
		return c, nil
	case ConditionAdditionalStops:
		var payload struct {
			TriggerCount int `json:"trigger_count"`
		}
		if strings.TrimSpace(raw) == "" {
			return c, fmt.Errorf("empty condition_config")
		}
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return c, fmt.Errorf("condition_config: %w", err)
		}
		if payload.TriggerCount < 0 {
			return c, fmt.Errorf("condition_config trigger_count %d is negative", payload.TriggerCount)
		}
		c.Threshold.TriggerCount = payload.TriggerCount
		return c, nil
	default:
		return c, fmt.Errorf("unknown condition_type %q", kind)
	}
}

// CustomerRate is a customer-specific price override, the highest pricing tier.
type CustomerRate struct {
	CustomerID    types.ID
	ServiceName   string
	VehicleTypeID types.ID
	Price         types.Money
}

// MatrixRate is a default-matrix entry keyed by service and vehicle type.
type MatrixRate struct {
	ServiceID     types.ID
	VehicleTypeID types.ID
	Price         types.Money
}

// AncillaryService is a conditional surcharge definition such as midnight
// pricing or additional stops.
type AncillaryService struct {
	ID            types.ID
	Name          string
	Condition     Condition
	PerOccurrence bool
}

// ContractorRate is a contractor matrix entry used to resolve job cost.
type ContractorRate struct {
	ServiceID     types.ID
	VehicleTypeID types.ID
	Cost          types.Money
}
