package thermostat

import (
	"strconv"
	"time"
)

// StatusTimeLayout formats every instant in the status document.
const StatusTimeLayout = "2006-01-02 15:04:05 -0700"

// Status is the snapshot published after every cycle. Every leaf is a string;
// inactive values are "" rather than null so consumers see a fixed schema.
type Status struct {
	OperatingState OperatingStatus `json:"operating_state"`
	HardwareState  HardwareStatus  `json:"hardware_state"`
	InternalState  InternalStatus  `json:"internal_state"`
}

type OperatingStatus struct {
	OperationMode string              `json:"operation_mode"`
	DailySchedule DailyScheduleStatus `json:"daily_schedule"`
	Immediate     SetpointStatus      `json:"immediate"`
	TempOverride  SetpointStatus      `json:"temp_override"`
	Off           string              `json:"off"`
}

type DailyScheduleStatus struct {
	TimesOfOperation WindowStatus `json:"times_of_operation"`
}

type WindowStatus struct {
	Start string `json:"start"`
	Stop  string `json:"stop"`
	TempF string `json:"temp_f"`
}

type SetpointStatus struct {
	TimeStamp string `json:"time_stamp"`
	TempF     string `json:"temp_f"`
}

type HardwareStatus struct {
	TempF    string `json:"temp_f"`
	HeaterOn string `json:"heater_on"`
}

type InternalStatus struct {
	HeaterName        string       `json:"heater_name"`
	GoalTempF         string       `json:"goal_temp_f"`
	CurrentTime       string       `json:"current_time"`
	HeaterLastOnTime  string       `json:"heater_last_on_time"`
	LastUserInputTime string       `json:"last_user_input_time"`
	SafetyParameters  SafetyStatus `json:"safety_parameters"`
}

type SafetyStatus struct {
	SafeToTurnOn    string `json:"safe_to_turn_on"`
	InHysteresis    string `json:"in_hysteresis"`
	TooHotToOperate string `json:"too_hot_to_operate"`
	OnTooLong       string `json:"on_too_long"`
}

// Status projects the current state. ok is false until the first cycle has run.
func (t *Thermostat) Status() (Status, bool) {
	if !t.processed {
		return Status{}, false
	}
	s := t.state
	d := t.decision
	loc := s.CurrentTime.Location()

	st := Status{
		OperatingState: OperatingStatus{
			OperationMode: string(d.Mode),
			Off:           "off",
		},
		HardwareState: HardwareStatus{
			TempF:    formatTemp(s.CurrentTempF),
			HeaterOn: yesNo(s.HeaterOn),
		},
		InternalState: InternalStatus{
			HeaterName:        t.operating.HeaterName,
			CurrentTime:       formatTime(s.CurrentTime),
			LastUserInputTime: formatTime(s.LastUserInputTime.In(loc)),
			SafetyParameters: SafetyStatus{
				SafeToTurnOn:    yesNo(SafeToTurnOn(s, t.boot)),
				InHysteresis:    yesNo(InHysteresis(s, t.boot.Hysteresis)),
				TooHotToOperate: yesNo(TooHotToOperate(s.CurrentTempF, t.boot.MaxTempF)),
				OnTooLong:       yesNo(HeaterOnTooLong(s, t.boot.MaxHeaterOnTimeMinutes)),
			},
		},
	}
	if s.GoalTempF != nil {
		st.InternalState.GoalTempF = formatTemp(*s.GoalTempF)
	}
	if !s.LastOnTime.IsZero() {
		st.InternalState.HeaterLastOnTime = formatTime(s.LastOnTime)
	}
	if w := d.Window; w != nil {
		st.OperatingState.DailySchedule.TimesOfOperation = WindowStatus{
			Start: formatTime(w.Start),
			Stop:  formatTime(w.Stop),
			TempF: formatTemp(w.TempF),
		}
	}
	if sp := d.Immediate; sp != nil {
		st.OperatingState.Immediate = setpointStatus(sp, loc)
	}
	if sp := d.Override; sp != nil {
		st.OperatingState.TempOverride = setpointStatus(sp, loc)
	}
	return st, true
}

func setpointStatus(sp *ActiveSetpoint, loc *time.Location) SetpointStatus {
	return SetpointStatus{
		TimeStamp: formatTime(sp.TimeStamp.In(loc)),
		TempF:     formatTemp(sp.TempF),
	}
}

func formatTime(t time.Time) string { return t.Format(StatusTimeLayout) }

func formatTemp(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
