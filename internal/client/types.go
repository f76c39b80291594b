// Package client provides the websocket session to the newm panel endpoint.
// Types mirror the backend wire protocol: every frame is a flat JSON object
// with a "kind" discriminator plus kind-specific fields.
package client

// Kind identifies the type of an envelope.
type Kind string

// Client → backend kinds.
const (
	KindRegister       Kind = "register"
	KindAuthRegister   Kind = "auth_register"
	KindLaunchApp      Kind = "launch_app"
	KindAuthChooseUser Kind = "auth_choose_user"
	KindAuthEnterCred  Kind = "auth_enter_cred"
)

// Backend → client kinds.
const (
	KindActivateLauncher Kind = "activate_launcher"
	KindAuthRequestUser  Kind = "auth_request_user"
	KindAuthRequestCred  Kind = "auth_request_cred"
	KindSysBackend       Kind = "sys_backend"
)

// Single round-trip login kinds from the earlier lock screen
// (auth_for_user{user, password} and request_auth_for_user{user}). The
// multi-step choose-user/enter-cred flow replaced them; they are recognised
// only so the drop can be reported as legacy rather than unknown.
const (
	KindAuthForUser        Kind = "auth_for_user"
	KindRequestAuthForUser Kind = "request_auth_for_user"
)

// Envelope is a decoded protocol message. Envelope values double as Bubble Tea
// messages, so widgets type-switch on the concrete types below.
type Envelope interface {
	Kind() Kind
}

// --- Client → backend ---

// Register joins the general broadcast channel. It is always the first frame
// written on a freshly opened connection.
type Register struct{}

// AuthRegister joins the auth-specific channel.
type AuthRegister struct{}

// LaunchApp asks the backend to spawn a shell command.
type LaunchApp struct {
	App string `json:"app"`
}

// AuthChooseUser selects the account to authenticate as.
type AuthChooseUser struct {
	User string `json:"user"`
}

// AuthEnterCred submits a credential for the selected user.
type AuthEnterCred struct {
	Cred string `json:"cred"`
}

// --- Backend → client ---

// ActivateLauncher drives the launcher fade. Value is typically in [0,1] but
// may overshoot during a gesture.
type ActivateLauncher struct {
	Value float64 `json:"value"`
}

// AuthRequestUser pushes the list of selectable accounts.
type AuthRequestUser struct {
	Users []string `json:"users"`
}

// AuthRequestCred asks for a credential for User, with a prompt message.
type AuthRequestCred struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// Indicator is a system property reported in sys_backend messages.
type Indicator string

const (
	IndicatorNone      Indicator = ""
	IndicatorBacklight Indicator = "backlight"
	IndicatorKbdlight  Indicator = "kbdlight"
	IndicatorVolume    Indicator = "volume"
	IndicatorBattery   Indicator = "battery"
)

// SysBackend reports one indicator as a ratio in [0,1]. Exactly one field is
// expected to be set.
type SysBackend struct {
	Backlight *float64 `json:"backlight,omitempty"`
	Kbdlight  *float64 `json:"kbdlight,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Battery   *float64 `json:"battery,omitempty"`
}

// Reading returns the indicator carried by the message. If more than one field
// is set the first in backlight, kbdlight, volume, battery order wins.
func (s SysBackend) Reading() (Indicator, float64, bool) {
	switch {
	case s.Backlight != nil:
		return IndicatorBacklight, *s.Backlight, true
	case s.Kbdlight != nil:
		return IndicatorKbdlight, *s.Kbdlight, true
	case s.Volume != nil:
		return IndicatorVolume, *s.Volume, true
	case s.Battery != nil:
		return IndicatorBattery, *s.Battery, true
	}
	return IndicatorNone, 0, false
}

// NewSysBackend builds a sys_backend message for a single indicator.
func NewSysBackend(ind Indicator, value float64) SysBackend {
	v := value
	var s SysBackend
	switch ind {
	case IndicatorBacklight:
		s.Backlight = &v
	case IndicatorKbdlight:
		s.Kbdlight = &v
	case IndicatorVolume:
		s.Volume = &v
	case IndicatorBattery:
		s.Battery = &v
	}
	return s
}

func (Register) Kind() Kind         { return KindRegister }
func (AuthRegister) Kind() Kind     { return KindAuthRegister }
func (LaunchApp) Kind() Kind        { return KindLaunchApp }
func (AuthChooseUser) Kind() Kind   { return KindAuthChooseUser }
func (AuthEnterCred) Kind() Kind    { return KindAuthEnterCred }
func (ActivateLauncher) Kind() Kind { return KindActivateLauncher }
func (AuthRequestUser) Kind() Kind  { return KindAuthRequestUser }
func (AuthRequestCred) Kind() Kind  { return KindAuthRequestCred }
func (SysBackend) Kind() Kind       { return KindSysBackend }
