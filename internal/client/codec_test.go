package client

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	envs := []Envelope{
		Register{},
		AuthRegister{},
		LaunchApp{App: "MOZ_ENABLE_WAYLAND=1 firefox"},
		AuthChooseUser{User: "jonas"},
		AuthEnterCred{Cred: "hunter2"},
		ActivateLauncher{Value: 0.75},
		AuthRequestUser{Users: []string{"jonas", "root"}},
		AuthRequestCred{User: "jonas", Message: "Password?"},
		NewSysBackend(IndicatorVolume, 0.4),
	}

	for _, e := range envs {
		t.Run(string(e.Kind()), func(t *testing.T) {
			data, err := Encode(e)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode(%s): %v", data, err)
			}
			if !reflect.DeepEqual(got, e) {
				t.Errorf("round trip = %#v, want %#v", got, e)
			}
		})
	}
}

func TestEncodeWireShape(t *testing.T) {
	tests := []struct {
		env  Envelope
		want map[string]any
	}{
		{Register{}, map[string]any{"kind": "register"}},
		{AuthRegister{}, map[string]any{"kind": "auth_register"}},
		{LaunchApp{App: "alacritty"}, map[string]any{"kind": "launch_app", "app": "alacritty"}},
		{AuthChooseUser{User: "root"}, map[string]any{"kind": "auth_choose_user", "user": "root"}},
		{AuthEnterCred{Cred: ""}, map[string]any{"kind": "auth_enter_cred", "cred": ""}},
		{NewSysBackend(IndicatorBattery, 0.1), map[string]any{"kind": "sys_backend", "battery": 0.1}},
	}

	for _, tt := range tests {
		data, err := Encode(tt.env)
		if err != nil {
			t.Fatalf("Encode(%T): %v", tt.env, err)
		}
		var got map[string]any
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Encode(%T) produced invalid JSON %s: %v", tt.env, data, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Encode(%T) = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr error
	}{
		{"missing kind", `{"value": 1}`, ErrMissingKind},
		{"empty kind", `{"kind": ""}`, ErrMissingKind},
		{"unknown kind", `{"kind": "keyPressed"}`, ErrUnknownKind},
		{"legacy prompt", `{"kind": "request_auth_for_user", "user": "jonas"}`, ErrLegacyKind},
		{"legacy submit", `{"kind": "auth_for_user", "user": "jonas", "password": "x"}`, ErrLegacyKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode(%s) error = %v, want %v", tt.frame, err, tt.wantErr)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, frame := range []string{"Hello", `{"kind": 5}`, `[1,2]`, `{"kind":"activate_launcher","value":"x"}`} {
		if _, err := Decode([]byte(frame)); err == nil {
			t.Errorf("Decode(%q) should fail", frame)
		}
	}
}

func TestDecodeIgnoresExtraFields(t *testing.T) {
	e, err := Decode([]byte(`{"kind":"activate_launcher","value":0.5,"extra":true}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got, ok := e.(ActivateLauncher); !ok || got.Value != 0.5 {
		t.Errorf("Decode = %#v, want ActivateLauncher{0.5}", e)
	}
}

func TestSysBackendReadingPriority(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		msg     SysBackend
		wantInd Indicator
		wantVal float64
		wantOK  bool
	}{
		{"empty", SysBackend{}, IndicatorNone, 0, false},
		{"battery only", SysBackend{Battery: f(0.12)}, IndicatorBattery, 0.12, true},
		{"volume beats battery", SysBackend{Volume: f(0.3), Battery: f(0.1)}, IndicatorVolume, 0.3, true},
		{"kbdlight beats volume", SysBackend{Kbdlight: f(0.6), Volume: f(0.3)}, IndicatorKbdlight, 0.6, true},
		{"backlight beats all", SysBackend{Backlight: f(0.9), Kbdlight: f(0.6), Volume: f(0.3), Battery: f(0.1)}, IndicatorBacklight, 0.9, true},
		{"zero is present", SysBackend{Volume: f(0)}, IndicatorVolume, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind, val, ok := tt.msg.Reading()
			if ind != tt.wantInd || val != tt.wantVal || ok != tt.wantOK {
				t.Errorf("Reading() = (%q, %v, %v), want (%q, %v, %v)", ind, val, ok, tt.wantInd, tt.wantVal, tt.wantOK)
			}
		})
	}
}

func TestDecodeSysBackendFromBackend(t *testing.T) {
	e, err := Decode([]byte(`{"kind": "sys_backend", "kbdlight": 0.25}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ind, val, ok := e.(SysBackend).Reading()
	if !ok || ind != IndicatorKbdlight || val != 0.25 {
		t.Errorf("Reading() = (%q, %v, %v)", ind, val, ok)
	}
}
