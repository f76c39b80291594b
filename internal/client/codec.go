package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingKind is returned for frames without a "kind" string.
	ErrMissingKind = errors.New("missing kind")
	// ErrUnknownKind is returned for frames whose kind is not part of the protocol.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrLegacyKind is returned for kinds of the retired single-step login.
	ErrLegacyKind = errors.New("legacy kind")
)

var decoders = map[Kind]func([]byte) (Envelope, error){
	KindRegister:         decodeAs[Register],
	KindAuthRegister:     decodeAs[AuthRegister],
	KindLaunchApp:        decodeAs[LaunchApp],
	KindAuthChooseUser:   decodeAs[AuthChooseUser],
	KindAuthEnterCred:    decodeAs[AuthEnterCred],
	KindActivateLauncher: decodeAs[ActivateLauncher],
	KindAuthRequestUser:  decodeAs[AuthRequestUser],
	KindAuthRequestCred:  decodeAs[AuthRequestCred],
	KindSysBackend:       decodeAs[SysBackend],
}

func decodeAs[T Envelope](data []byte) (Envelope, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Encode serialises an envelope as a flat JSON object with the kind first.
func Encode(e Envelope) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.Kind(), err)
	}
	kind, err := json.Marshal(e.Kind())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"kind":`)
	buf.Write(kind)
	// body is always an object; splice its fields after the kind.
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses one frame into its concrete envelope type.
func Decode(data []byte) (Envelope, error) {
	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}
	if head.Kind == "" {
		return nil, ErrMissingKind
	}
	switch head.Kind {
	case KindAuthForUser, KindRequestAuthForUser:
		return nil, fmt.Errorf("%w: %s", ErrLegacyKind, head.Kind)
	}

	decode, ok := decoders[head.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, head.Kind)
	}
	e, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", head.Kind, err)
	}
	return e, nil
}
