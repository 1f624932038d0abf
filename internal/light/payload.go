package light

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Power payloads.
const (
	PayloadOn  = "ON"
	PayloadOff = "OFF"
)

// RGB is a colour triple. Channels are nominally 0..255 but not enforced.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// EncodeBrightness renders a brightness command payload.
func EncodeBrightness(v int) []byte {
	return []byte(strconv.Itoa(v))
}

// DecodeBrightness parses a base-10 integer brightness payload.
// Surrounding whitespace is ignored.
func DecodeBrightness(payload []byte) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		return 0, &DecodeError{Kind: "brightness", Payload: string(payload), Err: err}
	}
	return v, nil
}

// EncodeRGB renders a colour command payload as {"r":R,"g":G,"b":B}.
func EncodeRGB(c RGB) ([]byte, error) {
	return json.Marshal(c)
}

// rgbWire detects missing keys, which a plain RGB would decode as zero.
type rgbWire struct {
	R *int `json:"r"`
	G *int `json:"g"`
	B *int `json:"b"`
}

// DecodeRGB parses a JSON colour payload. All of r, g and b must be present
// and integral; unknown keys are ignored.
func DecodeRGB(payload []byte) (RGB, error) {
	var w rgbWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return RGB{}, &DecodeError{Kind: "rgb", Payload: string(payload), Err: err}
	}

	var missing []string
	if w.R == nil {
		missing = append(missing, "r")
	}
	if w.G == nil {
		missing = append(missing, "g")
	}
	if w.B == nil {
		missing = append(missing, "b")
	}
	if len(missing) > 0 {
		return RGB{}, &DecodeError{
			Kind:    "rgb",
			Payload: string(payload),
			Err:     errors.New("missing keys: " + strings.Join(missing, ", ")),
		}
	}

	return RGB{R: *w.R, G: *w.G, B: *w.B}, nil
}
