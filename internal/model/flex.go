package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString is a string that can be unmarshaled from either a JSON string or a JSON number.
// Steam ids show up as both depending on the endpoint.
type FlexString string

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	return fmt.Errorf("FlexString: unexpected type, expected string or number")
}

// String returns the underlying value.
func (f FlexString) String() string {
	return string(f)
}

// FlexFloat is a float64 that tolerates numeric strings and null. Unparseable input decodes to 0,
// which downstream code treats as "no price".
type FlexFloat float64

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}

	return fmt.Errorf("FlexFloat: unexpected type, expected number or string")
}

// Float64 converts FlexFloat back to float64.
func (f FlexFloat) Float64() float64 {
	return float64(f)
}
