package ml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMalformedBody = errors.New("request body must be a JSON object")
	ErrMissingField  = errors.New("field is required")
	ErrConversion    = errors.New("invalid value")
)

// FieldError reports which request field failed to decode.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// ParseRequest decodes a /predict body. Numeric fields may be sent as JSON
// numbers or as strings holding a number.
func ParseRequest(body []byte) (PredictionRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return PredictionRequest{}, ErrMalformedBody
	}

	var (
		req PredictionRequest
		err error
	)
	if req.Route, err = stringField(fields, "route"); err != nil {
		return PredictionRequest{}, err
	}
	if req.Weather, err = stringField(fields, "weather"); err != nil {
		return PredictionRequest{}, err
	}
	if req.Passengers, err = intField(fields, "passengers"); err != nil {
		return PredictionRequest{}, err
	}
	if req.Hour, err = intField(fields, "hour"); err != nil {
		return PredictionRequest{}, err
	}
	if req.Day, err = intField(fields, "day"); err != nil {
		return PredictionRequest{}, err
	}
	if req.Latitude, err = floatField(fields, "latitude"); err != nil {
		return PredictionRequest{}, err
	}
	if req.Longitude, err = floatField(fields, "longitude"); err != nil {
		return PredictionRequest{}, err
	}
	return req, nil
}

func lookup(fields map[string]json.RawMessage, name string) (interface{}, error) {
	raw, ok := fields[name]
	if !ok {
		return nil, &FieldError{Field: name, Err: ErrMissingField}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, &FieldError{Field: name, Err: fmt.Errorf("%w: %v", ErrConversion, err)}
	}
	if v == nil {
		return nil, &FieldError{Field: name, Err: ErrMissingField}
	}
	return v, nil
}

func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	v, err := lookup(fields, name)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "True", nil
		}
		return "False", nil
	default:
		return "", &FieldError{Field: name, Err: fmt.Errorf("%w: expected a string", ErrConversion)}
	}
}

func intField(fields map[string]json.RawMessage, name string) (int, error) {
	v, err := lookup(fields, name)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case json.Number:
		if i, err := strconv.Atoi(t.String()); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, &FieldError{Field: name, Err: fmt.Errorf("%w: %q is not an integer", ErrConversion, t.String())}
		}
		f = math.Trunc(f)
		if f > math.MaxInt32 || f < math.MinInt32 {
			return 0, &FieldError{Field: name, Err: fmt.Errorf("%w: %q out of range", ErrConversion, t.String())}
		}
		return int(f), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, &FieldError{Field: name, Err: fmt.Errorf("%w: %q is not an integer", ErrConversion, t)}
		}
		return i, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &FieldError{Field: name, Err: fmt.Errorf("%w: expected an integer", ErrConversion)}
	}
}

func floatField(fields map[string]json.RawMessage, name string) (float64, error) {
	v, err := lookup(fields, name)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) {
			return 0, &FieldError{Field: name, Err: fmt.Errorf("%w: %q is not a finite number", ErrConversion, t.String())}
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, &FieldError{Field: name, Err: fmt.Errorf("%w: %q is not a finite number", ErrConversion, t)}
		}
		return f, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, &FieldError{Field: name, Err: fmt.Errorf("%w: expected a number", ErrConversion)}
	}
}
