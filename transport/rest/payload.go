package rest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// canonicalJSON renders a payload the way it is stored: compact, object keys
// sorted, numbers in their shortest canonical form. A missing payload is
// stored as null.
func canonicalJSON(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	v, err := canonicalValue(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// canonicalValue rewrites every number in v. Maps are sorted by the encoder.
func canonicalValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			c, err := canonicalValue(e)
			if err != nil {
				return nil, err
			}
			t[k] = c
		}
	case []any:
		for i, e := range t {
			c, err := canonicalValue(e)
			if err != nil {
				return nil, err
			}
			t[i] = c
		}
	case json.Number:
		return canonicalNumber(t)
	}
	return v, nil
}

// canonicalNumber keeps integers that fit 64 bits as integers. Everything
// else becomes a float64: integral values keep a ".0", very large and very
// small magnitudes use an exponent.
func canonicalNumber(n json.Number) (json.Number, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return json.Number(strconv.FormatInt(i, 10)), nil
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return json.Number(strconv.FormatUint(u, 10)), nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", err
	}
	return json.Number(formatFloat(f)), nil
}

func formatFloat(f float64) string {
	sign := ""
	if math.Signbit(f) {
		sign = "-"
		f = -f
	}
	if f == 0 {
		return sign + "0.0"
	}

	// Shortest round-trip digits and the decimal exponent of the first one.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	point := e + 1
	length := len(digits)

	switch {
	case length <= point && point <= 16:
		return sign + digits + strings.Repeat("0", point-length) + ".0"
	case 0 < point && point <= 16:
		return sign + digits[:point] + "." + digits[point:]
	case -5 < point && point <= 0:
		return sign + "0." + strings.Repeat("0", -point) + digits
	case length == 1:
		return sign + digits + "e" + strconv.Itoa(point-1)
	default:
		return sign + digits[:1] + "." + digits[1:] + "e" + strconv.Itoa(point-1)
	}
}
