package regression

import (
	"encoding/json"
	"math"
	"strconv"
)

// jsonFloat encodes NaN and ±Inf as strings, which encoding/json refuses
// to write as numbers. Finite values are plain numbers.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = jsonFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

type dataJSON struct {
	Threshold  jsonFloat `json:"threshold"`
	Difference jsonFloat `json:"difference"`
	Baseline   jsonFloat `json:"baseline"`
	Dev        jsonFloat `json:"dev"`
}

// MarshalJSON implements json.Marshaler.
func (d Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataJSON{
		Threshold:  jsonFloat(d.Threshold),
		Difference: jsonFloat(d.Difference),
		Baseline:   jsonFloat(d.Baseline),
		Dev:        jsonFloat(d.Dev),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Data) UnmarshalJSON(b []byte) error {
	var aux dataJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = Data{
		Threshold:  float64(aux.Threshold),
		Difference: float64(aux.Difference),
		Baseline:   float64(aux.Baseline),
		Dev:        float64(aux.Dev),
	}
	return nil
}
