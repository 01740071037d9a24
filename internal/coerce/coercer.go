// Package coerce turns raw property values into typed scalars and raw
// records into normalized records.
package coerce

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/entagg/internal/model"
)

var errNotIntegral = errors.New("not an integral number")

// Coercer converts raw values to the scalar type declared for them
type Coercer struct {
	// PermissiveBooleans makes any non-empty string coerce to true for
	// boolean properties. When false, strings must parse with strconv.ParseBool
	// (the empty string is false).
	PermissiveBooleans bool
}

// New creates a Coercer from the coercion settings
func New(cfg model.CoercionConfig) *Coercer {
	return &Coercer{PermissiveBooleans: cfg.PermissiveBooleans}
}

// Coerce converts value to the type named by tag.
// A nil value yields null without looking at tag.
func (c *Coercer) Coerce(value any, tag string) (model.Value, error) {
	return c.coerce("", value, tag)
}

// Normalize coerces every property of rec. Later duplicates of a slug
// overwrite earlier ones.
func (c *Coercer) Normalize(rec model.RawRecord) (model.Record, error) {
	props := make(map[string]model.Value, len(rec.Properties))
	order := make([]string, 0, len(rec.Properties))
	for _, p := range rec.Properties {
		v, err := c.coerce(p.Slug, p.Value, p.Type)
		if err != nil {
			return model.Record{}, err
		}
		if _, dup := props[p.Slug]; !dup {
			order = append(order, p.Slug)
		}
		props[p.Slug] = v
	}
	return model.Record{Model: rec.Model, Properties: props, Order: order}, nil
}

func (c *Coercer) coerce(slug string, value any, tag string) (model.Value, error) {
	if mv, ok := value.(model.Value); ok {
		value = mv.Interface()
	}
	if value == nil {
		return model.Null(), nil
	}

	typ, ok := model.ParsePropertyType(tag)
	if !ok {
		return model.Value{}, &UnknownTypeError{Slug: slug, Type: tag}
	}

	var (
		v   model.Value
		err error
	)
	switch typ {
	case model.TypeInteger:
		v, err = toInteger(value)
	case model.TypeBoolean:
		v, err = c.toBoolean(value)
	case model.TypeString:
		v, err = toString(value)
	default:
		return model.Value{}, &UnknownTypeError{Slug: slug, Type: tag}
	}
	if err != nil {
		return model.Value{}, &CoercionError{Slug: slug, Type: typ, Value: value, Err: err}
	}
	return v, nil
}

func toInteger(value any) (model.Value, error) {
	switch x := value.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(x.String(), 10, 64); err == nil {
			return model.Int(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return model.Value{}, err
		}
		return integralFloat(f)
	case float64:
		return integralFloat(x)
	case int:
		return model.Int(int64(x)), nil
	case int64:
		return model.Int(x), nil
	case bool:
		if x {
			return model.Int(1), nil
		}
		return model.Int(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return model.Value{}, err
		}
		return model.Int(n), nil
	default:
		return model.Value{}, errors.New("unsupported raw value")
	}
}

func integralFloat(f float64) (model.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f < math.MinInt64 || f >= math.MaxInt64 {
		return model.Value{}, errNotIntegral
	}
	return model.Int(int64(f)), nil
}

func (c *Coercer) toBoolean(value any) (model.Value, error) {
	switch x := value.(type) {
	case bool:
		return model.Bool(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return model.Value{}, err
		}
		return model.Bool(f != 0), nil
	case float64:
		return model.Bool(x != 0), nil
	case int:
		return model.Bool(x != 0), nil
	case int64:
		return model.Bool(x != 0), nil
	case string:
		if x == "" {
			return model.Bool(false), nil
		}
		if c.PermissiveBooleans {
			return model.Bool(true), nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return model.Value{}, err
		}
		return model.Bool(b), nil
	default:
		return model.Value{}, errors.New("unsupported raw value")
	}
}

func toString(value any) (model.Value, error) {
	switch x := value.(type) {
	case string:
		return model.StringValue(x), nil
	case json.Number:
		return model.StringValue(x.String()), nil
	case float64:
		return model.StringValue(strconv.FormatFloat(x, 'f', -1, 64)), nil
	case int:
		return model.StringValue(strconv.Itoa(x)), nil
	case int64:
		return model.StringValue(strconv.FormatInt(x, 10)), nil
	case bool:
		return model.StringValue(strconv.FormatBool(x)), nil
	default:
		return model.Value{}, errors.New("unsupported raw value")
	}
}
