package coerce

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ppiankov/entagg/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerce_NullIgnoresType(t *testing.T) {
	c := &Coercer{}

	for _, tag := range []string{"string", "integer", "boolean", "float", ""} {
		v, err := c.Coerce(nil, tag)
		require.NoError(t, err, "tag %q", tag)
		assert.Equal(t, model.Null(), v, "tag %q", tag)
	}
}

func TestCoerce_Integer(t *testing.T) {
	c := &Coercer{}

	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"json number", json.Number("2011"), 2011},
		{"negative json number", json.Number("-7"), -7},
		{"integral float literal", json.Number("32.0"), 32},
		{"float64", float64(47), 47},
		{"int", 43, 43},
		{"numeric string", "22", 22},
		{"padded string", " 42 ", 42},
		{"true", true, 1},
		{"false", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := c.Coerce(tt.value, "integer")
			require.NoError(t, err)
			assert.Equal(t, model.Int(tt.want), v)
		})
	}
}

func TestCoerce_IntegerFailures(t *testing.T) {
	c := &Coercer{}

	for _, value := range []any{"abc", "3.5", json.Number("3.7"), 1.5, []any{1}} {
		_, err := c.Coerce(value, "integer")
		require.Error(t, err, "value %#v", value)
		assert.True(t, errors.Is(err, ErrCoercion), "value %#v", value)

		var ce *CoercionError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, model.TypeInteger, ce.Type)
	}
}

func TestCoerce_BooleanStrict(t *testing.T) {
	c := &Coercer{}

	tests := []struct {
		value any
		want  bool
	}{
		{true, true},
		{false, false},
		{json.Number("0"), false},
		{json.Number("2"), true},
		{float64(0), false},
		{"", false},
		{"true", true},
		{"false", false},
		{"1", true},
		{"0", false},
	}

	for _, tt := range tests {
		v, err := c.Coerce(tt.value, "boolean")
		require.NoError(t, err, "value %#v", tt.value)
		assert.Equal(t, model.Bool(tt.want), v, "value %#v", tt.value)
	}

	_, err := c.Coerce("yes please", "boolean")
	assert.ErrorIs(t, err, ErrCoercion)
}

func TestCoerce_BooleanPermissive(t *testing.T) {
	c := New(model.CoercionConfig{PermissiveBooleans: true})

	tests := []struct {
		value any
		want  bool
	}{
		{"yes please", true},
		{"false", true},
		{"", false},
		{json.Number("0"), false},
		{false, false},
	}

	for _, tt := range tests {
		v, err := c.Coerce(tt.value, "boolean")
		require.NoError(t, err)
		assert.Equal(t, model.Bool(tt.want), v, "value %#v", tt.value)
	}
}

func TestCoerce_String(t *testing.T) {
	c := &Coercer{}

	tests := []struct {
		value any
		want  string
	}{
		{"toyota", "toyota"},
		{json.Number("2011"), "2011"},
		{json.Number("1.50"), "1.50"},
		{float64(2.5), "2.5"},
		{7, "7"},
		{false, "false"},
	}

	for _, tt := range tests {
		v, err := c.Coerce(tt.value, "string")
		require.NoError(t, err)
		assert.Equal(t, model.StringValue(tt.want), v)
	}
}

func TestCoerce_UnknownType(t *testing.T) {
	c := &Coercer{}

	_, err := c.Coerce("x", "float")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.NotErrorIs(t, err, ErrCoercion)

	var ute *UnknownTypeError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "float", ute.Type)
}

func TestCoerce_Idempotent(t *testing.T) {
	c := &Coercer{}

	tests := []struct {
		value model.Value
		tag   string
	}{
		{model.StringValue("green"), "string"},
		{model.Int(2011), "integer"},
		{model.Bool(true), "boolean"},
		{model.Bool(false), "boolean"},
		{model.Null(), "integer"},
	}

	for _, tt := range tests {
		once, err := c.Coerce(tt.value, tt.tag)
		require.NoError(t, err)
		assert.Equal(t, tt.value, once)

		twice, err := c.Coerce(once.Interface(), tt.tag)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestNormalize(t *testing.T) {
	c := &Coercer{}

	rec, err := c.Normalize(model.RawRecord{
		Model: "vehicle",
		Properties: []model.RawProperty{
			{Slug: "make", Type: "string", Value: "toyota"},
			{Slug: "stolen", Type: "boolean", Value: false},
			{Slug: "year", Type: "integer", Value: json.Number("2011")},
			{Slug: "owner", Type: "string", Value: nil},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "vehicle", rec.Model)
	assert.Equal(t, map[string]model.Value{
		"make":   model.StringValue("toyota"),
		"stolen": model.Bool(false),
		"year":   model.Int(2011),
		"owner":  model.Null(),
	}, rec.Properties)
	assert.Equal(t, []string{"make", "stolen", "year", "owner"}, rec.Order)
}

func TestNormalize_LastDuplicateWins(t *testing.T) {
	c := &Coercer{}

	rec, err := c.Normalize(model.RawRecord{
		Model: "person",
		Properties: []model.RawProperty{
			{Slug: "age", Type: "integer", Value: json.Number("30")},
			{Slug: "age", Type: "string", Value: "thirty"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, rec.Properties, 1)
	assert.Equal(t, []string{"age"}, rec.Order)
	assert.Equal(t, model.StringValue("thirty"), rec.Properties["age"])
}

func TestNormalize_ErrorCarriesSlug(t *testing.T) {
	c := &Coercer{}

	_, err := c.Normalize(model.RawRecord{
		Model: "person",
		Properties: []model.RawProperty{
			{Slug: "first_name", Type: "string", Value: "elise"},
			{Slug: "age", Type: "integer", Value: "abc"},
		},
	})
	require.Error(t, err)

	var ce *CoercionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "age", ce.Slug)
	assert.Contains(t, err.Error(), `property "age"`)

	_, err = c.Normalize(model.RawRecord{
		Properties: []model.RawProperty{{Slug: "weight", Type: "float", Value: 1.5}},
	})
	var ute *UnknownTypeError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "weight", ute.Slug)
}
