package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Substitution(t *testing.T) {
	params := map[string]string{"month": "03", "year": "2024", "wilaya": "Adrar"}

	got, err := Render("SELECT * FROM p WHERE m = '{month}' AND y = '{year}'", params)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM p WHERE m = '03' AND y = '2024'", got)
}

func TestRender_RepeatedPlaceholder(t *testing.T) {
	got, err := Render("{wilaya} et encore {wilaya}", map[string]string{"wilaya": "Adrar"})
	require.NoError(t, err)
	assert.Equal(t, "Adrar et encore Adrar", got)
}

func TestRender_EscapedBraces(t *testing.T) {
	got, err := Render("json_extract(data, '$.{{month}}') = '{month}'",
		map[string]string{"month": "03"})
	require.NoError(t, err)
	assert.Equal(t, "json_extract(data, '$.{month}') = '03'", got)
}

func TestRender_OnlyEscapes(t *testing.T) {
	got, err := Render("{{}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
}

func TestRender_MissingParam(t *testing.T) {
	_, err := Render("WHERE m = '{month}'", map[string]string{"year": "2024"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no value for placeholder "month"`)
}

func TestRender_UnclosedBrace(t *testing.T) {
	_, err := Render("WHERE m = '{month", map[string]string{"month": "03"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclosed brace")
}

func TestRender_SingleClosingBrace(t *testing.T) {
	_, err := Render("WHERE m = month}", nil)
	require.Error(t, err)
}

func TestRender_NoPlaceholders(t *testing.T) {
	got, err := Render("SELECT 1", nil)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", got)
}

func TestPlaceholders(t *testing.T) {
	names := Placeholders("m = '{month}' AND y = '{year}' AND m2 = '{month}' AND j = '{{literal}}'")
	assert.Equal(t, []string{"month", "year"}, names)
}

func TestPlaceholders_None(t *testing.T) {
	assert.Empty(t, Placeholders("SELECT 1"))
}
