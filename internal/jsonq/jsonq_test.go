package jsonq

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var value any
	require.NoError(t, json.Unmarshal([]byte(raw), &value))
	return value
}

func TestFindIsCaseInsensitive(t *testing.T) {
	value := decode(t, `{"Title": "Climate Bill"}`)
	assert.Equal(t, "Climate Bill", Find(value, "title"))
	assert.Nil(t, Find(value, "missing"))
	assert.Nil(t, Find("not an object", "title"))
}

func TestFirstStringAliasesAndNesting(t *testing.T) {
	value := decode(t, `{"date": {"_value": "2024-03-01"}, "Title": "  Division  "}`)
	assert.Equal(t, "Division", FirstString(value, "title"))
	assert.Equal(t, "2024-03-01", FirstString(value, "when", "date"))
	assert.Equal(t, "", FirstString(value, "nope"))
}

func TestFirstStringRendersNumbers(t *testing.T) {
	value := decode(t, `{"year": 2020, "ratio": 0.5, "nested": {"_value": 1987}}`)
	assert.Equal(t, "2020", FirstString(value, "year"))
	assert.Equal(t, "0.5", FirstString(value, "ratio"))
	assert.Equal(t, "1987", FirstString(value, "nested"))
}

func TestFirstIntAcceptsNumbersAndStrings(t *testing.T) {
	value := decode(t, `{"seats": "121", "ayes": 305}`)
	got, ok := FirstInt(value, "ayes")
	require.True(t, ok)
	assert.Equal(t, int64(305), got)

	got, ok = FirstInt(value, "Seats")
	require.True(t, ok)
	assert.Equal(t, int64(121), got)

	_, ok = FirstInt(value, "noes")
	assert.False(t, ok)
}

func TestArraySkipsEmptyCandidates(t *testing.T) {
	value := decode(t, `{"items": [], "results": [{"title": "x"}]}`)
	got := Array(value, "items", "results")
	require.Len(t, got, 1)
}
