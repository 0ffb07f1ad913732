package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYears(t *testing.T) {
	years, err := parseYears("2022, 2023,2024")
	require.NoError(t, err)
	assert.Equal(t, []int{2022, 2023, 2024}, years)
}

func TestParseYearsRejectsGarbage(t *testing.T) {
	_, err := parseYears("2022,abc")
	assert.Error(t, err)

	_, err = parseYears("")
	assert.Error(t, err)
}
