package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"15m", 15 * time.Minute},
		{"24h", 24 * time.Hour},
		{"1h", time.Hour},
		{"7d", 7 * 24 * time.Hour},
		{"1d", 24 * time.Hour},
	}
	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseDurationRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "sevend", "xd", "7dd"} {
		_, err := ParseDuration(in)
		require.Error(t, err, in)
	}
}

func TestDurDefault(t *testing.T) {
	t.Setenv("TEST_DUR", "30m")
	require.Equal(t, 30*time.Minute, durDefault("TEST_DUR", time.Hour))

	t.Setenv("TEST_DUR", "bogus")
	require.Equal(t, time.Hour, durDefault("TEST_DUR", time.Hour))

	require.Equal(t, time.Hour, durDefault("TEST_DUR_UNSET", time.Hour))
}

func TestCSV(t *testing.T) {
	require.Nil(t, csv(""))
	require.Equal(t, []string{"a:9092", "b:9092"}, csv("a:9092, b:9092"))
}
