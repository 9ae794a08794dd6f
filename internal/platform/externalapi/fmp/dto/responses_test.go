package dto

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2023-12-31", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"2023-12-31 00:00:00", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{" 2004-07-01 ", time.Date(2004, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"31/12/2023", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.True(t, tt.want.Equal(got), tt.in)
	}
}

func TestQuote_NullAndScientificFields(t *testing.T) {
	t.Parallel()

	var q []Quote
	require.NoError(t, json.Unmarshal([]byte(`[{"symbol":"1155.KL","price":9.6,"volume":1.2345e6,"pe":null}]`), &q))

	require.Len(t, q, 1)
	require.NotNil(t, q[0].Volume)
	assert.Equal(t, 1234500.0, *q[0].Volume)
	assert.Nil(t, q[0].PE)
	assert.Nil(t, q[0].EPS, "absent field stays nil")
}

func TestQuote_Shares(t *testing.T) {
	t.Parallel()

	v := func(f float64) *float64 { return &f }
	assert.Nil(t, Quote{}.Shares())
	assert.Nil(t, Quote{Volume: v(-1)}.Shares())
	assert.Equal(t, int64(300), *Quote{Volume: v(299.6)}.Shares())
	assert.Equal(t, int64(1234500), *Quote{Volume: v(1.2345e6)}.Shares())

	// 範囲外やNaN/Infは負数に化けず不明扱い
	assert.Nil(t, Quote{Volume: v(math.NaN())}.Shares())
	assert.Nil(t, Quote{Volume: v(math.Inf(1))}.Shares())
	assert.Nil(t, Quote{Volume: v(float64(math.MaxInt64))}.Shares())
	assert.Nil(t, Quote{Volume: v(1e30)}.Shares())
	assert.Equal(t, int64(1)<<62, *Quote{Volume: v(float64(int64(1) << 62))}.Shares())
}
