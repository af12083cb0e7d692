package connector

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestParser() *Parser {
	return NewParser(zerolog.Nop())
}

func TestParseSingleLine(t *testing.T) {
	events := newTestParser().Parse([]byte("4,2026-01-02 09:30:00,0,ZK123456\r\n"))

	assert.Len(t, events, 1)
	assert.Equal(t, 4, events[0].DeviceUserID)
	assert.Equal(t, CheckIn, events[0].Kind)
	assert.Equal(t, "ZK123456", events[0].DeviceSerial)
	assert.Equal(t, mustTime("2026-01-02 09:30:00"), events[0].Time)
}

func TestParseLineBatches(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{
			name:    "malformed user id dropped, sibling kept",
			payload: "4,2026-01-02 09:30:00,0,ZK123456\nabc,2026-01-02 09:31:00,0,ZK123456\n",
			want:    1,
		},
		{
			name:    "unparseable timestamp dropped",
			payload: "4,not-a-time,0\n7,2026-01-02 10:00:00,1\n",
			want:    1,
		},
		{
			name:    "too few fields dropped",
			payload: "4,2026-01-02\n",
			want:    0,
		},
		{
			name:    "non-numeric kind dropped",
			payload: "4,2026-01-02 09:30:00,in\n",
			want:    0,
		},
		{
			name:    "blank lines ignored",
			payload: "\n\n4,2026-01-02 09:30:00,0\n\n",
			want:    1,
		},
		{
			name:    "serial optional",
			payload: "4,2026-01-02 09:30:00,0\n",
			want:    1,
		},
		{
			name:    "empty payload",
			payload: "   ",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := newTestParser().Parse([]byte(tt.payload))
			assert.Len(t, events, tt.want)
		})
	}
}

func TestParseKindCodes(t *testing.T) {
	// 0 is check-in; every other integer collapses to check-out.
	tests := []struct {
		code string
		want CheckKind
	}{
		{code: "0", want: CheckIn},
		{code: "1", want: CheckOut},
		{code: "4", want: CheckOut},
		{code: "255", want: CheckOut},
	}

	for _, tt := range tests {
		events := newTestParser().Parse([]byte("4,2026-01-02 09:30:00," + tt.code))
		assert.Len(t, events, 1)
		assert.Equal(t, tt.want, events[0].Kind)
	}
}

func TestParseISOTimestamps(t *testing.T) {
	events := newTestParser().Parse([]byte("4,2026-01-02T09:30:00,0\n"))
	assert.Len(t, events, 1)
	assert.Equal(t, mustTime("2026-01-02 09:30:00"), events[0].Time)
}

func TestParseJSONArray(t *testing.T) {
	payload := `[
		{"userId": 4, "checkTime": "2026-01-02 09:30:00", "checkType": 0, "deviceSerial": "ZK123456"},
		{"user_id": "7", "check_time": "2026-01-02T10:00:00", "inout": 1},
		{"uid": 9, "time": "2026-01-02 10:05:00", "type": "0"}
	]`

	events := newTestParser().Parse([]byte(payload))

	assert.Len(t, events, 3)
	assert.Equal(t, 4, events[0].DeviceUserID)
	assert.Equal(t, CheckIn, events[0].Kind)
	assert.Equal(t, "ZK123456", events[0].DeviceSerial)
	assert.Equal(t, 7, events[1].DeviceUserID)
	assert.Equal(t, CheckOut, events[1].Kind)
	assert.Equal(t, 9, events[2].DeviceUserID)
	assert.Equal(t, CheckIn, events[2].Kind)
}

func TestParseJSONWithSurroundingNoise(t *testing.T) {
	payload := "DATA:[{\"userId\": 4, \"checkTime\": \"2026-01-02 09:30:00\", \"checkType\": 0}]END"

	events := newTestParser().Parse([]byte(payload))
	assert.Len(t, events, 1)
}

func TestParseJSONSkipsBadItems(t *testing.T) {
	payload := `[
		{"userId": "nope", "checkTime": "2026-01-02 09:30:00", "checkType": 0},
		{"userId": 4, "checkTime": "garbage", "checkType": 0},
		{"userId": 5, "checkTime": "2026-01-02 09:45:00"},
		{"userId": 6, "checkTime": "2026-01-02 09:50:00", "checkType": 1}
	]`

	events := newTestParser().Parse([]byte(payload))

	assert.Len(t, events, 1)
	assert.Equal(t, 6, events[0].DeviceUserID)
}

func TestParseInvalidJSONDoesNotPanic(t *testing.T) {
	events := newTestParser().Parse([]byte("{not json at all"))
	assert.Empty(t, events)
}
