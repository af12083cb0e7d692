package connector

import (
	"encoding/json"
	"strconv"
	"strings"

	"biotrack.com.au/biotrack/utils"
	"github.com/rs/zerolog"
)

// Key aliases seen across terminal firmware revisions, tried in order.
var (
	userIDKeys = []string{"userId", "user_id", "uid"}
	timeKeys   = []string{"checkTime", "check_time", "time"}
	kindKeys   = []string{"checkType", "check_type", "type", "inout"}
)

// Parser decodes raw terminal payloads into events. Terminals push either
// newline-separated "userId,timestamp,kindCode[,serial]" lines or a JSON
// array of objects with aliased keys. Malformed records are dropped with a
// warning; a bad record never aborts the rest of the batch.
type Parser struct {
	logger zerolog.Logger
}

func NewParser(logger zerolog.Logger) *Parser {
	return &Parser{logger: logger}
}

func (p *Parser) Parse(payload []byte) []Event {
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return nil
	}

	// JSON payloads are recognisable by object delimiters; everything else
	// is treated as delimited lines.
	if strings.Contains(text, "{") {
		if events, ok := p.parseJSON(text); ok {
			return events
		}
		p.logger.Warn().Msg("payload looked like JSON but did not decode, falling back to line format")
	}

	return p.parseLines(text)
}

func (p *Parser) parseLines(text string) []Event {
	var events []Event
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 3 {
			p.logger.Warn().Str("line", line).Msg("skipping record with too few fields")
			continue
		}

		userID, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			p.logger.Warn().Str("line", line).Msg("skipping record with non-numeric device user id")
			continue
		}

		ts, err := utils.ParseDeviceTime(fields[1])
		if err != nil {
			p.logger.Warn().Str("raw_time", fields[1]).Msg("skipping record with unparseable timestamp")
			continue
		}

		kindCode, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil {
			p.logger.Warn().Str("line", line).Msg("skipping record with non-numeric check kind")
			continue
		}

		ev := Event{
			DeviceUserID: userID,
			Time:         ts,
			Kind:         kindFromCode(kindCode),
		}
		if len(fields) > 3 {
			ev.DeviceSerial = strings.TrimSpace(fields[3])
		}
		events = append(events, ev)
	}
	return events
}

func (p *Parser) parseJSON(text string) ([]Event, bool) {
	// The array may be embedded in surrounding protocol noise; cut from the
	// first '[' to the last ']'.
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var items []map[string]interface{}
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil, false
	}

	var events []Event
	for _, item := range items {
		userID, ok := intField(item, userIDKeys)
		if !ok {
			p.logger.Warn().Interface("item", item).Msg("skipping JSON record without usable user id")
			continue
		}

		rawTime, ok := stringField(item, timeKeys)
		if !ok {
			p.logger.Warn().Int("device_user_id", userID).Msg("skipping JSON record without timestamp")
			continue
		}
		ts, err := utils.ParseDeviceTime(rawTime)
		if err != nil {
			p.logger.Warn().Str("raw_time", rawTime).Msg("skipping JSON record with unparseable timestamp")
			continue
		}

		kindCode, ok := intField(item, kindKeys)
		if !ok {
			p.logger.Warn().Int("device_user_id", userID).Msg("skipping JSON record without check kind")
			continue
		}

		ev := Event{
			DeviceUserID: userID,
			Time:         ts,
			Kind:         kindFromCode(kindCode),
		}
		if serial, ok := stringField(item, []string{"deviceSerial", "device_serial", "sn"}); ok {
			ev.DeviceSerial = serial
		}
		events = append(events, ev)
	}
	return events, true
}

// kindFromCode maps device check codes onto the binary in/out model:
// 0 is check-in, anything else is check-out. Terminals with break and
// overtime codes collapse onto check-out on purpose.
func kindFromCode(code int) CheckKind {
	if code == 0 {
		return CheckIn
	}
	return CheckOut
}

func intField(item map[string]interface{}, keys []string) (int, bool) {
	for _, key := range keys {
		v, ok := item[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n), true
		case string:
			if parsed, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return parsed, true
			}
		}
	}
	return 0, false
}

func stringField(item map[string]interface{}, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := item[key]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
