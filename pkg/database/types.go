package database

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringSetMap is a custom type for map[string][]string columns that works
// across different databases by storing the value as a JSON object. Used for
// per-emoji reaction membership on messages.
type StringSetMap map[string][]string

// Scan implements the sql.Scanner interface for reading from the database.
func (m *StringSetMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("StringSetMap: unsupported scan type")
	}
}

// Value implements the driver.Valuer interface for writing to the database.
func (m StringSetMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (StringSetMap) GormDataType() string {
	return "text"
}
