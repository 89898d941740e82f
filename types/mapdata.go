package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// LatLng is a map coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat" mapstructure:"lat"`
	Lng float64 `json:"lng" mapstructure:"lng"`
}

// Marker is a labelled point on a map background.
type Marker struct {
	Lat  float64 `json:"lat" mapstructure:"lat"`
	Lng  float64 `json:"lng" mapstructure:"lng"`
	Text string  `json:"text,omitempty" mapstructure:"text"`
}

// MapData is the payload of a map background. It is stored as a JSON column,
// so it needs to implement driver.Valuer and sql.Scanner.
type MapData struct {
	Coordinates LatLng   `json:"coordinates" mapstructure:"coordinates"`
	Markers     []Marker `json:"markers" mapstructure:"markers"`
	Zoom        int      `json:"zoom" mapstructure:"zoom"`
}

// Value return json value, implement driver.Valuer interface
func (m MapData) Value() (driver.Value, error) {
	ba, err := json.Marshal(m)
	return string(ba), err
}

// Scan scan value into MapData, implements sql.Scanner interface
func (m *MapData) Scan(val interface{}) error {
	var ba []byte
	switch v := val.(type) {
	case []byte:
		ba = v
	case string:
		ba = []byte(v)
	case nil:
		return nil
	default:
		return errors.New(fmt.Sprint("Failed to unmarshal JSONB value:", val))
	}
	return json.Unmarshal(ba, m)
}

// GormDataType gorm common data type
func (m MapData) GormDataType() string {
	return "mapdata"
}

// GormDBDataType gorm db data type
func (MapData) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "JSON"
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	}
	return ""
}
