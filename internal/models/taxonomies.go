package models

import "encoding/json"

type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"category"`
	Slug      string `json:"slug"`
	ShortDesc string `json:"short_desc,omitempty"`
}

type Categories []Category

// MarshalBinary implements the encoding.BinaryMarshaler interface
func (cats Categories) MarshalBinary() (data []byte, err error) {
	return json.Marshal(cats)
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface
func (cats *Categories) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, cats)
}
