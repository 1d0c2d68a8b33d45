package models

import "time"

// CardDesign is a stored visual specification for wallet cards. At most one
// design is active at any time; activation is enforced transactionally and by
// a unique partial index.
type CardDesign struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	DesignData  string    `json:"design_data" db:"design_data"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedBy   *int64    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DesignData is the parsed form of CardDesign.DesignData as produced by the
// design center frontend. Unknown fields are preserved only in the raw JSON.
type DesignData struct {
	CardTitle      string          `json:"cardTitle"`
	CardSubtitle   string          `json:"cardSubtitle"`
	PrimaryColor   string          `json:"primaryColor"`
	SecondaryColor string          `json:"secondaryColor"`
	TextColor      string          `json:"textColor"`
	TextStyle      string          `json:"textStyle"`
	TextSize       string          `json:"textSize"`
	Layout         string          `json:"layout"`
	Elements       []DesignElement `json:"elements"`
}

// DesignElement is one free-positioned element of a custom card layout.
type DesignElement struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
	ZIndex   int     `json:"zIndex"`
}

// DefaultDesignData is used when no design is stored or active.
func DefaultDesignData() DesignData {
	return DesignData{
		CardTitle:      "FITNESSSTUDIO",
		CardSubtitle:   "Premium Membership",
		PrimaryColor:   "#1f2937",
		SecondaryColor: "#374151",
		TextColor:      "#ffffff",
		TextStyle:      "modern",
		TextSize:       "medium",
		Layout:         "standard",
	}
}
