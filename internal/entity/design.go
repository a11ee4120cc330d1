package entity

import (
	"encoding/json"
	"time"
)

type Design struct {
	ID             int64           `json:"id"`
	UserID         int64           `json:"user_id"`
	Name           string          `json:"design_name"`
	GarmentType    string          `json:"garment_type"`
	GarmentColor   string          `json:"garment_color"`
	GarmentSize    string          `json:"garment_size"`
	Technique      string          `json:"technique"`
	PrintType      string          `json:"print_type,omitempty"`
	EmbroideryType string          `json:"embroidery_type,omitempty"`
	Data           json.RawMessage `json:"design_data"`
	PreviewURL     string          `json:"preview_url,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type DesignAsset struct {
	ID               int64     `json:"asset_id"`
	UserID           int64     `json:"user_id"`
	DesignID         int64     `json:"design_id,omitempty"`
	AssetURL         string    `json:"asset_url"`
	OriginalFilename string    `json:"original_filename"`
	UploadDate       time.Time `json:"upload_date"`
}
