package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"nevermore-backend/internal/entity"
	"nevermore-backend/internal/repository"
)

const maxAssetSize = 5 << 20 // 5MB

var assetExtensions = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".svg": true, ".webp": true,
}

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

// DesignService stores custom garment designs and their uploaded assets.
// Preview images and assets land on local disk under uploadDir and are
// served back by URL.
type DesignService struct {
	designs   repository.DesignStore
	uploadDir string
	baseURL   string
}

func NewDesignService(designs repository.DesignStore, uploadDir, baseURL string) *DesignService {
	return &DesignService{
		designs:   designs,
		uploadDir: uploadDir,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func (s *DesignService) List(ctx context.Context, userID int64) ([]entity.Design, error) {
	return s.designs.ListByUser(ctx, userID)
}

func (s *DesignService) Get(ctx context.Context, userID, id int64) (*entity.Design, []entity.DesignAsset, error) {
	design, err := s.designs.ByID(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	assets, err := s.designs.Assets(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	return design, assets, nil
}

type SaveDesignRequest struct {
	DesignID       int64           `json:"design_id"`
	Name           string          `json:"design_name" validate:"required,max=255"`
	GarmentType    string          `json:"garment_type"`
	GarmentColor   string          `json:"garment_color"`
	GarmentSize    string          `json:"garment_size"`
	Technique      string          `json:"technique"`
	PrintType      string          `json:"print_type"`
	EmbroideryType string          `json:"embroidery_type"`
	Data           json.RawMessage `json:"design_data"`
	PreviewImage   string          `json:"preview_image"`
}

// Save upserts a design: by id when given, otherwise by (user, name).
func (s *DesignService) Save(ctx context.Context, userID int64, req *SaveDesignRequest) (int64, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 255 {
		return 0, fmt.Errorf("%w: design_name is required", entity.ErrValidation)
	}
	if len(req.Data) == 0 {
		return 0, fmt.Errorf("%w: design_data is required", entity.ErrValidation)
	}

	design := &entity.Design{
		ID:             req.DesignID,
		UserID:         userID,
		Name:           name,
		GarmentType:    defaultStr(req.GarmentType, "T-Shirt"),
		GarmentColor:   defaultStr(req.GarmentColor, "#FFFFFF"),
		GarmentSize:    defaultStr(req.GarmentSize, "M"),
		Technique:      defaultStr(req.Technique, "Print"),
		PrintType:      req.PrintType,
		EmbroideryType: req.EmbroideryType,
		Data:           req.Data,
	}

	if req.PreviewImage != "" {
		previewURL, err := s.savePreviewImage(req.PreviewImage, userID, req.DesignID)
		if err != nil {
			logger.Warn().Err(err).Int64("user", userID).Msg("Discarding unreadable preview image")
		} else {
			design.PreviewURL = previewURL
		}
	}

	if design.ID > 0 {
		updated, err := s.designs.Update(ctx, userID, design)
		if err != nil {
			return 0, err
		}
		if !updated {
			return 0, entity.ErrDesignNotFound
		}
		return design.ID, nil
	}

	if existing, err := s.designs.ByName(ctx, userID, name); err == nil {
		design.ID = existing.ID
		if _, err := s.designs.Update(ctx, userID, design); err != nil {
			return 0, err
		}
		return design.ID, nil
	} else if !errors.Is(err, entity.ErrDesignNotFound) {
		return 0, err
	}

	return s.designs.Insert(ctx, design)
}

func (s *DesignService) savePreviewImage(encoded string, userID, designID int64) (string, error) {
	encoded = dataURLPrefix.ReplaceAllString(encoded, "")
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode preview image: %w", err)
	}

	dir := filepath.Join(s.uploadDir, "previews")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	suffix := designID
	if suffix == 0 {
		suffix = rand.Int63()
	}
	filename := fmt.Sprintf("%d_%d_preview.png", userID, suffix)
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + "/uploads/previews/" + filename, nil
}

// UploadAsset stores a user-uploaded design asset file.
func (s *DesignService) UploadAsset(ctx context.Context, userID, designID int64, filename string, size int64, src io.Reader) (*entity.DesignAsset, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !assetExtensions[ext] {
		return nil, fmt.Errorf("%w: unsupported file type %s", entity.ErrValidation, ext)
	}
	if size > maxAssetSize {
		return nil, fmt.Errorf("%w: file exceeds 5MB limit", entity.ErrValidation)
	}

	dir := filepath.Join(s.uploadDir, "designs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	stored := fmt.Sprintf("%d_%d_%08x%s", userID, rand.Int31(), rand.Int31(), ext)
	dst, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxAssetSize)); err != nil {
		return nil, err
	}

	asset := &entity.DesignAsset{
		UserID:           userID,
		DesignID:         designID,
		AssetURL:         s.baseURL + "/uploads/designs/" + stored,
		OriginalFilename: filename,
	}
	if asset.ID, err = s.designs.InsertAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// SaveProductImage stores an admin-uploaded product image and returns its URL.
func (s *DesignService) SaveProductImage(filename string, size int64, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpeg", ".jpg", ".png", ".webp":
	default:
		return "", fmt.Errorf("%w: unsupported file type %s", entity.ErrValidation, ext)
	}
	if size > maxAssetSize {
		return "", fmt.Errorf("%w: file exceeds 5MB limit", entity.ErrValidation)
	}

	dir := filepath.Join(s.uploadDir, "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	stored := fmt.Sprintf("%d_%08x%s", rand.Int31(), rand.Int31(), ext)
	dst, err := os.Create(filepath.Join(dir, stored))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, maxAssetSize)); err != nil {
		return "", err
	}
	return s.baseURL + "/uploads/products/" + stored, nil
}

func defaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
