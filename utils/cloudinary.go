package utils

import (
	"context"
	"fmt"
	"io"
	"time"

	"lms/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// UploadedAsset describes a file stored on Cloudinary
type UploadedAsset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format"`
	Size     int64  `json:"size"` // bytes
}

func newCloudinary() (*cloudinary.Cloudinary, error) {
	return cloudinary.NewFromParams(
		config.AppConfig.CloudinaryCloudName,
		config.AppConfig.CloudinaryApiKey,
		config.AppConfig.CloudinaryApiSecret,
	)
}

func upload(r io.Reader, folder, resourceType string) (*UploadedAsset, error) {
	cld, err := newCloudinary()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       folder,
		PublicID:     uuid.NewString(),
		ResourceType: resourceType,
	})
	if err != nil {
		return nil, err
	}

	return &UploadedAsset{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		Format:   res.Format,
		Size:     int64(res.Bytes),
	}, nil
}

// UploadVideo uploads a course or lecture video to Cloudinary
func UploadVideo(r io.Reader, folder string) (*UploadedAsset, error) {
	return upload(r, folder, "video")
}

// UploadImage uploads a thumbnail image to Cloudinary
func UploadImage(r io.Reader, folder string) (*UploadedAsset, error) {
	return upload(r, folder, "image")
}

// DeleteAsset removes an asset from Cloudinary by public id
func DeleteAsset(publicID, resourceType string) error {
	cld, err := newCloudinary()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	return err
}

// StreamURL builds the public Cloudinary delivery URL for a video public id
func StreamURL(publicID string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/video/upload/%s.mp4",
		config.AppConfig.CloudinaryCloudName, publicID)
}
