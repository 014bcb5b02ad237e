package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// VerifyAssetURL checks that a remote media URL actually resolves before it
// is attached to a course. Returns nil for empty URLs (optional assets).
func VerifyAssetURL(url string) error {
	if url == "" {
		return nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("invalid asset url: %s", url)
	}

	client := resty.New().SetTimeout(10 * time.Second)
	resp, err := client.R().Head(url)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("asset url returned status %d", resp.StatusCode())
	}

	return nil
}
