package erp

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/mikelcalvo/erp-front/internal/state"
)

// MaxImageWidth is the widest image sent to the upload endpoint
const MaxImageWidth = 800

// prepareImage downscales the image at path and re-encodes it as JPEG
func prepareImage(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("cannot open image: %w", err)
	}
	if img.Bounds().Dx() > MaxImageWidth {
		img = imaging.Resize(img, MaxImageWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("cannot encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// UploadImage sends a product picture and returns its public url
func (c *Client) UploadImage(ctx context.Context, path string) (string, error) {
	data, err := prepareImage(path)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".jpg"
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("upload-images"), &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	env, err := c.do(req)
	if err != nil {
		return "", err
	}
	var uploaded struct {
		URL string `json:"url"`
	}
	if err := env.decode(&uploaded); err != nil {
		return "", err
	}
	if uploaded.URL == "" {
		return "", fmt.Errorf("upload returned no url")
	}
	return uploaded.URL, nil
}

// AttachImage sets the image of a product
func (c *Client) AttachImage(ctx context.Context, productID int, url string) error {
	body := map[string]interface{}{"image_url": url}
	if _, err := c.Request(ctx, http.MethodPut, "products/"+strconv.Itoa(productID), body); err != nil {
		return fmt.Errorf("attach image to product %d: %w", productID, err)
	}
	return nil
}

// StageAndUpload runs the upload flow for productID. Each step is written
// to the session so an interrupted flow resumes where it stopped: a staged
// url is attached without uploading again.
func (c *Client) StageAndUpload(ctx context.Context, session *state.Session, productID int, path string) (string, error) {
	if path != "" && path != session.StagedImage() {
		session.StageImage(path)
		if err := session.Flush(); err != nil {
			return "", err
		}
	}

	url := session.ImageURL()
	if url == "" {
		staged := session.StagedImage()
		if staged == "" {
			return "", fmt.Errorf("no image staged")
		}
		uploaded, err := c.UploadImage(ctx, staged)
		if err != nil {
			return "", err
		}
		url = uploaded
		session.SetImageURL(url)
		if err := session.Flush(); err != nil {
			return "", err
		}
	}

	if err := c.AttachImage(ctx, productID, url); err != nil {
		return "", err
	}
	session.ClearImage()
	return url, session.Flush()
}

// CmdUploadImage uploads a product picture; without a path it resumes the
// staged upload
func (c *Client) CmdUploadImage(session *state.Session, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: erp-front upload-image <product_id> [image_path]")
		if staged := session.StagedImage(); staged != "" {
			fmt.Printf("  Staged: %s%s%s\n", Yellow, staged, Reset)
		}
		return nil
	}
	productID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid product id: %s", args[0])
	}
	path := ""
	if len(args) > 1 {
		path = args[1]
	}

	ctx, cancel := cliContext()
	defer cancel()

	fmt.Printf("%sUploading image for product %d...%s\n", Blue, productID, Reset)
	url, err := c.StageAndUpload(ctx, session, productID, path)
	if err != nil {
		return err
	}
	fmt.Printf("%s✓ Image attached%s\n", Green, Reset)
	fmt.Printf("  URL: %s\n", url)
	return nil
}
