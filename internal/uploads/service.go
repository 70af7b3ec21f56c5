package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"stagepass-backend/internal/domain"

	"github.com/hashicorp/go-retryablehttp"
)

const maxUploadBytes = 10 << 20 // 10MB, as the original upload server

// Pinner pins a file to IPFS and returns its CID.
type Pinner interface {
	PinFile(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// PinataClient is a Pinner backed by the Pinata HTTP API.
type PinataClient struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	HTTP      *retryablehttp.Client
}

// NewPinataClient builds a client against api.pinata.cloud with retrying
// transport.
func NewPinataClient(apiKey, secretKey string) *PinataClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 30 * time.Second
	rc.Logger = nil
	return &PinataClient{
		BaseURL:   "https://api.pinata.cloud",
		APIKey:    apiKey,
		SecretKey: secretKey,
		HTTP:      rc,
	}
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// PinFile posts the file to pinFileToIPFS with CID v0, matching the
// original pinning setup.
func (c *PinataClient) PinFile(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"name":      name,
		"keyvalues": map[string]string{"contentType": contentType},
	})
	if err := mw.WriteField("pinataMetadata", string(metadata)); err != nil {
		return "", err
	}
	if err := mw.WriteField("pinataOptions", `{"cidVersion":0}`); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/pinning/pinFileToIPFS", buf.Bytes())
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("pinata_api_key", c.APIKey)
	req.Header.Set("pinata_secret_api_key", c.SecretKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pinata error: status %d body: %s", resp.StatusCode, body)
	}

	var data pinResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("pinata response decode: %w", err)
	}
	if data.IpfsHash == "" {
		return "", fmt.Errorf("pinata returned no IpfsHash, body: %s", body)
	}
	return data.IpfsHash, nil
}

// TestAuthentication verifies the API keys (used by the health module).
func (c *PinataClient) TestAuthentication(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/data/testAuthentication", nil)
	if err != nil {
		return err
	}
	req.Header.Set("pinata_api_key", c.APIKey)
	req.Header.Set("pinata_secret_api_key", c.SecretKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pinata auth: status %d", resp.StatusCode)
	}
	return nil
}

// UploadResult is the stored-image reference returned to the client.
type UploadResult struct {
	ImageURL string `json:"imageUrl"`
	IpfsHash string `json:"ipfsHash"`
}

// Service encapsulates ticket image uploads.
type Service struct {
	Pinner     Pinner
	GatewayURL string
}

// Upload pins an image and returns its gateway URL. Only image content
// up to 10MB is accepted.
func (s *Service) Upload(ctx context.Context, contentType string, size int64, r io.Reader) (*UploadResult, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: only image files allowed", domain.ErrUploadFailed)
	}
	if size > maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds 10MB limit", domain.ErrUploadFailed)
	}

	name := fmt.Sprintf("ticket-%d.jpg", time.Now().UnixMilli())
	cid, err := s.Pinner.PinFile(ctx, name, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	gateway := strings.TrimRight(s.GatewayURL, "/")
	return &UploadResult{
		ImageURL: fmt.Sprintf("%s/ipfs/%s", gateway, cid),
		IpfsHash: cid,
	}, nil
}
