package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/internal/utils"
)

type (
	// ExtractionResult is the collaborator's view of one extraction job.
	ExtractionResult struct {
		Done       bool
		Succeeded  bool
		Text       string
		Confidence float64
		Error      string
	}

	// Client talks to the external OCR collaborator. The orchestrator never
	// blocks on extraction; it submits a job and fetches results on poll.
	Client interface {
		SubmitImage(ctx context.Context, imageURL string) (string, error)
		FetchResult(ctx context.Context, jobID string) (*ExtractionResult, error)
	}

	httpClient struct {
		client *http.Client
	}
)

func NewClient() Client {
	return &httpClient{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *httpClient) SubmitImage(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", domain.ErrInvalidImage
	}

	baseURL := utils.GetConfig("OCR_SERVICE_URL")
	if baseURL == "" {
		return "", fmt.Errorf("%w: OCR service URL not configured", domain.ErrExternalService)
	}

	payload, err := json.Marshal(map[string]string{"image_url": imageURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/jobs", bytes.NewBuffer(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest {
		return "", domain.ErrInvalidImage
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ocr service returned %s - %s", domain.ErrExternalService, resp.Status, string(bodyBytes))
	}

	var result struct {
		JobID string `json:"job_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	if result.JobID == "" {
		return "", fmt.Errorf("%w: ocr service returned no job id", domain.ErrExternalService)
	}

	return result.JobID, nil
}

func (c *httpClient) FetchResult(ctx context.Context, jobID string) (*ExtractionResult, error) {
	baseURL := utils.GetConfig("OCR_SERVICE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: OCR service URL not configured", domain.ErrExternalService)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/jobs/%s", baseURL, jobID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ocr service returned %s - %s", domain.ErrExternalService, resp.Status, string(bodyBytes))
	}

	var result struct {
		Status     string  `json:"status"` // "processing", "completed", "failed"
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
		Error      string  `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	return &ExtractionResult{
		Done:       result.Status == "completed" || result.Status == "failed",
		Succeeded:  result.Status == "completed",
		Text:       result.Text,
		Confidence: result.Confidence,
		Error:      result.Error,
	}, nil
}
