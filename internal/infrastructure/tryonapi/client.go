package tryonapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
	"github.com/kirillkom/virtual-tryon/internal/infrastructure/resilience"
)

const (
	pathUploadUser    = "/upload_user"
	pathUploadGarment = "/upload_garment"
	pathVirtualTryOn  = "/virtual_tryon"
	pathLLMFeedback   = "/llm_feedback"
)

// Client talks to the remote try-on backend. Requests are multipart forms
// and are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	// Timeout bounds a single exchange. Zero leaves timing to the transport.
	Timeout    time.Duration
	HTTPClient *http.Client
	// Executor adds a circuit breaker around each operation.
	Executor *resilience.Executor
}

func New(baseURL string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		executor:   opts.Executor,
	}
}

func (c *Client) UploadSubject(ctx context.Context, photo domain.Photo, metrics domain.BodyMetrics) (domain.SubjectUploadResult, error) {
	form := multipartForm{
		file: &photo,
		fields: []formField{
			{name: "height", value: formatFloat(metrics.HeightCm)},
			{name: "weight", value: formatFloat(metrics.WeightKg)},
		},
	}

	var response struct {
		UserImagePath string   `json:"user_image_path"`
		UserMaskPath  string   `json:"user_mask_path"`
		Height        *float64 `json:"height"`
		Weight        *float64 `json:"weight"`
	}
	if err := c.post(ctx, pathUploadUser, "upload_user", form, &response); err != nil {
		return domain.SubjectUploadResult{}, err
	}
	if strings.TrimSpace(response.UserImagePath) == "" {
		return domain.SubjectUploadResult{}, &domain.MissingFieldError{Operation: "upload_user", Field: "user_image_path"}
	}

	result := domain.SubjectUploadResult{
		StoredPath: response.UserImagePath,
		MaskPath:   response.UserMaskPath,
		HeightCm:   metrics.HeightCm,
		WeightKg:   metrics.WeightKg,
	}
	if response.Height != nil {
		result.HeightCm = *response.Height
	}
	if response.Weight != nil {
		result.WeightKg = *response.Weight
	}
	return result, nil
}

func (c *Client) UploadGarment(ctx context.Context, photo domain.Photo, measurements string) (domain.GarmentUploadResult, error) {
	form := multipartForm{
		file: &photo,
		fields: []formField{
			{name: "measurements", value: measurements},
		},
	}

	var response struct {
		GarmentImagePath string  `json:"garment_image_path"`
		Measurements     *string `json:"measurements"`
	}
	if err := c.post(ctx, pathUploadGarment, "upload_garment", form, &response); err != nil {
		return domain.GarmentUploadResult{}, err
	}
	if strings.TrimSpace(response.GarmentImagePath) == "" {
		return domain.GarmentUploadResult{}, &domain.MissingFieldError{Operation: "upload_garment", Field: "garment_image_path"}
	}

	result := domain.GarmentUploadResult{
		StoredPath:       response.GarmentImagePath,
		MeasurementsText: measurements,
	}
	if response.Measurements != nil {
		result.MeasurementsText = *response.Measurements
	}
	return result, nil
}

func (c *Client) RequestTryOn(ctx context.Context, req domain.TryOnRequest) (domain.TryOnResult, error) {
	form := multipartForm{
		fields: []formField{
			{name: "user_image_path", value: req.SubjectPath},
			{name: "garment_image_path", value: req.GarmentPath},
			{name: "measurements", value: req.MeasurementsText},
			{name: "height", value: formatFloat(req.HeightCm)},
			{name: "weight", value: formatFloat(req.WeightKg)},
		},
	}

	var response struct {
		TryOnResult    *string `json:"tryon_result"`
		UserImage      string  `json:"user_image"`
		GarmentImage   string  `json:"garment_image"`
		LLMDescription string  `json:"llm_description"`
		Error          *string `json:"error"`
	}
	if err := c.post(ctx, pathVirtualTryOn, "virtual_tryon", form, &response); err != nil {
		return domain.TryOnResult{}, err
	}
	if response.Error != nil && strings.TrimSpace(*response.Error) != "" {
		return domain.TryOnResult{}, &domain.BackendError{Operation: "virtual_tryon", Message: strings.TrimSpace(*response.Error)}
	}
	if response.TryOnResult == nil || strings.TrimSpace(*response.TryOnResult) == "" {
		return domain.TryOnResult{}, &domain.MissingFieldError{Operation: "virtual_tryon", Field: "tryon_result"}
	}

	return domain.TryOnResult{
		ResultImagePath: *response.TryOnResult,
		SubjectPath:     response.UserImage,
		GarmentPath:     response.GarmentImage,
		Description:     response.LLMDescription,
	}, nil
}

func (c *Client) RequestFeedback(ctx context.Context, req domain.FeedbackRequest) (string, error) {
	userInfo, err := json.Marshal(req.Subject)
	if err != nil {
		return "", fmt.Errorf("marshal user info: %w", err)
	}
	garmentInfo, err := json.Marshal(req.Garment)
	if err != nil {
		return "", fmt.Errorf("marshal garment info: %w", err)
	}
	form := multipartForm{
		fields: []formField{
			{name: "tryon_result", value: req.ResultImagePath},
			{name: "user_info", value: string(userInfo)},
			{name: "garment_info", value: string(garmentInfo)},
		},
	}

	var response struct {
		Feedback *string `json:"feedback"`
	}
	if err := c.post(ctx, pathLLMFeedback, "llm_feedback", form, &response); err != nil {
		return "", err
	}
	if response.Feedback == nil {
		return "", &domain.MissingFieldError{Operation: "llm_feedback", Field: "feedback"}
	}
	return strings.TrimSpace(*response.Feedback), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
