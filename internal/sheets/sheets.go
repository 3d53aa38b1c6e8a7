package sheets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"Sparkle/internal/repo"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

const (
	SecretHeader   = "X-Sheets-Secret"
	DeliveryHeader = "X-Delivery-Id"
)

// Config holds one endpoint per form kind. An empty endpoint disables export for that kind.
type Config struct {
	ConsultancyURL string `yaml:"consultancy_url"`
	PartnerURL     string `yaml:"partner_url"`
	AMCURL         string `yaml:"amc_url"`
	SharedSecret   string `yaml:"shared_secret"`
}

func (c Config) Endpoint(kind repo.Kind) string {
	switch kind {
	case repo.KindConsultancy:
		return strings.TrimSpace(c.ConsultancyURL)
	case repo.KindPartner:
		return strings.TrimSpace(c.PartnerURL)
	case repo.KindAMC:
		return strings.TrimSpace(c.AMCURL)
	}
	return ""
}

func (c Config) Configured(kind repo.Kind) bool {
	return c.Endpoint(kind) != ""
}

type Result struct {
	Success       bool   `json:"success"`
	ConfigMissing bool   `json:"config_missing,omitempty"`
	Error         string `json:"error,omitempty"`
	DeliveryID    string `json:"delivery_id,omitempty"`
}

type Client struct {
	Config     Config
	HTTPClient *http.Client
	now        func() time.Time
}

func NewClient(cfg Config) *Client {
	return &Client{
		Config:     cfg,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

func (c *Client) Configured(kind repo.Kind) bool {
	return c.Config.Configured(kind)
}

type consultancyPayload struct {
	FormType           string `json:"formType"`
	Timestamp          string `json:"timestamp"`
	Name               string `json:"name"`
	PhoneNumber        string `json:"phoneNumber"`
	Email              string `json:"email"`
	Location           string `json:"location"`
	RequirementMessage string `json:"requirementMessage"`
}

type partnerPayload struct {
	FormType        string `json:"formType"`
	Timestamp       string `json:"timestamp"`
	Name            string `json:"name"`
	CompanyName     string `json:"companyName"`
	PhoneNumber     string `json:"phoneNumber"`
	Email           string `json:"email"`
	Location        string `json:"location"`
	BusinessDetails string `json:"businessDetails"`
}

type amcPayload struct {
	FormType      string `json:"formType"`
	Timestamp     string `json:"timestamp"`
	ClientName    string `json:"clientName"`
	PhoneNumber   string `json:"phoneNumber"`
	Email         string `json:"email"`
	Location      string `json:"location"`
	SystemDetails string `json:"systemDetails"`
}

// isoMillis matches the UTC millisecond form browsers produce for Date.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z"

func payloadFor(l repo.Lead, at time.Time) (any, error) {
	ts := at.UTC().Format(isoMillis)
	switch l.Kind {
	case repo.KindConsultancy:
		return consultancyPayload{string(l.Kind), ts, l.Name, l.PhoneNumber, l.Email, l.Location, l.Details}, nil
	case repo.KindPartner:
		return partnerPayload{string(l.Kind), ts, l.Name, l.CompanyName, l.PhoneNumber, l.Email, l.Location, l.Details}, nil
	case repo.KindAMC:
		return amcPayload{string(l.Kind), ts, l.Name, l.PhoneNumber, l.Email, l.Location, l.Details}, nil
	}
	return nil, fmt.Errorf("unknown form kind %q", l.Kind)
}

// Export forwards a copy of the lead to the endpoint configured for its kind.
// It never returns an error: failures are reported in the Result.
func (c *Client) Export(ctx context.Context, l repo.Lead) Result {
	endpoint := c.Config.Endpoint(l.Kind)
	if endpoint == "" {
		return Result{ConfigMissing: true}
	}

	deliveryID := uuid.NewString()
	payload, err := payloadFor(l, c.now())
	if err != nil {
		return Result{Error: err.Error(), DeliveryID: deliveryID}
	}
	if err := c.postJSON(ctx, endpoint, deliveryID, payload); err != nil {
		return Result{Error: err.Error(), DeliveryID: deliveryID}
	}
	return Result{Success: true, DeliveryID: deliveryID}
}

func (c *Client) postJSON(ctx context.Context, endpoint, deliveryID string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(DeliveryHeader, deliveryID)
	if c.Config.SharedSecret != "" {
		req.Header.Set(SecretHeader, c.Config.SharedSecret)
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("HTTP %d: %s", res.StatusCode, http.StatusText(res.StatusCode))
	}
	return nil
}
