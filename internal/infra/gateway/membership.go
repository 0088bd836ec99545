package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"circulation-core/internal/pkg/config"
	"circulation-core/internal/usecase/commands"

	"github.com/google/uuid"
)

// MembershipClient talks to the user collaborator that owns member accounts.
// The circulation core consults it for checkout eligibility only.
type MembershipClient struct {
	baseURL string
	client  *http.Client
}

func NewMembershipClient(cfg config.GatewayConfig) *MembershipClient {
	return &MembershipClient{
		baseURL: cfg.MembershipBaseURL,
		client:  &http.Client{Timeout: cfg.ClientTimeout},
	}
}

type eligibilityResponse struct {
	Active         bool `json:"active"`
	UnderLoanLimit bool `json:"under_loan_limit"`
}

func (c *MembershipClient) IsEligible(ctx context.Context, userID uuid.UUID) (commands.Eligibility, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/members/%s/eligibility", c.baseURL, userID), nil)
	if err != nil {
		return commands.Eligibility{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return commands.Eligibility{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Unknown member: treated as inactive rather than an infrastructure error.
		return commands.Eligibility{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return commands.Eligibility{}, fmt.Errorf("membership returned unexpected status code: %d", resp.StatusCode)
	}

	var body eligibilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return commands.Eligibility{}, err
	}

	return commands.Eligibility{
		Active:         body.Active,
		UnderLoanLimit: body.UnderLoanLimit,
	}, nil
}
