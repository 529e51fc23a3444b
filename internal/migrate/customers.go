package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sailorskills-migrate/internal/zoho"
)

// CustomerMapper matches legacy customers to target customers by email and
// produces the persisted id-mapping artifact every later stage joins on.
type CustomerMapper struct {
	store CustomerStore
	log   *logrus.Logger
	now   func() time.Time
}

func NewCustomerMapper(store CustomerStore, log *logrus.Logger) *CustomerMapper {
	return &CustomerMapper{store: store, log: ensureLogger(log), now: time.Now}
}

// UnmatchedCustomer is a legacy customer the mapper could not resolve,
// exported for manual review.
type UnmatchedCustomer struct {
	ZohoID    string `json:"zoho_id"`
	ZohoName  string `json:"zoho_name"`
	ZohoEmail string `json:"zoho_email,omitempty"`
	Reason    string `json:"reason"`
}

// MappingStats summarizes a mapping run.
type MappingStats struct {
	Timestamp          time.Time `json:"timestamp"`
	TotalZohoCustomers int       `json:"total_zoho_customers"`
	Matched            int       `json:"matched"`
	Unmatched          int       `json:"unmatched"`
	MatchRate          string    `json:"match_rate"`
}

// CustomerMappingResult holds the mapping plus everything that needs review.
type CustomerMappingResult struct {
	Mapping   []MappingEntry      `json:"mapping"`
	Unmatched []UnmatchedCustomer `json:"unmatched"`
	Stats     MappingStats        `json:"stats"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Run maps each legacy customer to a target customer by normalized email.
// Rows with no email or no target match are recorded, never fatal.
func (m *CustomerMapper) Run(ctx context.Context, zohoCustomers []zoho.CustomerRow) (*CustomerMappingResult, error) {
	m.log.WithField("count", len(zohoCustomers)).Info("Loaded Zoho customers")

	customers, err := m.store.ListCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch target customers: %w", err)
	}
	m.log.WithField("count", len(customers)).Info("Loaded target customers")

	byEmail := make(map[string]Customer, len(customers))
	for _, c := range customers {
		if c.Email != "" {
			byEmail[normalizeEmail(c.Email)] = c
		}
	}

	result := &CustomerMappingResult{}
	for _, zc := range zohoCustomers {
		email := normalizeEmail(zc.Email)
		if email == "" {
			result.Unmatched = append(result.Unmatched, UnmatchedCustomer{
				ZohoID:   zc.CustomerID,
				ZohoName: zc.DisplayName(),
				Reason:   "No email found in Zoho export",
			})
			continue
		}

		target, ok := byEmail[email]
		if !ok {
			result.Unmatched = append(result.Unmatched, UnmatchedCustomer{
				ZohoID:    zc.CustomerID,
				ZohoName:  zc.DisplayName(),
				ZohoEmail: email,
				Reason:    "No matching customer found",
			})
			continue
		}

		result.Mapping = append(result.Mapping, MappingEntry{
			ZohoCustomerID:   zc.CustomerID,
			ZohoName:         zc.DisplayName(),
			ZohoEmail:        email,
			SailorCustomerID: target.ID,
			SailorName:       target.Name,
			SailorEmail:      target.Email,
		})
	}

	rate := 0.0
	if len(zohoCustomers) > 0 {
		rate = float64(len(result.Mapping)) / float64(len(zohoCustomers)) * 100
	}
	result.Stats = MappingStats{
		Timestamp:          m.now().UTC(),
		TotalZohoCustomers: len(zohoCustomers),
		Matched:            len(result.Mapping),
		Unmatched:          len(result.Unmatched),
		MatchRate:          fmt.Sprintf("%.1f%%", rate),
	}
	return result, nil
}
