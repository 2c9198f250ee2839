package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Creator is one author entry on the deposit record.
type Creator struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	ORCID       string `json:"orcid,omitempty"`
}

// DepositMeta is the externally supplied upload metadata record used when
// creating a deposition on the archive.
type DepositMeta struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UploadType  string    `json:"upload_type"`
	Creators    []Creator `json:"creators"`
	Keywords    []string  `json:"keywords,omitempty"`
	AccessRight string    `json:"access_right,omitempty"`
	License     string    `json:"license,omitempty"`
}

// LoadDepositMeta reads and validates the deposit metadata record.
func LoadDepositMeta(path string) (*DepositMeta, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deposit metadata file not found: %s: %w", path, err)
	}

	var m DepositMeta
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("error unmarshalling deposit metadata file %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deposit metadata file %s: %w", path, err)
	}

	return &m, nil
}

// Validate enforces the fields the deposit API requires.
func (m *DepositMeta) Validate() error {
	if m.Title == "" {
		return errors.New("title is required")
	}
	if m.Description == "" {
		return errors.New("description is required")
	}
	if len(m.Creators) == 0 {
		return errors.New("at least one creator is required")
	}
	for i, c := range m.Creators {
		if c.Name == "" {
			return fmt.Errorf("creators[%d].name is required", i)
		}
	}
	if m.UploadType == "" {
		m.UploadType = "dataset"
	}
	return nil
}
