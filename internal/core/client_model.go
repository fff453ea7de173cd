package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a contact in an account's client directory. Documents copy these
// fields at write time; they do not reference the client row.
type Client struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	TaxID     string    `json:"tax_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Notes     []string  `json:"notes,omitempty"`
	Extension Extension `json:"extension"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListSeparator joins tags and notes in their storage columns.
const ListSeparator = ";"

// Normalize trims input, drops empty or duplicate tags and assigns an id.
func (c *Client) Normalize() {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Name = strings.TrimSpace(c.Name)
	c.TaxID = strings.TrimSpace(c.TaxID)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.Tags = cleanList(c.Tags, true)
	c.Notes = cleanList(c.Notes, false)
	if c.Extension.Version == 0 {
		c.Extension.Version = ExtensionVersion
	}
}

// Validate checks the client before it is written.
func (c *Client) Validate() error {
	if c.UserID == "" {
		return validationErrorf("client must belong to an account")
	}
	if c.Name == "" {
		return validationErrorf("client name is required")
	}
	return nil
}

// Snapshot copies the client's contact fields onto d.
func (c *Client) Snapshot(d *Document) {
	d.ClientName = c.Name
	d.ClientTaxID = c.TaxID
	d.ClientEmail = c.Email
	d.ClientAddress = c.Address
}

// JoinList encodes a list for a delimited storage column. The separator is
// stripped from entries so the encoding round-trips.
func JoinList(items []string) string {
	clean := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(strings.ReplaceAll(s, ListSeparator, ","))
		if s != "" {
			clean = append(clean, s)
		}
	}
	return strings.Join(clean, ListSeparator)
}

// SplitList decodes a delimited storage column.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return cleanList(strings.Split(s, ListSeparator), false)
}

func cleanList(in []string, dedupe bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if dedupe {
			key := strings.ToLower(s)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, s)
	}
	return out
}
