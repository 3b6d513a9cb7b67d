package pgstore

import (
	"context"

	"github.com/HenryEmmanuel06/dfsworldwide/internal/models"
	"github.com/pkg/errors"
)

// CreateUserProfile stores the extra signup-form fields the auth backend does
// not keep. Re-running signup for the same account overwrites the profile.
func (s *Storage) CreateUserProfile(ctx context.Context, p *models.UserProfile) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO users_info (
  user_id, email, first_name, last_name,
  state, country, street, house_number, full_address
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (user_id)
DO UPDATE SET
  email = EXCLUDED.email,
  first_name = EXCLUDED.first_name,
  last_name = EXCLUDED.last_name,
  state = EXCLUDED.state,
  country = EXCLUDED.country,
  street = EXCLUDED.street,
  house_number = EXCLUDED.house_number,
  full_address = EXCLUDED.full_address
`,
		p.UserID, p.Email, p.FirstName, p.LastName,
		p.State, p.Country, p.Street, p.HouseNumber, p.FullAddress,
	)
	return errors.Wrap(err, "insert user profile")
}
