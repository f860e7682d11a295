package application

import (
	"fmt"

	"telegram-credential-broker/internal/domain"
)

func planNotFound(planID string) error {
	return fmt.Errorf("plan %q: %w", planID, domain.ErrNotFound)
}
