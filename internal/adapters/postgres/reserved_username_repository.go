package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type reservedUsernameRepository struct {
	db *gorm.DB
}

// IsReserved reports whether the username appears on the deny-list seeded by
// the migrations. The list holds lowercase names, so the input is normalized
// the same way before the lookup.
func (r *reservedUsernameRepository) IsReserved(ctx context.Context, username string) (bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(username))
	var row reservedUsernameModel
	err := r.db.WithContext(ctx).Where("username = ?", normalized).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup reserved username: %w", err)
	}
	return true, nil
}
