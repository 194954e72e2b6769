package repositories

import "cardman/internal/models"

// UserRepository is the persistence contract for the user directory.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	ExistsByEmail(email string) (bool, error)
	List(offset, limit int, sortDir string) ([]models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
}
