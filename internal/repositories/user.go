package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/apperrors"
	"github.com/hoaxkidd/The-Arts-and-Aging-Network-sub002/internal/models"
)

// UserRepository provides read access to the identity projection
type UserRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, readOnlyDB *gorm.DB) *UserRepository {
	return &UserRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.readOnlyDB.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, errors.Wrap(err, "failed to get user by ID")
	}
	return &user, nil
}

// GetByIDs gets users by their IDs
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.readOnlyDB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get users by IDs")
	}
	return users, nil
}

// ListByRoles lists users holding any of the given roles
func (r *UserRepository) ListByRoles(ctx context.Context, roles ...string) ([]models.User, error) {
	var users []models.User
	err := r.readOnlyDB.WithContext(ctx).Where("role IN ?", roles).Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users by role")
	}
	return users, nil
}

// FacilityRepository provides read access to partner facilities
type FacilityRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewFacilityRepository creates a new facility repository
func NewFacilityRepository(db *gorm.DB, readOnlyDB *gorm.DB) *FacilityRepository {
	return &FacilityRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// GetByID gets a facility by ID
func (r *FacilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Facility, error) {
	var facility models.Facility
	err := r.readOnlyDB.WithContext(ctx).First(&facility, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("facility")
		}
		return nil, errors.Wrap(err, "failed to get facility by ID")
	}
	return &facility, nil
}

// GetContact gets the facility's contact user
func (r *FacilityRepository) GetContact(ctx context.Context, facilityID uuid.UUID) (*models.User, error) {
	facility, err := r.GetByID(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = r.readOnlyDB.WithContext(ctx).First(&user, "id = ?", facility.ContactUserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("facility contact")
		}
		return nil, errors.Wrap(err, "failed to get facility contact")
	}
	return &user, nil
}
