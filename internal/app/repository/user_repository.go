package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrUserNotFound = errors.New("user not found")

type UserFilter struct {
	Search   string // username, email or name contains
	Ordering string
}

var userOrdering = map[string]string{
	"id":          "id",
	"username":    "username",
	"date_joined": "created_at",
}

type UserRepository interface {
	Create(user *model.User, groups ...string) error
	FindByID(id uint) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	List(filter UserFilter, p pagination.Params) ([]model.User, int64, error)
	Update(user *model.User) error
	UpdateLastLogin(id uint, at time.Time) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) UserRepository
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

// Create stores the user, links the given groups and opens an empty cart,
// all in one transaction.
func (r *userRepository) Create(user *model.User, groups ...string) error {
	logger.Debug("Creating user in database", logger.Fields{
		"username": user.Username,
		"groups":   groups,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		members := NewGroupRepository(tx)
		for _, g := range groups {
			if err := members.AddMember(user.ID, g); err != nil {
				return err
			}
		}
		cart := &model.Cart{UserID: user.ID}
		if err := tx.Create(cart).Error; err != nil {
			return err
		}
		user.Cart = cart
		return tx.Model(user).Association("Groups").Find(&user.Groups)
	})
	if err != nil {
		logger.Error("Failed to create user in database", err, logger.Fields{
			"username": user.Username,
		})
		return err
	}

	logger.Debug("User created in database", logger.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	logger.Debug("Finding user by ID in database", logger.Fields{"user_id": id})

	var user model.User
	err := r.db.Preload("Groups").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("User not found in database", logger.Fields{"user_id": id})
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Error("Failed to find user by ID in database", err, logger.Fields{"user_id": id})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	logger.Debug("Finding user by username in database", logger.Fields{"username": username})

	var user model.User
	err := r.db.Preload("Groups").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.Error("Failed to find user by username in database", err, logger.Fields{"username": username})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(filter UserFilter, p pagination.Params) ([]model.User, int64, error) {
	logger.Debug("Listing users in database", logger.Fields{
		"search": filter.Search,
		"limit":  p.Limit,
		"offset": p.Offset,
	})

	order, err := orderBy(filter.Ordering, userOrdering, "id ASC")
	if err != nil {
		return nil, 0, err
	}

	q := r.db.Model(&model.User{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := containsPattern(s)
		q = q.Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'`,
			like, like, like, like)
	}

	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count users in database", err)
		return nil, 0, err
	}

	var users []model.User
	if err := paginate(q.Session(&gorm.Session{}), p).Preload("Groups").Order(order).Find(&users).Error; err != nil {
		logger.Error("Failed to list users in database", err)
		return nil, 0, err
	}

	logger.Debug("Users listed in database", logger.Fields{"count": count})
	return users, count, nil
}

func (r *userRepository) Update(user *model.User) error {
	logger.Debug("Updating user in database", logger.Fields{"user_id": user.ID})

	if err := r.db.Omit(clause.Associations).Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, logger.Fields{"user_id": user.ID})
		return err
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(id uint, at time.Time) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).UpdateColumn("last_login", at).Error
}

// Delete removes the user with its group links, cart and orders, and
// unassigns orders it was delivering.
func (r *userRepository) Delete(id uint) error {
	logger.Debug("Deleting user from database", logger.Fields{"user_id": id})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&model.User{}, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		carts := tx.Model(&model.Cart{}).Select("id").Where("user_id = ?", id)
		orders := tx.Model(&model.Order{}).Select("id").Where("user_id = ?", id)

		steps := []func() error{
			func() error { return tx.Exec("DELETE FROM user_groups WHERE user_id = ?", id).Error },
			func() error { return tx.Where("cart_id IN (?)", carts).Delete(&model.CartItem{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&model.Cart{}).Error },
			func() error { return tx.Where("order_id IN (?)", orders).Delete(&model.OrderItem{}).Error },
			func() error { return tx.Where("user_id = ?", id).Delete(&model.Order{}).Error },
			func() error {
				return tx.Model(&model.Order{}).Where("delivery_crew_id = ?", id).UpdateColumn("delivery_crew_id", nil).Error
			},
			func() error { return tx.Delete(&model.User{}, id).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logger.Error("Failed to delete user from database", err, logger.Fields{"user_id": id})
		}
		return err
	}

	logger.Debug("User deleted from database", logger.Fields{"user_id": id})
	return nil
}
