package repository

import (
	"errors"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"gorm.io/gorm"
)

var ErrGroupNotFound = errors.New("group not found")

type GroupRepository interface {
	FindByName(name string) (*model.Group, error)
	List() ([]model.Group, error)
	AddMember(userID uint, groupName string) error
	RemoveMember(userID uint, groupName string) error
	Promote(userID uint, staffGroup string) error
	Demote(userID uint, staffGroup string) error
	ListMembers(groupName string, p pagination.Params) ([]model.User, int64, error)
	WithTx(tx *gorm.DB) GroupRepository
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) WithTx(tx *gorm.DB) GroupRepository {
	return &groupRepository{db: tx}
}

func (r *groupRepository) FindByName(name string) (*model.Group, error) {
	var group model.Group
	err := r.db.Where("name = ?", name).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("Group not found in database", logger.Fields{"group": name})
		return nil, ErrGroupNotFound
	}
	if err != nil {
		logger.Error("Failed to find group in database", err, logger.Fields{"group": name})
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) List() ([]model.Group, error) {
	var groups []model.Group
	if err := r.db.Order("id ASC").Find(&groups).Error; err != nil {
		logger.Error("Failed to list groups in database", err)
		return nil, err
	}
	return groups, nil
}

// AddMember links the user to the group. Already linked is not an error.
func (r *groupRepository) AddMember(userID uint, groupName string) error {
	logger.Debug("Adding user to group in database", logger.Fields{
		"user_id": userID,
		"group":   groupName,
	})

	group, err := r.FindByName(groupName)
	if err != nil {
		return err
	}

	err = r.db.Exec(
		"INSERT INTO user_groups (user_id, group_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		userID, group.ID,
	).Error
	if err != nil {
		logger.Error("Failed to add user to group in database", err, logger.Fields{
			"user_id": userID,
			"group":   groupName,
		})
		return err
	}

	logger.Debug("User added to group in database", logger.Fields{
		"user_id": userID,
		"group":   groupName,
	})
	return nil
}

// RemoveMember unlinks the user. Not a member is not an error.
func (r *groupRepository) RemoveMember(userID uint, groupName string) error {
	logger.Debug("Removing user from group in database", logger.Fields{
		"user_id": userID,
		"group":   groupName,
	})

	group, err := r.FindByName(groupName)
	if err != nil {
		return err
	}

	err = r.db.Exec("DELETE FROM user_groups WHERE user_id = ? AND group_id = ?", userID, group.ID).Error
	if err != nil {
		logger.Error("Failed to remove user from group in database", err, logger.Fields{
			"user_id": userID,
			"group":   groupName,
		})
		return err
	}
	return nil
}

// Promote adds the user to a staff group and drops the Customer role
func (r *groupRepository) Promote(userID uint, staffGroup string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		members := &groupRepository{db: tx}
		if err := members.AddMember(userID, staffGroup); err != nil {
			return err
		}
		return members.RemoveMember(userID, model.GroupCustomer)
	})
}

// Demote removes the user from a staff group. The Customer role comes back
// once no staff group is left.
func (r *groupRepository) Demote(userID uint, staffGroup string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		members := &groupRepository{db: tx}
		if err := members.RemoveMember(userID, staffGroup); err != nil {
			return err
		}

		var staff int64
		err := tx.Table("user_groups").
			Joins("JOIN groups ON groups.id = user_groups.group_id").
			Where("user_groups.user_id = ? AND groups.name IN ?", userID, model.StaffGroups).
			Count(&staff).Error
		if err != nil {
			logger.Error("Failed to count staff groups in database", err, logger.Fields{"user_id": userID})
			return err
		}
		if staff > 0 {
			return nil
		}
		return members.AddMember(userID, model.GroupCustomer)
	})
}

func (r *groupRepository) ListMembers(groupName string, p pagination.Params) ([]model.User, int64, error) {
	logger.Debug("Listing group members in database", logger.Fields{
		"group":  groupName,
		"limit":  p.Limit,
		"offset": p.Offset,
	})

	members := r.db.Table("user_groups").
		Select("user_groups.user_id").
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("groups.name = ?", groupName)

	base := r.db.Model(&model.User{}).Where("id IN (?)", members)

	var count int64
	if err := base.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count group members in database", err, logger.Fields{"group": groupName})
		return nil, 0, err
	}

	var users []model.User
	err := paginate(base.Session(&gorm.Session{}), p).
		Preload("Groups").
		Order("id ASC").
		Find(&users).Error
	if err != nil {
		logger.Error("Failed to list group members in database", err, logger.Fields{"group": groupName})
		return nil, 0, err
	}

	logger.Debug("Group members listed in database", logger.Fields{
		"group": groupName,
		"count": count,
	})
	return users, count, nil
}
