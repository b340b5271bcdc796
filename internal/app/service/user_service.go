package service

import (
	"errors"
	"strings"

	"github.com/ikkim/littlelemon-backend/internal/app/model"
	"github.com/ikkim/littlelemon-backend/internal/app/repository"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
	"github.com/ikkim/littlelemon-backend/internal/permission"
	"github.com/ikkim/littlelemon-backend/pkg/logger"
	"github.com/ikkim/littlelemon-backend/pkg/pagination"
	"github.com/ikkim/littlelemon-backend/pkg/util"
)

type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Groups    []string // defaults to Customer
}

// UpdateUserInput leaves nil fields untouched
type UpdateUserInput struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
	IsActive  *bool
}

var (
	userCollectionAccess = permission.IsManager
	userObjectAccess     = permission.ManagerOrOwner
	groupAdminAccess     = permission.Any(permission.IsManager, permission.IsAdmin)
)

type UserService interface {
	List(p *permission.Principal, filter repository.UserFilter, page pagination.Params) ([]model.User, int64, error)
	Get(p *permission.Principal, id uint) (*model.User, error)
	Create(p *permission.Principal, input CreateUserInput) (*model.User, error)
	Update(p *permission.Principal, id uint, input UpdateUserInput) (*model.User, error)
	Delete(p *permission.Principal, id uint) error
	AddToGroup(p *permission.Principal, userID uint, group string) (*model.User, error)
	RemoveFromGroup(p *permission.Principal, userID uint, group string) (*model.User, error)
	ListGroupMembers(p *permission.Principal, group string, page pagination.Params) ([]model.User, int64, error)
}

type userService struct {
	userRepo  repository.UserRepository
	groupRepo repository.GroupRepository
}

func NewUserService(userRepo repository.UserRepository, groupRepo repository.GroupRepository) UserService {
	return &userService{
		userRepo:  userRepo,
		groupRepo: groupRepo,
	}
}

func (s *userService) List(p *permission.Principal, filter repository.UserFilter, page pagination.Params) ([]model.User, int64, error) {
	if err := permission.Enforce(userCollectionAccess, permission.Check{Principal: p, Action: permission.ActionList}); err != nil {
		return nil, 0, err
	}
	return s.userRepo.List(filter, page)
}

func (s *userService) Get(p *permission.Principal, id uint) (*model.User, error) {
	if err := permission.Enforce(userObjectAccess, permission.Check{Principal: p, Action: permission.ActionRetrieve, Owner: &id}); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(id)
}

func (s *userService) Create(p *permission.Principal, input CreateUserInput) (*model.User, error) {
	if err := permission.Enforce(userCollectionAccess, permission.Check{Principal: p, Action: permission.ActionCreate}); err != nil {
		return nil, err
	}

	groups := input.Groups
	if len(groups) == 0 {
		groups = []string{model.GroupCustomer}
	}
	for _, g := range groups {
		if !model.IsKnownGroup(g) {
			return nil, ErrUnknownGroup
		}
	}

	user, err := newUser(input.Username, input.Email, input.Password, input.FirstName, input.LastName)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(user, groups...); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logger.Info("User created", logger.Fields{
		"user_id":    user.ID,
		"created_by": p.UserID,
		"groups":     groups,
	})
	return user, nil
}

func (s *userService) Update(p *permission.Principal, id uint, input UpdateUserInput) (*model.User, error) {
	if err := permission.Enforce(userObjectAccess, permission.Check{Principal: p, Action: permission.ActionUpdate, Owner: &id}); err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		if err := permission.Enforce(permission.IsManager, permission.Check{Principal: p, Action: permission.ActionUpdate}); err != nil {
			return nil, err
		}
	}

	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		user.Email = strings.TrimSpace(*input.Email)
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		hash, err := util.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User updated", logger.Fields{"user_id": id, "updated_by": p.UserID})
	return user, nil
}

func (s *userService) Delete(p *permission.Principal, id uint) error {
	if err := permission.Enforce(userCollectionAccess, permission.Check{Principal: p, Action: permission.ActionDelete}); err != nil {
		return err
	}
	if err := s.userRepo.Delete(id); err != nil {
		return err
	}
	logger.Info("User deleted", logger.Fields{"user_id": id, "deleted_by": p.UserID})
	return nil
}

// AddToGroup links the user to group. Manager and Delivery Crew replace
// the Customer role.
func (s *userService) AddToGroup(p *permission.Principal, userID uint, group string) (*model.User, error) {
	apply := s.groupRepo.AddMember
	if model.IsStaffGroup(group) {
		apply = s.groupRepo.Promote
	}
	return s.changeGroup(p, userID, group, apply, "added to")
}

// RemoveFromGroup unlinks the user. Leaving the last staff group restores
// the Customer role.
func (s *userService) RemoveFromGroup(p *permission.Principal, userID uint, group string) (*model.User, error) {
	apply := s.groupRepo.RemoveMember
	if model.IsStaffGroup(group) {
		apply = s.groupRepo.Demote
	}
	return s.changeGroup(p, userID, group, apply, "removed from")
}

func (s *userService) changeGroup(p *permission.Principal, userID uint, group string, apply func(uint, string) error, verb string) (*model.User, error) {
	if err := permission.Enforce(groupAdminAccess, permission.Check{Principal: p, Action: permission.ActionUpdate}); err != nil {
		return nil, err
	}
	if !model.IsKnownGroup(group) {
		return nil, ErrUnknownGroup
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, err
	}

	if err := apply(userID, group); err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrUnknownGroup
		}
		return nil, err
	}

	logger.Info("User "+verb+" group", logger.Fields{
		"user_id":    userID,
		"group":      group,
		"changed_by": p.UserID,
	})
	return s.userRepo.FindByID(userID)
}

func (s *userService) ListGroupMembers(p *permission.Principal, group string, page pagination.Params) ([]model.User, int64, error) {
	if err := permission.Enforce(permission.IsManager, permission.Check{Principal: p, Action: permission.ActionList}); err != nil {
		return nil, 0, err
	}
	if !model.IsKnownGroup(group) {
		return nil, 0, ErrUnknownGroup
	}
	return s.groupRepo.ListMembers(group, page)
}
