package model

// Role group names. They are seeded by migrations and matched by name.
const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery Crew"
	GroupCustomer     = "Customer"
)

// KnownGroups lists every seeded role group
var KnownGroups = []string{GroupManager, GroupDeliveryCrew, GroupCustomer}

// StaffGroups replace the implicit Customer role
var StaffGroups = []string{GroupManager, GroupDeliveryCrew}

// IsStaffGroup reports whether name is Manager or Delivery Crew
func IsStaffGroup(name string) bool {
	return name == GroupManager || name == GroupDeliveryCrew
}

// IsKnownGroup reports whether name is one of the seeded groups
func IsKnownGroup(name string) bool {
	for _, g := range KnownGroups {
		if g == name {
			return true
		}
	}
	return false
}

type Group struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:150;uniqueIndex;not null" json:"name"`
}

func (Group) TableName() string {
	return "groups"
}
