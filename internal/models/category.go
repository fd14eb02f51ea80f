package models

import "fmt"

// Category is the semantic kind of a directory entry. All is only meaningful as a query filter.
type Category int

const (
	All Category = iota
	User
	Group
	OrganizationalUnit
	Other
)

func (c Category) String() string {
	switch c {
	case All:
		return "all"
	case User:
		return "user"
	case Group:
		return "group"
	case OrganizationalUnit:
		return "organizationalUnit"
	default:
		return "other"
	}
}

// FilterType is the wire value sent as filter_type
func (c Category) FilterType() string {
	switch c {
	case User:
		return "users"
	case Group:
		return "groups"
	case OrganizationalUnit:
		return "ous"
	default:
		return ""
	}
}

// Title is the heading shown above a directory view
func (c Category) Title() string {
	switch c {
	case User:
		return "Users"
	case Group:
		return "Groups"
	case OrganizationalUnit:
		return "Organizational Units"
	default:
		return "All Directory Entries"
	}
}

// ParseCategoryFilter maps a filter_type value back to a category.
// "" and "all" select every entry.
func ParseCategoryFilter(s string) (Category, error) {
	switch s {
	case "", "all":
		return All, nil
	case "users":
		return User, nil
	case "groups":
		return Group, nil
	case "ous":
		return OrganizationalUnit, nil
	default:
		return All, fmt.Errorf("unknown filter type %q", s)
	}
}
