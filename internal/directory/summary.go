package directory

import (
	"fmt"
	"strings"

	"github.com/devplatform/ldap-console/internal/models"
)

// Placeholder is rendered for any missing display field
const Placeholder = "-"

// baseClasses never produce their own badge
var baseClasses = map[string]struct{}{
	"top":                  {},
	"person":               {},
	"organizationalPerson": {},
	"inetOrgPerson":        {},
	"posixAccount":         {},
	"shadowAccount":        {},
	"account":              {},
}

// BadgeKind distinguishes how a badge is styled
type BadgeKind string

const (
	BadgeCustom   BadgeKind = "custom"
	BadgeAdmin    BadgeKind = "admin"
	BadgeLegacy   BadgeKind = "legacy"
	BadgeStandard BadgeKind = "standard"
)

// Badge is an objectClass marker shown for a user
type Badge struct {
	Label string    `json:"label"`
	Kind  BadgeKind `json:"kind"`
}

// UserSummary is the users-view row
type UserSummary struct {
	DN        string  `json:"dn"`
	Username  string  `json:"username"`
	FullName  string  `json:"fullName"`
	Email     string  `json:"email"`
	Detail    string  `json:"detail"`
	SubDetail string  `json:"subDetail,omitempty"`
	Badges    []Badge `json:"badges"`
}

// GroupSummary is the groups-view row
type GroupSummary struct {
	DN          string `json:"dn"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MemberCount int    `json:"memberCount"`
}

// MemberLabel renders the member count with the right plural
func (g GroupSummary) MemberLabel() string {
	if g.MemberCount == 1 {
		return "1 member"
	}
	return fmt.Sprintf("%d members", g.MemberCount)
}

// UnitSummary is the organizational-units-view row
type UnitSummary struct {
	DN          string `json:"dn"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// EntrySummary is the all-entries-view row
type EntrySummary struct {
	DN          string `json:"dn"`
	ObjectClass string `json:"objectClass"`
	Preview     string `json:"preview"`
}

// Summary bundles the category with the view-specific fields for that category
type Summary struct {
	Category models.Category `json:"-"`
	User     *UserSummary    `json:"user,omitempty"`
	Group    *GroupSummary   `json:"group,omitempty"`
	Unit     *UnitSummary    `json:"unit,omitempty"`
	Entry    EntrySummary    `json:"entry"`
}

// Summarize classifies the entry and fills the matching summary
func (c *Classifier) Summarize(entry models.DirectoryEntry) Summary {
	s := Summary{
		Category: c.Classify(entry),
		Entry:    c.EntrySummary(entry),
	}

	switch s.Category {
	case models.User:
		u := c.UserSummary(entry)
		s.User = &u
	case models.Group:
		g := c.GroupSummary(entry)
		s.Group = &g
	case models.OrganizationalUnit:
		o := c.UnitSummary(entry)
		s.Unit = &o
	}

	return s
}

// UserSummary renders the user columns regardless of the entry's category
func (c *Classifier) UserSummary(entry models.DirectoryEntry) UserSummary {
	detail, sub := c.userDetail(entry)
	return UserSummary{
		DN:        entry.DN,
		Username:  firstNonEmpty(entry, "uid", "cn"),
		FullName:  firstNonEmpty(entry, "cn"),
		Email:     firstNonEmpty(entry, "mail"),
		Detail:    detail,
		SubDetail: sub,
		Badges:    c.Badges(entry),
	}
}

// userDetail picks the role/detail column. A role (or realm) outranks every generic field;
// a title is paired with the department or ou.
func (c *Classifier) userDetail(entry models.DirectoryEntry) (string, string) {
	role := lookup(entry, c.opts.RoleAttribute)
	realm := lookup(entry, c.opts.RealmAttribute)
	if role != "" || realm != "" {
		if role == "" {
			role = Placeholder
		}
		return role, realm
	}

	if title := lookup(entry, "title"); title != "" {
		return title, lookupAny(entry, "departmentNumber", "ou")
	}

	if detail := lookupAny(entry, "departmentNumber", "ou", "organizationalUnit", "description"); detail != "" {
		return detail, ""
	}
	return Placeholder, ""
}

// Badges derives the objectClass badges for a user
func (c *Classifier) Badges(entry models.DirectoryEntry) []Badge {
	classes := entry.ObjectClasses()

	var custom []string
	for _, oc := range classes {
		if _, ok := baseClasses[oc]; !ok {
			custom = append(custom, oc)
		}
	}

	if len(custom) > 0 {
		badges := []Badge{{Label: custom[0], Kind: BadgeCustom}}
		if truthy(lookup(entry, c.opts.AdminAttribute)) {
			badges = append(badges, Badge{Label: "Admin", Kind: BadgeAdmin})
		}
		return badges
	}

	if contains(classes, "account") && !contains(classes, "inetOrgPerson") {
		return []Badge{{Label: "Legacy Unix", Kind: BadgeLegacy}}
	}
	return []Badge{{Label: "Standard", Kind: BadgeStandard}}
}

// GroupSummary renders the group columns. Member count prefers member over uniqueMember.
func (c *Classifier) GroupSummary(entry models.DirectoryEntry) GroupSummary {
	members := entry.Get("member")
	if !members.IsPresent() {
		members = entry.Get("uniqueMember")
	}
	return GroupSummary{
		DN:          entry.DN,
		Name:        firstNonEmpty(entry, "cn"),
		Description: firstNonEmpty(entry, "description"),
		MemberCount: members.Len(),
	}
}

// UnitSummary renders the organizational unit columns
func (c *Classifier) UnitSummary(entry models.DirectoryEntry) UnitSummary {
	return UnitSummary{
		DN:          entry.DN,
		Name:        firstNonEmpty(entry, "ou", "o"),
		Description: firstNonEmpty(entry, "description"),
	}
}

// EntrySummary renders the generic columns: the most specific objectClass and a short preview
func (c *Classifier) EntrySummary(entry models.DirectoryEntry) EntrySummary {
	objectClass := "Unknown"
	if classes := entry.ObjectClasses(); len(classes) > 0 {
		objectClass = classes[len(classes)-1]
	}

	var preview []string
	for _, name := range entry.AttributeNames() {
		if name == "objectClass" {
			continue
		}
		v, ok := entry.FirstValue(name)
		if !ok {
			continue
		}
		preview = append(preview, fmt.Sprintf("%s: %s", name, v))
		if len(preview) == 3 {
			break
		}
	}

	return EntrySummary{
		DN:          entry.DN,
		ObjectClass: objectClass,
		Preview:     strings.Join(preview, ", "),
	}
}

func lookup(entry models.DirectoryEntry, name string) string {
	if name == "" {
		return ""
	}
	v, _ := entry.FirstValue(name)
	return v
}

func lookupAny(entry models.DirectoryEntry, names ...string) string {
	for _, n := range names {
		if v := lookup(entry, n); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(entry models.DirectoryEntry, names ...string) string {
	if v := lookupAny(entry, names...); v != "" {
		return v
	}
	return Placeholder
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
