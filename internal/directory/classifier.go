// Package directory turns raw directory entries into categorized, display-ready views.
package directory

import (
	"github.com/devplatform/ldap-console/internal/models"
)

var (
	groupClasses  = []string{"groupOfNames", "groupOfUniqueNames", "posixGroup"}
	personClasses = []string{"inetOrgPerson", "person", "posixAccount", "account"}
	unitClasses   = []string{"organizationalUnit", "organization"}
)

// Options tunes the site-specific parts of classification
type Options struct {
	// PersonClasses are extra objectClasses that mark an entry as a user
	PersonClasses []string
	// RoleAttribute holds a dedicated role that outranks title/department
	RoleAttribute string
	// RealmAttribute is shown under the role
	RealmAttribute string
	// AdminAttribute flags privileged users
	AdminAttribute string
}

// DefaultOptions matches the stock OpenLDAP schema plus the role/realm/admin extension
func DefaultOptions() Options {
	return Options{
		RoleAttribute:  "role",
		RealmAttribute: "kingdom",
		AdminAttribute: "isAdmin",
	}
}

// Rule is one step of the classification cascade
type Rule struct {
	Name     string
	Match    func(models.DirectoryEntry) bool
	Category models.Category
}

// Classifier maps entries to categories. Rules are evaluated in order and the first match wins.
type Classifier struct {
	opts  Options
	rules []Rule
}

// NewClassifier builds the rule cascade group → user → organizational unit
func NewClassifier(opts Options) *Classifier {
	if opts.RoleAttribute == "" {
		opts.RoleAttribute = "role"
	}
	if opts.RealmAttribute == "" {
		opts.RealmAttribute = "kingdom"
	}
	if opts.AdminAttribute == "" {
		opts.AdminAttribute = "isAdmin"
	}

	users := make([]string, 0, len(personClasses)+len(opts.PersonClasses))
	users = append(users, personClasses...)
	users = append(users, opts.PersonClasses...)

	c := &Classifier{opts: opts}
	c.rules = []Rule{
		{Name: "group-class", Match: hasAnyClass(groupClasses), Category: models.Group},
		{Name: "person-class", Match: hasAnyClass(users), Category: models.User},
		{Name: "unit-shape", Match: looksLikeUnit, Category: models.OrganizationalUnit},
	}
	return c
}

// Rules returns the cascade in evaluation order
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the category of an entry. Entries matching no rule are Other.
func (c *Classifier) Classify(entry models.DirectoryEntry) models.Category {
	for _, r := range c.rules {
		if r.Match(entry) {
			return r.Category
		}
	}
	return models.Other
}

func hasAnyClass(classes []string) func(models.DirectoryEntry) bool {
	set := make(map[string]struct{}, len(classes))
	for _, cls := range classes {
		set[cls] = struct{}{}
	}
	return func(e models.DirectoryEntry) bool {
		for _, oc := range e.ObjectClasses() {
			if _, ok := set[oc]; ok {
				return true
			}
		}
		return false
	}
}

func looksLikeUnit(e models.DirectoryEntry) bool {
	if e.Has("ou") || e.Has("o") {
		return true
	}
	return hasAnyClass(unitClasses)(e)
}
