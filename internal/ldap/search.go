package ldap

import (
	"fmt"
	"strings"

	"github.com/devplatform/ldap-console/internal/models"
	ldap "github.com/go-ldap/ldap/v3"
)

// MatchAll selects every entry
const MatchAll = "(objectClass=*)"

var categoryFilters = map[models.Category]string{
	models.User:               "(|(objectClass=inetOrgPerson)(objectClass=posixAccount)(objectClass=account))",
	models.Group:              "(|(objectClass=groupOfNames)(objectClass=groupOfUniqueNames)(objectClass=posixGroup))",
	models.OrganizationalUnit: "(objectClass=organizationalUnit)",
}

// BuildFilter combines the category filter with a substring match on uid, cn, mail and sn
func BuildFilter(category models.Category, text string) string {
	filter, ok := categoryFilters[category]
	if !ok {
		filter = MatchAll
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return filter
	}

	v := ldap.EscapeFilter(text)
	search := fmt.Sprintf("(|(uid=*%s*)(cn=*%s*)(mail=*%s*)(sn=*%s*))", v, v, v, v)
	if filter == MatchAll {
		return search
	}
	return fmt.Sprintf("(&%s%s)", filter, search)
}

// SearchAll runs a subtree search under base with paging. A positive limit caps the
// number of entries; hitting it is not an error.
func (s *Session) SearchAll(base, filter string, attributes []string, limit int) ([]*ldap.Entry, error) {
	sizeLimit := 0
	if limit > 0 {
		sizeLimit = limit
	}

	searchRequest := ldap.NewSearchRequest(
		base,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		sizeLimit,
		int(s.opts.SearchTimeout.Seconds()),
		false,
		filter,
		attributes,
		nil,
	)

	paging := s.opts.PagingSize
	if paging == 0 {
		paging = 500
	}

	result, err := s.conn.SearchWithPaging(searchRequest, paging)
	if err != nil {
		if !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) || result == nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		s.logger.WithField("limit", limit).Debug("Search stopped at size limit")
	}

	entries := make([]*ldap.Entry, 0, len(result.Entries))
	for _, e := range result.Entries {
		if e.DN == "" {
			continue
		}
		entries = append(entries, e)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Count returns the number of entries matching filter under base
func (s *Session) Count(base, filter string) (int, error) {
	entries, err := s.SearchAll(base, filter, []string{"dn"}, 0)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ReadAttribute returns the first value of one attribute of dn, or "" if it is not set
func (s *Session) ReadAttribute(dn, attribute string) (string, error) {
	searchRequest := ldap.NewSearchRequest(
		dn,
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		0,
		int(s.opts.SearchTimeout.Seconds()),
		false,
		MatchAll,
		[]string{attribute},
		nil,
	)

	result, err := s.conn.Search(searchRequest)
	if err != nil {
		return "", fmt.Errorf("read %s of %s failed: %w", attribute, dn, err)
	}
	if len(result.Entries) == 0 {
		return "", nil
	}
	return result.Entries[0].GetAttributeValue(attribute), nil
}

// DiscoverBaseDN reads the first namingContexts value from the rootDSE. Failures yield "".
func (s *Session) DiscoverBaseDN() string {
	base, err := s.ReadAttribute("", "namingContexts")
	if err != nil {
		s.logger.WithError(err).Debug("Base DN discovery failed")
		return ""
	}
	return base
}

// ToEntry converts a search result entry. A single value becomes a scalar and several
// values become a sequence; attributes without values are dropped.
func ToEntry(e *ldap.Entry) models.DirectoryEntry {
	attrs := make(map[string]models.AttributeValue, len(e.Attributes))
	for _, a := range e.Attributes {
		switch len(a.Values) {
		case 0:
			continue
		case 1:
			attrs[a.Name] = models.ScalarValue(a.Values[0])
		default:
			attrs[a.Name] = models.MultiValue(a.Values...)
		}
	}
	return models.DirectoryEntry{DN: e.DN, Attributes: attrs}
}

// ToEntries converts a slice of search result entries
func ToEntries(entries []*ldap.Entry) []models.DirectoryEntry {
	out := make([]models.DirectoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ToEntry(e))
	}
	return out
}
