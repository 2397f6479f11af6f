package thermal

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/partsd/internal/foundation/errors"
)

const (
	bucketCount     = 6
	bucketSeparator = ":"
	tokenTerminator = ","
)

// Bucket labels prefix each serialized bucket, e.g. "thermal.gaming=pkg1,pkg2,".
var bucketLabels = [bucketCount]string{
	"thermal.benchmark=",
	"thermal.browser=",
	"thermal.camera=",
	"thermal.dialer=",
	"thermal.gaming=",
	"thermal.streaming=",
}

// Table holds the six profile buckets. Bucket i belongs to Profile(i+1).
// A package appears in at most one bucket.
type Table struct {
	buckets [bucketCount][]string
}

// ParseTable decodes a stored value. It reports false when the value does not
// have exactly six buckets; callers then start over from an empty table.
func ParseTable(value string) (Table, bool) {
	var t Table
	if value == "" {
		return t, false
	}
	parts := strings.Split(value, bucketSeparator)
	if len(parts) != bucketCount {
		return t, false
	}
	for i, part := range parts {
		part = strings.TrimPrefix(part, bucketLabels[i])
		for _, token := range strings.Split(part, tokenTerminator) {
			token = strings.TrimSpace(token)
			if token == "" || t.contains(token) {
				continue
			}
			t.buckets[i] = append(t.buckets[i], token)
		}
	}
	return t, true
}

// String encodes the table in its stored form.
func (t Table) String() string {
	var b strings.Builder
	for i, bucket := range t.buckets {
		if i > 0 {
			b.WriteString(bucketSeparator)
		}
		b.WriteString(bucketLabels[i])
		for _, pkg := range bucket {
			b.WriteString(pkg)
			b.WriteString(tokenTerminator)
		}
	}
	return b.String()
}

// Lookup returns the profile whose bucket holds pkg, or Default. Buckets are
// searched in profile order and the first match wins.
func (t Table) Lookup(pkg string) Profile {
	for i, bucket := range t.buckets {
		if slices.Contains(bucket, pkg) {
			return Profile(i + 1)
		}
	}
	return Default
}

// Assign moves pkg into profile's bucket. Assigning Default only removes it.
func (t *Table) Assign(pkg string, profile Profile) {
	t.remove(pkg)
	if profile == Default {
		return
	}
	i := int(profile) - 1
	t.buckets[i] = append(t.buckets[i], pkg)
}

// Packages returns the packages assigned to profile in insertion order.
func (t Table) Packages(profile Profile) []string {
	if profile == Default || !profile.Valid() {
		return nil
	}
	return slices.Clone(t.buckets[int(profile)-1])
}

func (t *Table) remove(pkg string) {
	for i := range t.buckets {
		t.buckets[i] = slices.DeleteFunc(t.buckets[i], func(s string) bool { return s == pkg })
	}
}

func (t Table) contains(pkg string) bool {
	for _, bucket := range t.buckets {
		if slices.Contains(bucket, pkg) {
			return true
		}
	}
	return false
}

// ValidatePackageName rejects names that cannot be stored as a single token.
func ValidatePackageName(pkg string) error {
	if strings.TrimSpace(pkg) == "" {
		return errors.ValidationError("package name is empty").Build()
	}
	if strings.ContainsAny(pkg, bucketSeparator+tokenTerminator+"= \t\n") {
		return errors.ValidationError("package name contains a reserved character").
			WithContext("package", pkg).
			Build()
	}
	return nil
}
