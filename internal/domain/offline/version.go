package offline

import (
	"net/url"
	"strings"
)

// VersionTag identifies one build of the application shell.
// Tags are compared by equality only; lexical order carries no meaning.
type VersionTag string

// DevVersion is used when no build tag was supplied.
const DevVersion VersionTag = "dev"

// ScriptPath is the worker registration endpoint.
const ScriptPath = "/sw.js"

// String returns the tag as a plain string
func (v VersionTag) String() string {
	return string(v)
}

// IsZero reports whether the tag is empty
func (v VersionTag) IsZero() bool {
	return strings.TrimSpace(string(v)) == ""
}

// BucketName returns the cache bucket name for a prefix and version.
func BucketName(prefix string, v VersionTag) string {
	return prefix + "-" + string(v)
}

// IsStaleBucket reports whether name shares prefix and is not the current bucket.
func IsStaleBucket(name, prefix, current string) bool {
	return strings.HasPrefix(name, prefix) && name != current
}

// ScriptURL returns the registration URL for v. A changed query value makes
// the registry treat the script as a new worker even if nothing else changed.
func ScriptURL(v VersionTag) string {
	return ScriptPath + "?v=" + url.QueryEscape(string(v))
}

// VersionFromQuery extracts the worker version from registration query values,
// falling back to DevVersion.
func VersionFromQuery(q url.Values) VersionTag {
	v := VersionTag(strings.TrimSpace(q.Get("v")))
	if v.IsZero() {
		return DevVersion
	}
	return v
}

// VersionFromScriptURL parses a registration URL such as /sw.js?v=abc-123.
func VersionFromScriptURL(raw string) VersionTag {
	u, err := url.Parse(raw)
	if err != nil {
		return DevVersion
	}
	return VersionFromQuery(u.Query())
}
